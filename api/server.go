// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

// Package api exposes the detector over HTTP.
package api

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/cardscape/encounters/detection"
	"github.com/cardscape/encounters/utils/textutils"
	"github.com/gin-gonic/gin"
)

// maxRequestBytes bounds the JSON body of a detection request.
const maxRequestBytes = 8 << 20

type Server struct {
	detector *detection.Detector
}

func NewServer(detector *detection.Detector) *Server {
	return &Server{detector: detector}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	s.RegisterRoutes(r)

	return r
}

// RegisterRoutes adds the API routes to r.
func (s *Server) RegisterRoutes(r gin.IRoutes) {
	r.GET("/healthz", s.health)
	r.POST("/api/detect", s.detect)
	r.GET("/api/radius", s.radius)
	r.POST("/api/similarity", s.similarity)
}

func (s *Server) Run(addr string) error {
	log.Printf("Listening on %s", addr)

	return s.Router().Run(addr)
}

func (s *Server) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) detect(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxRequestBytes)

	var req detection.Request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})

		return
	}

	if req.TimeWindowDays < 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "timeWindowDays must not be negative"})

		return
	}

	suggestions, err := s.detector.Detect(ctx.Request.Context(), req)
	if errors.Is(err, detection.ErrTooManyEvents) {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})

		return
	}

	if err != nil {
		log.Printf("Detection failed - %s", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "detection failed"})

		return
	}

	ctx.JSON(http.StatusOK, suggestions)
}

// RadiusResponse describes how a radius was selected.
type RadiusResponse struct {
	Types      []string `json:"types"`
	City       string   `json:"city,omitempty"`
	CityFactor float64  `json:"cityFactor"`
	Radius     int      `json:"radius"`
}

func (s *Server) radius(ctx *gin.Context) {
	types := textutils.SplitList(ctx.Query("types"))
	city := strings.TrimSpace(ctx.Query("city"))

	if vicinity := ctx.Query("vicinity"); city == "" && vicinity != "" {
		city = detection.CityFromVicinity(vicinity)
	}

	policy := s.detector.Policy()

	resp := RadiusResponse{
		Types:      types,
		City:       city,
		CityFactor: 1.0,
		Radius:     policy.SelectRadius(types, city),
	}
	if city != "" {
		resp.CityFactor = policy.CityFactor(city)
	}

	ctx.JSON(http.StatusOK, resp)
}

// SimilarityRequest holds the two events to compare.
type SimilarityRequest struct {
	A detection.Event `json:"a"`
	B detection.Event `json:"b"`
}

// SimilarityResponse is the score of a pair of events.
type SimilarityResponse struct {
	Score          float64  `json:"score"`
	Threshold      float64  `json:"threshold"`
	Similar        bool     `json:"similar"`
	DistanceMeters *float64 `json:"distanceMeters,omitempty"`
	WithinRadius   *bool    `json:"withinRadius,omitempty"`
}

func (s *Server) similarity(ctx *gin.Context) {
	var req SimilarityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})

		return
	}

	scorer := s.detector.Scorer()
	score := scorer.Similarity(&req.A, &req.B)

	resp := SimilarityResponse{
		Score:     score,
		Threshold: scorer.Threshold,
		Similar:   score >= scorer.Threshold,
	}

	if req.A.Location.Valid() && req.B.Location.Valid() {
		distance := req.A.Location.HaversineDistance(req.B.Location)
		within := distance <= float64(s.detector.Policy().SelectRadius(req.A.Types, req.A.City()))
		resp.DistanceMeters = &distance
		resp.WithinRadius = &within
	}

	ctx.JSON(http.StatusOK, resp)
}
