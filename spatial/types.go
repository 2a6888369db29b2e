// Copyright 2025 The Encounters Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"fmt"
	"math"

	"github.com/uber/h3-go/v4"
	"gonum.org/v1/gonum/stat"
)

const earthRadius = 6371e3 // meters

// CacheResolution is the h3 resolution used to round coordinates into cache keys.
// Cells at resolution 9 have an edge of roughly 200 meters.
const CacheResolution = 9

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point holds finite WGS84 coordinates.
func (p *Point) Valid() bool {
	if p == nil {
		return false
	}

	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}

	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (p *Point) HaversineDistance(other *Point) float64 {
	return DistanceMeters(p.Lat, p.Lng, other.Lat, other.Lng)
}

// DistanceMeters returns the great-circle distance between two coordinates
// using the haversine formula. It ignores the ellipsoidal correction.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push a slightly outside [0, 1] for antipodal points
	a = math.Min(math.Max(a, 0), 1)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// Centroid returns the arithmetic mean of the given points. The zero Point is
// returned for an empty slice.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}

	lats := make([]float64, len(points))
	lngs := make([]float64, len(points))

	for i, p := range points {
		lats[i] = p.Lat
		lngs[i] = p.Lng
	}

	return Point{Lat: stat.Mean(lats, nil), Lng: stat.Mean(lngs, nil)}
}

// CellKey rounds the point to the h3 cell that contains it at the given
// resolution and returns the cell index as a hex string.
func (p Point) CellKey(res int) (string, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), res)
	if err != nil {
		return "", fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
	}

	return cell.String(), nil
}
