// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrTooManyEvents is returned when a request exceeds the detector's MaxEvents.
var ErrTooManyEvents = errors.New("too many candidate events")

// Request is the input of a detection run.
type Request struct {
	Events         []Event           `json:"events"`
	Contacts       []Contact         `json:"contacts"`
	ExistingGroups []GroupSuggestion `json:"existingGroups"`
	TimeWindowDays int               `json:"timeWindowDays,omitempty"`
}

// Detector runs the detection pipeline. It holds no per-run state and can be
// shared across goroutines.
type Detector struct {
	policy    *RadiusPolicy
	scorer    *SimilarityScorer
	cache     Cache
	cacheTTL  time.Duration
	maxEvents int
	window    int
	now       func() time.Time
	newID     func() string
}

// Option customizes a Detector.
type Option func(*Detector)

// WithRadiusPolicy replaces the default radius policy.
func WithRadiusPolicy(p *RadiusPolicy) Option {
	return func(d *Detector) { d.policy = p }
}

// WithMergeThreshold sets the minimum similarity for merging events.
func WithMergeThreshold(threshold float64) Option {
	return func(d *Detector) { d.scorer = &SimilarityScorer{Threshold: threshold} }
}

// WithCache memoizes radius lookups in c for ttl.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(d *Detector) {
		d.cache = c
		d.cacheTTL = ttl
	}
}

// WithMaxEvents rejects requests with more than n usable events; 0 disables the limit.
func WithMaxEvents(n int) Option {
	return func(d *Detector) { d.maxEvents = n }
}

// WithTimeWindowDays sets the window used when a request does not carry one.
func WithTimeWindowDays(days int) Option {
	return func(d *Detector) { d.window = days }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// WithIDGenerator overrides how cluster ids are generated.
func WithIDGenerator(newID func() string) Option {
	return func(d *Detector) { d.newID = newID }
}

// NewDetector returns a detector with the default policy and threshold.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		policy:   NewRadiusPolicy(),
		scorer:   NewSimilarityScorer(),
		cacheTTL: DefaultCacheTTL,
		window:   DefaultTimeWindowDays,
		now:      time.Now,
		newID:    uuid.NewString,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Policy returns the detector's radius policy.
func (d *Detector) Policy() *RadiusPolicy {
	return d.policy
}

// Scorer returns the detector's similarity scorer.
func (d *Detector) Scorer() *SimilarityScorer {
	return d.scorer
}

// Clusters sanitizes the request and returns the retained clusters.
func (d *Detector) Clusters(ctx context.Context, req Request) ([]*Cluster, error) {
	return d.clusters(ctx, req, d.now())
}

func (d *Detector) clusters(ctx context.Context, req Request, now time.Time) ([]*Cluster, error) {
	events := sanitize(req.Events, req.Contacts)
	if d.maxEvents > 0 && len(events) > d.maxEvents {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyEvents, len(events), d.maxEvents)
	}

	builder := NewClusterBuilder(d.policy, d.scorer)
	builder.NewID = d.newID
	builder.WindowDays = d.window
	if req.TimeWindowDays > 0 {
		builder.WindowDays = req.TimeWindowDays
	}

	if d.cache != nil {
		cached := &cachedRadius{ctx: ctx, policy: d.policy, cache: d.cache, ttl: d.cacheTTL}
		builder.Radius = cached.radiusFor
	}

	return builder.Build(events, now), nil
}

// Detect returns the ranked group suggestions for the request.
func (d *Detector) Detect(ctx context.Context, req Request) ([]GroupSuggestion, error) {
	now := d.now()

	clusters, err := d.clusters(ctx, req, now)
	if err != nil {
		return nil, err
	}

	return SuggestionBuilder{}.Build(clusters, req.ExistingGroups, now), nil
}

// DetectEventClusters runs a default detector over the events. A
// timeWindowDays of 0 selects DefaultTimeWindowDays.
func DetectEventClusters(events []Event, contacts []Contact, existing []GroupSuggestion, timeWindowDays int) []GroupSuggestion {
	suggestions, _ := NewDetector().Detect(context.Background(), Request{
		Events:         events,
		Contacts:       contacts,
		ExistingGroups: existing,
		TimeWindowDays: timeWindowDays,
	})

	return suggestions
}

// sanitize drops events without a usable location and resolves nearby
// contacts against the contact index. A nearby contact survives when it or
// its indexed record carries a valid location.
func sanitize(events []Event, contacts []Contact) []*Event {
	index := make(map[string]Contact, len(contacts))

	for _, c := range contacts {
		if c.Location.Valid() {
			if _, dup := index[c.ID]; !dup {
				index[c.ID] = c
			}
		}
	}

	out := make([]*Event, 0, len(events))

	for i := range events {
		if !events[i].Location.Valid() {
			continue
		}

		e := events[i]
		e.ContactsNearby = resolveContacts(events[i].ContactsNearby, index)
		out = append(out, &e)
	}

	return out
}

func resolveContacts(nearby []Contact, index map[string]Contact) []Contact {
	resolved := make([]Contact, 0, len(nearby))

	for _, c := range nearby {
		record, indexed := index[c.ID]

		switch {
		case indexed:
			resolved = append(resolved, merge(c, record))
		case c.Location.Valid():
			resolved = append(resolved, c)
		}
	}

	return resolved
}

// merge fills the blanks of a nearby reference from its indexed record.
func merge(ref, record Contact) Contact {
	if ref.Name == "" {
		ref.Name = record.Name
	}

	if !ref.Location.Valid() {
		ref.Location = record.Location
	}

	if ref.SubmittedAt == nil {
		ref.SubmittedAt = record.SubmittedAt
	}

	if ref.CreatedAt == nil {
		ref.CreatedAt = record.CreatedAt
	}

	return ref
}
