// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package detection

import (
	"time"

	"github.com/cardscape/encounters/spatial"
	"github.com/google/uuid"
)

// DefaultTimeWindowDays is the length of a cluster's time range.
const DefaultTimeWindowDays = 7

// ClusterBuilder groups events into clusters with a greedy single pass.
//
// Every unused event seeds a cluster and absorbs the remaining unused events
// that lie within the seed's radius of the running centroid and are similar
// enough to the seed. Members are never re-checked after the centroid moves,
// so the result depends on input order. The pairwise scan is O(n²) and is
// meant for the tens of candidates a discovery run produces; callers bound
// larger inputs with a MaxEvents limit on the Detector.
type ClusterBuilder struct {
	// Radius returns the merge radius, in meters, for a seed event.
	Radius     func(*Event) int
	Scorer     *SimilarityScorer
	WindowDays int
	NewID      func() string
}

// NewClusterBuilder returns a builder that selects radii with the given policy.
func NewClusterBuilder(policy *RadiusPolicy, scorer *SimilarityScorer) *ClusterBuilder {
	return &ClusterBuilder{
		Radius: func(e *Event) int {
			return policy.SelectRadius(e.Types, e.City())
		},
		Scorer:     scorer,
		WindowDays: DefaultTimeWindowDays,
		NewID:      uuid.NewString,
	}
}

// Build clusters the events and returns the retained clusters in the order
// their seeds appear in the input. Events must carry a valid location.
func (b *ClusterBuilder) Build(events []*Event, now time.Time) []*Cluster {
	clusters := make([]*Cluster, 0, len(events))

	// tracked by position so events sharing an id, or lacking one, are still clustered
	used := make([]bool, len(events))

	for i, seed := range events {
		if used[i] {
			continue
		}

		used[i] = true

		cluster := b.newCluster(seed, now)
		members := []spatial.Point{*seed.Location}

		for j := i + 1; j < len(events); j++ {
			other := events[j]
			if used[j] {
				continue
			}

			distance := cluster.CenterPoint.HaversineDistance(other.Location)
			if distance > float64(cluster.Radius) || !b.Scorer.Similar(seed, other) {
				continue
			}

			cluster.Events = append(cluster.Events, other)
			cluster.Contacts = append(cluster.Contacts, other.ContactsNearby...)
			used[j] = true

			members = append(members, *other.Location)
			cluster.CenterPoint = spatial.Centroid(members)
		}

		cluster.Contacts = dedupeContacts(cluster.Contacts)
		cluster.Confidence = ClassifyConfidence(cluster.Events)

		if len(cluster.Contacts) >= 2 || cluster.Confidence == ConfidenceHigh {
			clusters = append(clusters, cluster)
		}
	}

	return clusters
}

func (b *ClusterBuilder) newCluster(seed *Event, now time.Time) *Cluster {
	window := b.WindowDays
	if window <= 0 {
		window = DefaultTimeWindowDays
	}

	contacts := make([]Contact, len(seed.ContactsNearby))
	copy(contacts, seed.ContactsNearby)

	return &Cluster{
		ID:           b.NewID(),
		PrimaryEvent: seed,
		Events:       []*Event{seed},
		Contacts:     contacts,
		CenterPoint:  *seed.Location,
		Radius:       b.Radius(seed),
		TimeRange: TimeRange{
			Start: now,
			End:   now.AddDate(0, 0, window),
		},
	}
}

// dedupeContacts keeps the first occurrence of every contact id.
func dedupeContacts(contacts []Contact) []Contact {
	seen := make(map[string]bool, len(contacts))
	out := contacts[:0]

	for _, c := range contacts {
		if seen[c.ID] {
			continue
		}

		seen[c.ID] = true
		out = append(out, c)
	}

	return out
}
