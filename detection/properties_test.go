// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package detection

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/cardscape/encounters/spatial"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var (
	categoryPool = []string{
		"convention_center", "stadium", "arena", "museum", "art_gallery", "university",
		"lodging", "resort", "restaurant", "point_of_interest", "establishment",
	}
	namePool   = []string{"Moscone Center", "Moscone Centre", "Javits", "Neon Museum", "", "Arena"}
	cityPool   = []string{"", "Las Vegas", "new york", "Paris", "Montevideo", "SINGAPORE"}
	statusPool = []string{"", BusinessStatusOperational, "CLOSED_PERMANENTLY"}
)

// randomEvents builds a reproducible candidate set packed around a single
// venue so that merges happen often.
func randomEvents(seed int64, n int) []Event {
	r := rand.New(rand.NewSource(seed)) // #nosec G404 - deterministic test data
	events := make([]Event, n)

	for i := range events {
		e := Event{
			ID:             fmt.Sprintf("e%d", i),
			Name:           namePool[r.Intn(len(namePool))],
			Location:       &spatial.Point{Lat: lvcc.Lat + r.Float64()*0.03, Lng: lvcc.Lng + r.Float64()*0.03},
			BusinessStatus: statusPool[r.Intn(len(statusPool))],
			Vicinity:       "x, " + cityPool[r.Intn(len(cityPool))] + ", y",
			HighConfidence: r.Intn(3) == 0,
		}

		for range r.Intn(3) {
			e.Types = append(e.Types, categoryPool[r.Intn(len(categoryPool))])
		}

		if r.Intn(2) == 0 {
			e.Rating = ptr(r.Float64() * 5)
		}

		if r.Intn(2) == 0 {
			e.UserRatingCount = ptr(r.Intn(400))
		}

		for range r.Intn(4) {
			e.ContactsNearby = append(e.ContactsNearby, Contact{
				ID:       fmt.Sprintf("c%d", r.Intn(6)),
				Location: &spatial.Point{},
			})
		}

		events[i] = e
	}

	return events
}

func TestDetectionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	policy := NewRadiusPolicy()
	scorer := NewSimilarityScorer()

	properties.Property("selected radius stays within bounds", prop.ForAll(
		func(picks []int, city string) bool {
			categories := make([]string, len(picks))
			for i, p := range picks {
				categories[i] = categoryPool[p]
			}

			r := policy.SelectRadius(categories, city)

			return r >= MinRadius && r <= MaxRadius
		},
		gen.SliceOf(gen.IntRange(0, len(categoryPool)-1)),
		gen.OneConstOf("", "Las Vegas", "new york", "Orlando", "Atlantis"),
	))

	properties.Property("similarity stays within [0, 1]", prop.ForAll(
		func(seed int64) bool {
			events := randomEvents(seed, 2)
			s := scorer.Similarity(&events[0], &events[1])

			return s >= 0 && s <= 1
		},
		gen.Int64(),
	))

	properties.Property("an event rated and with a status is identical to itself", prop.ForAll(
		func(seed int64) bool {
			e := randomEvents(seed, 1)[0]
			e.Rating = ptr(3.5)
			e.BusinessStatus = BusinessStatusOperational

			return scorer.Similarity(&e, &e) == 1
		},
		gen.Int64(),
	))

	properties.Property("retained clusters have two contacts or high confidence", prop.ForAll(
		func(seed int64, n int) bool {
			clusters, err := testDetector().Clusters(context.Background(), Request{Events: randomEvents(seed, n)})
			if err != nil {
				return false
			}

			for _, c := range clusters {
				if len(c.Contacts) < 2 && c.Confidence != ConfidenceHigh {
					return false
				}
			}

			return true
		},
		gen.Int64(),
		gen.IntRange(0, 25),
	))

	properties.Property("suggestions never repeat a contact set", prop.ForAll(
		func(seed int64, n int) bool {
			existing := []GroupSuggestion{{Type: GroupTypeEvent, ContactIDs: []string{"c1", "c0"}}}

			suggestions, err := testDetector().Detect(context.Background(), Request{
				Events:         randomEvents(seed, n),
				ExistingGroups: existing,
			})
			if err != nil {
				return false
			}

			seen := map[string]bool{contactSetKey(existing[0].ContactIDs): true}
			for i, s := range suggestions {
				key := contactSetKey(s.ContactIDs)
				if seen[key] {
					return false
				}

				seen[key] = true

				if i > 0 && suggestions[i-1].Priority < s.Priority {
					return false
				}
			}

			return true
		},
		gen.Int64(),
		gen.IntRange(0, 25),
	))

	properties.TestingRun(t)
}
