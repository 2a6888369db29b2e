// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package detection

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
)

// TimeframeLayout formats the day a suggestion was generated, e.g. "Oct 15, 2026".
const TimeframeLayout = "Jan 2, 2006"

const recentContactWindow = 3 * 24 * time.Hour

// SuggestionBuilder turns clusters into named, ranked group suggestions.
type SuggestionBuilder struct{}

// Build returns one suggestion per cluster with at least two contacts whose
// contact set is not already an event group, sorted by priority descending.
func (SuggestionBuilder) Build(clusters []*Cluster, existing []GroupSuggestion, now time.Time) []GroupSuggestion {
	seen := make(map[string]bool)

	for _, g := range existing {
		if g.Type == GroupTypeEvent {
			seen[contactSetKey(g.ContactIDs)] = true
		}
	}

	timeframe := now.Format(TimeframeLayout)
	suggestions := make([]GroupSuggestion, 0, len(clusters))

	for _, c := range clusters {
		if len(c.Contacts) < 2 {
			continue
		}

		ids := make([]string, len(c.Contacts))
		for i, contact := range c.Contacts {
			ids[i] = contact.ID
		}

		key := contactSetKey(ids)
		if seen[key] {
			continue
		}

		seen[key] = true

		suggestions = append(suggestions, buildSuggestion(c, ids, timeframe, now))
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Priority > suggestions[j].Priority
	})

	return suggestions
}

func buildSuggestion(c *Cluster, ids []string, timeframe string, now time.Time) GroupSuggestion {
	primary := c.PrimaryEvent
	types := c.Types()

	venues := make([]string, len(c.Events))
	for i, e := range c.Events {
		venues[i] = e.Name
	}

	return GroupSuggestion{
		ID:          c.ID,
		Type:        GroupTypeEvent,
		SubType:     SubTypeFor(types),
		Name:        InferName(primary),
		Description: fmt.Sprintf("%d contacts near %s on %s", len(c.Contacts), primary.Name, timeframe),
		ContactIDs:  ids,
		Contacts:    c.Contacts,
		Confidence:  c.Confidence,
		Reason:      "Contacts found near " + primary.Name,
		EventData: &EventData{
			PrimaryVenue:  primary.Name,
			CenterPoint:   c.CenterPoint,
			Venues:        venues,
			AttendeeCount: len(c.Contacts),
			Radius:        c.Radius,
			Types:         types,
			Timeframe:     timeframe,
		},
		AutoGenerated: true,
		Priority:      Priority(c, now),
	}
}

// Priority ranks a cluster: more contacts, higher confidence, well rated and
// popular venues, and recently added contacts all raise it.
func Priority(c *Cluster, now time.Time) int {
	priority := min(len(c.Contacts)*10, 50)

	switch c.Confidence {
	case ConfidenceHigh:
		priority += 30
	case ConfidenceMedium:
		priority += 15
	}

	for _, e := range c.Events {
		if e.Rating != nil && *e.Rating > 4.0 {
			priority += 10
		}

		if e.UserRatingCount != nil && *e.UserRatingCount > 100 {
			priority += 5
		}
	}

	for i := range c.Contacts {
		if ts, ok := c.Contacts[i].Timestamp(); ok && now.Sub(ts) <= recentContactWindow {
			priority += 5
		}
	}

	return priority
}

// contactSetKey identifies a set of contact ids regardless of order.
func contactSetKey(ids []string) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)

	return strings.Join(sorted, "\x00")
}
