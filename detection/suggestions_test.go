// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package detection

import (
	"testing"
	"time"

	"github.com/cardscape/encounters/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferName(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		expected string
	}{
		{
			name:     "known venue with city",
			event:    Event{Name: "Las Vegas Convention Center", Vicinity: "3150 Paradise Rd, Las Vegas, NV"},
			expected: "CES in Las Vegas",
		},
		{
			name:     "known venue without city",
			event:    Event{Name: "Mandalay Bay Resort"},
			expected: "NAB Show / Other Tech Events",
		},
		{
			name:     "known venue matched case-insensitively",
			event:    Event{Name: "MOSCONE CENTER West", Vicinity: "800 Howard St, San Francisco, CA"},
			expected: "Various Tech Conferences in San Francisco",
		},
		{
			name:     "known venue matched without accents",
			event:    Event{Name: "Jacob Javíts Center", Vicinity: "429 11th Ave, New York, NY"},
			expected: "New York Conferences in New York",
		},
		{
			name:     "accented keyword keeps the venue name",
			event:    Event{Name: "Centro de Exposición Bicentenario", Vicinity: "Av. Italia, Montevideo, Uruguay"},
			expected: "Centro de Exposición Bicentenario",
		},
		{
			name:     "event keyword keeps the venue name",
			event:    Event{Name: "Austin Convention Center", Vicinity: "500 E Cesar Chavez St, Austin, TX"},
			expected: "Austin Convention Center",
		},
		{
			name:     "summit keyword",
			event:    Event{Name: "Web Summit Arena", Vicinity: "Lisboa, Portugal"},
			expected: "Web Summit Arena",
		},
		{
			name:     "city event",
			event:    Event{Name: "Fenway Park", Vicinity: "4 Jersey St, Boston, MA"},
			expected: "Boston Event",
		},
		{
			name:     "fallback to venue name",
			event:    Event{Name: "Fenway Park"},
			expected: "Fenway Park Event",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InferName(&tt.event))
		})
	}
}

func clusterWith(id string, cs []Contact, confidence Confidence, events ...*Event) *Cluster {
	return &Cluster{
		ID:           id,
		PrimaryEvent: events[0],
		Events:       events,
		Contacts:     cs,
		CenterPoint:  *events[0].Location,
		Radius:       2000,
		Confidence:   confidence,
	}
}

func TestPriority(t *testing.T) {
	recent := testNow.Add(-24 * time.Hour)
	old := testNow.Add(-10 * 24 * time.Hour)

	e := &Event{Rating: ptr(4.5), UserRatingCount: ptr(150), Location: &lvcc}
	plain := &Event{Rating: ptr(4.0), UserRatingCount: ptr(100), Location: &lvcc}

	cs := []Contact{
		{ID: "1", SubmittedAt: &recent},
		{ID: "2", CreatedAt: &recent},
		{ID: "3", SubmittedAt: &old, CreatedAt: &recent},
	}

	tests := []struct {
		name    string
		cluster *Cluster
		want    int
	}{
		{"contacts capped at 50", clusterWith("a", contacts("c", 7), ConfidenceLow, plain), 50},
		{"medium", clusterWith("a", contacts("c", 2), ConfidenceMedium, plain), 35},
		// 30 contacts + 30 high + 10 rating + 5 popularity + 10 recent
		{"high with popular venue and recent contacts", clusterWith("a", cs, ConfidenceHigh, e), 85},
		{"every venue counts", clusterWith("a", contacts("c", 2), ConfidenceLow, e, e), 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Priority(tt.cluster, testNow))
		})
	}
}

func TestSuggestionBuilder(t *testing.T) {
	venue := &Event{
		ID:       "lvcc",
		Name:     "Las Vegas Convention Center",
		Location: &lvcc,
		Types:    []string{"convention_center", "point_of_interest"},
		Rating:   ptr(4.6),
		Vicinity: "3150 Paradise Rd, Las Vegas, NV",
	}
	hall := &Event{
		ID:       "hall",
		Name:     "LVCC West Hall",
		Location: &spatial.Point{Lat: 36.1330, Lng: -115.1600},
		Types:    []string{"convention_center", "establishment"},
	}
	museum := &Event{
		ID:       "neon",
		Name:     "Neon Museum",
		Location: &spatial.Point{Lat: 36.1770, Lng: -115.1353},
		Types:    []string{"museum"},
	}

	clusters := []*Cluster{
		clusterWith("small", contacts("m", 2), ConfidenceLow, museum),
		clusterWith("big", contacts("c", 4), ConfidenceMedium, venue, hall),
		clusterWith("single", contacts("s", 1), ConfidenceHigh, museum),
	}

	suggestions := SuggestionBuilder{}.Build(clusters, nil, testNow)
	require.Len(t, suggestions, 2)

	big := suggestions[0]
	assert.Equal(t, "big", big.ID)
	assert.Equal(t, GroupTypeEvent, big.Type)
	assert.Equal(t, SubTypeConference, big.SubType)
	assert.Equal(t, "CES in Las Vegas", big.Name)
	assert.Equal(t, "4 contacts near Las Vegas Convention Center on Oct 15, 2026", big.Description)
	assert.Equal(t, "Contacts found near Las Vegas Convention Center", big.Reason)
	assert.Equal(t, []string{"c-0", "c-1", "c-2", "c-3"}, big.ContactIDs)
	assert.Equal(t, ConfidenceMedium, big.Confidence)
	assert.True(t, big.AutoGenerated)
	assert.Equal(t, 40+15+10, big.Priority)
	require.NotNil(t, big.EventData)
	assert.Equal(t, []string{"Las Vegas Convention Center", "LVCC West Hall"}, big.EventData.Venues)
	assert.Equal(t, []string{"convention_center", "point_of_interest", "establishment"}, big.EventData.Types)
	assert.Equal(t, 4, big.EventData.AttendeeCount)
	assert.Equal(t, 2000, big.EventData.Radius)
	assert.Equal(t, "Oct 15, 2026", big.EventData.Timeframe)

	small := suggestions[1]
	assert.Equal(t, "small", small.ID)
	assert.Equal(t, SubTypeCultural, small.SubType)
	assert.Equal(t, "Neon Museum Event", small.Name)
}

func TestSuggestionBuilderSkipsExistingGroups(t *testing.T) {
	e := &Event{Name: "Moscone Center", Location: &lvcc}
	cs := []Contact{{ID: "b"}, {ID: "a"}}

	existing := []GroupSuggestion{
		{Type: GroupTypeEvent, ContactIDs: []string{"a", "b"}},
	}

	assert.Empty(t, SuggestionBuilder{}.Build([]*Cluster{clusterWith("x", cs, ConfidenceLow, e)}, existing, testNow))

	// only event groups are considered
	existing[0].Type = "company"
	assert.Len(t, SuggestionBuilder{}.Build([]*Cluster{clusterWith("x", cs, ConfidenceLow, e)}, existing, testNow), 1)
}

func TestSuggestionBuilderSkipsDuplicateContactSets(t *testing.T) {
	e := &Event{Name: "Moscone Center", Location: &lvcc}

	clusters := []*Cluster{
		clusterWith("first", []Contact{{ID: "a"}, {ID: "b"}}, ConfidenceLow, e),
		clusterWith("second", []Contact{{ID: "b"}, {ID: "a"}}, ConfidenceHigh, e),
	}

	suggestions := SuggestionBuilder{}.Build(clusters, nil, testNow)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "first", suggestions[0].ID)
}
