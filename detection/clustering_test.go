// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package detection

import (
	"testing"

	"github.com/cardscape/encounters/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuilder() *ClusterBuilder {
	b := NewClusterBuilder(NewRadiusPolicy(), NewSimilarityScorer())
	b.NewID = sequentialIDs()

	return b
}

func eventPtrs(events ...Event) []*Event {
	out := make([]*Event, len(events))
	for i := range events {
		out[i] = &events[i]
	}

	return out
}

func TestBuildMergesNearbySimilarEvents(t *testing.T) {
	a := conventionEvent("a", &lvcc, contacts("a", 2))
	b := conventionEvent("b", offsetNorth(lvcc, 50), contacts("b", 1))

	clusters := newTestBuilder().Build(eventPtrs(a, b), testNow)
	require.Len(t, clusters, 1)

	c := clusters[0]
	assert.Equal(t, "cluster-1", c.ID)
	assert.Equal(t, "a", c.PrimaryEvent.ID)
	assert.Len(t, c.Events, 2)
	assert.Len(t, c.Contacts, 3)
	assert.Equal(t, 3000, c.Radius) // convention center in Las Vegas
	assert.InDelta(t, lvcc.Lat+25/111195.0, c.CenterPoint.Lat, 1e-9)
	assert.Equal(t, testNow, c.TimeRange.Start)
	assert.Equal(t, testNow.AddDate(0, 0, 7), c.TimeRange.End)
}

func TestBuildKeepsDistantEventsApart(t *testing.T) {
	a := conventionEvent("a", &lvcc, contacts("a", 2))
	b := conventionEvent("b", offsetNorth(lvcc, 10000), contacts("b", 2))

	clusters := newTestBuilder().Build(eventPtrs(a, b), testNow)
	require.Len(t, clusters, 2)
	assert.Equal(t, "a", clusters[0].PrimaryEvent.ID)
	assert.Equal(t, "b", clusters[1].PrimaryEvent.ID)
}

func TestBuildEventsWithoutIDs(t *testing.T) {
	a := conventionEvent("", &lvcc, contacts("a", 2))
	b := conventionEvent("", offsetNorth(lvcc, 50), contacts("b", 2))
	far := conventionEvent("", offsetNorth(lvcc, 10000), contacts("far", 2))

	clusters := newTestBuilder().Build(eventPtrs(a, b, far), testNow)
	require.Len(t, clusters, 2)

	assert.Len(t, clusters[0].Events, 2)
	assert.Len(t, clusters[0].Contacts, 4)
	assert.Len(t, clusters[1].Events, 1)
	assert.Equal(t, "far-0", clusters[1].Contacts[0].ID)
}

func TestBuildRequiresSimilarity(t *testing.T) {
	a := conventionEvent("a", &lvcc, contacts("a", 2))
	parking := Event{
		ID:             "p",
		Name:           "Lot P",
		Location:       offsetNorth(lvcc, 10),
		Types:          []string{"parking"},
		ContactsNearby: contacts("p", 2),
	}

	clusters := newTestBuilder().Build(eventPtrs(a, parking), testNow)
	require.Len(t, clusters, 2)
	assert.Len(t, clusters[0].Events, 1)
}

func TestBuildDeduplicatesContacts(t *testing.T) {
	shared := contacts("x", 2)
	a := conventionEvent("a", &lvcc, shared)
	b := conventionEvent("b", offsetNorth(lvcc, 20), append([]Contact{shared[1]}, contacts("y", 1)...))

	clusters := newTestBuilder().Build(eventPtrs(a, b), testNow)
	require.Len(t, clusters, 1)

	ids := make([]string, 0, len(clusters[0].Contacts))
	for _, c := range clusters[0].Contacts {
		ids = append(ids, c.ID)
	}

	assert.Equal(t, []string{"x-0", "x-1", "y-0"}, ids)
}

func TestBuildDropsSparseLowConfidenceClusters(t *testing.T) {
	lonely := conventionEvent("a", &lvcc, contacts("a", 1))

	clusters := newTestBuilder().Build(eventPtrs(lonely), testNow)
	assert.Empty(t, clusters)
}

func TestBuildKeepsHighConfidenceClusterWithoutContacts(t *testing.T) {
	e := conventionEvent("a", &lvcc, nil)
	e.HighConfidence = true
	e.UserRatingCount = ptr(500)

	clusters := newTestBuilder().Build(eventPtrs(e), testNow)
	require.Len(t, clusters, 1)
	assert.Equal(t, ConfidenceHigh, clusters[0].Confidence)
	assert.Empty(t, clusters[0].Contacts)
}

func TestBuildUsesMovingCentroid(t *testing.T) {
	// a stadium outside the known cities has a 1500m radius. b sits 1400m
	// north of a, c sits 2100m north of a: c is out of reach of the seed but
	// within the radius of the centroid once b has been merged.
	stadium := func(id string, loc *spatial.Point) Event {
		return Event{
			ID:             id,
			Name:           "Estadio Centenario",
			Location:       loc,
			Types:          []string{"stadium"},
			BusinessStatus: BusinessStatusOperational,
			Vicinity:       "Av. Ricaldoni, Montevideo, Uruguay",
			ContactsNearby: contacts(id, 1),
		}
	}
	origin := spatial.Point{Lat: -34.8945, Lng: -56.1529}

	a := stadium("a", &origin)
	b := stadium("b", offsetNorth(origin, 1400))
	c := stadium("c", offsetNorth(origin, 2100))

	clusters := newTestBuilder().Build(eventPtrs(a, b, c), testNow)
	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Events, 3)
	assert.Equal(t, 1500, clusters[0].Radius)
}

func TestBuildEmpty(t *testing.T) {
	assert.Empty(t, newTestBuilder().Build(nil, testNow))
}
