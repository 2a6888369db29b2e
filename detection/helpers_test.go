// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package detection

import (
	"fmt"
	"time"

	"github.com/cardscape/encounters/spatial"
)

var testNow = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T {
	return &v
}

func contacts(prefix string, n int) []Contact {
	out := make([]Contact, n)
	for i := range out {
		out[i] = Contact{
			ID:       fmt.Sprintf("%s-%d", prefix, i),
			Location: &spatial.Point{Lat: 0, Lng: 0},
		}
	}

	return out
}

// offsetNorth returns a point the given meters north of p.
func offsetNorth(p spatial.Point, meters float64) *spatial.Point {
	return &spatial.Point{Lat: p.Lat + meters/111195.0, Lng: p.Lng}
}

var lvcc = spatial.Point{Lat: 36.1316, Lng: -115.1517}

func conventionEvent(id string, loc *spatial.Point, nearby []Contact) Event {
	return Event{
		ID:             id,
		Name:           "Las Vegas Convention Center",
		Location:       loc,
		Types:          []string{"convention_center"},
		Rating:         ptr(4.5),
		BusinessStatus: BusinessStatusOperational,
		Vicinity:       "3150 Paradise Rd, Las Vegas, NV",
		ContactsNearby: nearby,
	}
}

func sequentialIDs() func() string {
	n := 0

	return func() string {
		n++

		return fmt.Sprintf("cluster-%d", n)
	}
}

func testDetector(opts ...Option) *Detector {
	opts = append([]Option{
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(sequentialIDs()),
	}, opts...)

	return NewDetector(opts...)
}
