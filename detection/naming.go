// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package detection

import (
	"strings"

	"github.com/cardscape/encounters/utils/textutils"
)

// eventKeywords mark venue names that already read as an event name.
var eventKeywords = []string{"convention", "conference", "expo", "summit", "congress"}

// KnownVenue maps a venue name fragment to the gathering usually held there.
type KnownVenue struct {
	Fragment string
	Label    string
}

// KnownVenues is a heuristic lookup evaluated top to bottom against the folded
// venue name. It only reflects what is typically hosted at each venue.
var KnownVenues = []KnownVenue{
	{"las vegas convention center", "CES"},
	{"mandalay bay", "NAB Show / Other Tech Events"},
	{"moscone center", "Various Tech Conferences"},
	{"jacob javits center", "New York Conferences"},
	{"orange county convention center", "Orlando Events"},
}

// CityFromVicinity returns the last-but-one comma separated segment of an
// address, e.g. "Las Vegas" in "3150 Paradise Rd, Las Vegas, NV".
func CityFromVicinity(vicinity string) string {
	parts := strings.Split(vicinity, ",")
	if len(parts) < 2 {
		return ""
	}

	return strings.TrimSpace(parts[len(parts)-2])
}

// InferName names the gathering held at the cluster's primary venue.
//
// Known venues are checked before the event keywords, since several of them
// ("Las Vegas Convention Center") contain a keyword themselves.
func InferName(primary *Event) string {
	city := primary.City()

	for _, venue := range KnownVenues {
		if textutils.ContainsFold(primary.Name, venue.Fragment) {
			if city != "" {
				return venue.Label + " in " + city
			}

			return venue.Label
		}
	}

	for _, keyword := range eventKeywords {
		if textutils.ContainsFold(primary.Name, keyword) {
			return primary.Name
		}
	}

	if city != "" {
		return city + " Event"
	}

	return primary.Name + " Event"
}
