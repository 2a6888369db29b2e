// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package detection

import (
	"gonum.org/v1/gonum/stat"
)

// EventScore rates a single venue by rating, popularity and business status.
func EventScore(e *Event) float64 {
	score := 0.0

	if e.Rating != nil && *e.Rating > 0 {
		score += *e.Rating / maxRating * 0.4
	}

	if e.UserRatingCount != nil && *e.UserRatingCount > 0 {
		score += min(float64(*e.UserRatingCount)/100, 1) * 0.3
	}

	if e.BusinessStatus == BusinessStatusOperational {
		score += 0.3
	}

	return score
}

// ClassifyConfidence returns the confidence tier for a cluster with the given members.
func ClassifyConfidence(events []*Event) Confidence {
	if len(events) == 0 {
		return ConfidenceLow
	}

	scores := make([]float64, len(events))
	flagged := 0

	for i, e := range events {
		scores[i] = EventScore(e)

		if e.HighConfidence {
			flagged++
		}
	}

	avgScore := stat.Mean(scores, nil)
	highRatio := float64(flagged) / float64(len(events))

	switch {
	case avgScore > 0.7 && highRatio > 0.5:
		return ConfidenceHigh
	case avgScore > 0.5 && highRatio > 0.3:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// subTypeRules is evaluated top to bottom; the first rule with a matching
// category wins.
var subTypeRules = []struct {
	subType    SubType
	categories []string
}{
	{SubTypeConference, []string{"convention_center", "expo_center", "conference_center"}},
	{SubTypeSports, []string{"stadium", "arena"}},
	{SubTypeEntertainment, []string{"concert_hall", "performing_arts_theater", "theater", "opera_house"}},
	{SubTypeEducation, []string{"university", "school"}},
	{SubTypeCultural, []string{"museum", "art_gallery"}},
}

// SubTypeFor returns the category label for the union of a cluster's venue types.
func SubTypeFor(types []string) SubType {
	set := toSet(types)

	for _, rule := range subTypeRules {
		for _, c := range rule.categories {
			if set[c] {
				return rule.subType
			}
		}
	}

	return SubTypeBusiness
}
