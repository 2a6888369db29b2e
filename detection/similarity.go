// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package detection

import "math"

// MergeThreshold is the minimum similarity for two nearby events to be merged.
const MergeThreshold = 0.6

const (
	typeWeight   = 0.4
	nameWeight   = 0.3
	ratingWeight = 0.2
	statusWeight = 0.1
	maxRating    = 5.0
)

// SimilarityScorer compares two events.
type SimilarityScorer struct {
	Threshold float64
}

// NewSimilarityScorer returns a scorer using MergeThreshold.
func NewSimilarityScorer() *SimilarityScorer {
	return &SimilarityScorer{Threshold: MergeThreshold}
}

// Similarity returns a score in [0, 1] blending category overlap, name
// similarity, rating proximity and business status agreement.
func (s *SimilarityScorer) Similarity(a, b *Event) float64 {
	score := typeWeight*TypeOverlap(a.Types, b.Types) +
		nameWeight*NameSimilarity(a.Name, b.Name)

	if a.Rating != nil && b.Rating != nil {
		score += ratingWeight * (1 - math.Abs(*a.Rating-*b.Rating)/maxRating)
	}

	if a.BusinessStatus == b.BusinessStatus {
		score += statusWeight
	}

	// drop float noise so identical events score exactly 1
	score = math.Round(score*1e9) / 1e9

	return min(max(score, 0), 1)
}

// Similar reports whether the two events score at or above the threshold.
func (s *SimilarityScorer) Similar(a, b *Event) bool {
	return s.Similarity(a, b) >= s.Threshold
}

// TypeOverlap returns |a ∩ b| / max(|a|, |b|) over the distinct categories.
// Two empty sets are identical.
func TypeOverlap(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)

	largest := max(len(setA), len(setB))
	if largest == 0 {
		return 1.0
	}

	shared := 0

	for t := range setA {
		if setB[t] {
			shared++
		}
	}

	return float64(shared) / float64(largest)
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}

	return set
}

// NameSimilarity returns 1 - levenshtein(a, b) / max(len(a), len(b)) over runes.
// Two empty names are identical.
func NameSimilarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1.0
	}

	return 1.0 - float64(Levenshtein(a, b))/float64(longest)
}

// Levenshtein calculates the edit distance between two strings, with unit cost
// insertions, deletions and substitutions.
func Levenshtein(s1, s2 string) int {
	runes1 := []rune(s1)
	runes2 := []rune(s2)

	// two rolling rows of the distance matrix
	prev := make([]int, len(runes2)+1)
	curr := make([]int, len(runes2)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(runes1); i++ {
		curr[0] = i

		for j := 1; j <= len(runes2); j++ {
			cost := 1
			if runes1[i-1] == runes2[j-1] {
				cost = 0
			}

			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}

		prev, curr = curr, prev
	}

	return prev[len(runes2)]
}
