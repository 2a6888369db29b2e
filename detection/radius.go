// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package detection

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/cardscape/encounters/utils/textutils"
)

const (
	DefaultRadius   = 1000
	MinRadius       = 500
	MaxRadius       = 5000
	defaultCategory = "default"
)

// DefaultBaseRadii maps venue categories to the footprint, in meters, of a
// single gathering held there.
var DefaultBaseRadii = map[string]int{
	"convention_center":       2000,
	"expo_center":             2000,
	"conference_center":       2000,
	"stadium":                 1500,
	"arena":                   1500,
	"concert_hall":            800,
	"opera_house":             800,
	"performing_arts_theater": 500,
	"university":              3000,
	"business_center":         1000,
	"corporate_campus":        2000,
	"museum":                  600,
	"art_gallery":             400,
	"cultural_center":         1000,
	"lodging":                 500,
	"hotel":                   500,
	"resort":                  2000,
	defaultCategory:           DefaultRadius,
}

// DefaultCityFactors scales radii for cities whose venues are spread out
// (factor > 1) or packed together (factor < 1). Keys are folded city names.
var DefaultCityFactors = map[string]float64{
	"las vegas":     1.5,
	"orlando":       1.3,
	"austin":        1.2,
	"san francisco": 0.8,
	"new york":      0.7,
	"paris":         0.8,
	"barcelona":     0.8,
	"singapore":     0.9,
}

// RadiusPolicy selects how far apart two venues may be and still host the same gathering.
type RadiusPolicy struct {
	base        map[string]int
	cities      map[string]float64
	dflt        int
	minimum     int
	maximum     int
	fingerprint string
}

// RadiusOption customizes a RadiusPolicy.
type RadiusOption func(*RadiusPolicy)

// WithBaseRadii merges the given category radii over the defaults.
func WithBaseRadii(radii map[string]int) RadiusOption {
	return func(p *RadiusPolicy) {
		maps.Copy(p.base, radii)

		if r, ok := radii[defaultCategory]; ok {
			p.dflt = r
		}
	}
}

// WithDefaultRadius sets the radius used for unknown categories.
func WithDefaultRadius(meters int) RadiusOption {
	return func(p *RadiusPolicy) {
		p.dflt = meters
		p.base[defaultCategory] = meters
	}
}

// WithCityFactors merges the given city factors over the defaults.
func WithCityFactors(factors map[string]float64) RadiusOption {
	return func(p *RadiusPolicy) {
		for city, f := range factors {
			p.cities[textutils.LowerASCIIFolding(city)] = f
		}
	}
}

// WithRadiusBounds sets the inclusive clamp applied to every selected radius.
func WithRadiusBounds(minimum, maximum int) RadiusOption {
	return func(p *RadiusPolicy) {
		p.minimum = minimum
		p.maximum = maximum
	}
}

// NewRadiusPolicy returns a policy seeded with the default tables.
func NewRadiusPolicy(opts ...RadiusOption) *RadiusPolicy {
	p := &RadiusPolicy{
		base:    maps.Clone(DefaultBaseRadii),
		cities:  maps.Clone(DefaultCityFactors),
		dflt:    DefaultRadius,
		minimum: MinRadius,
		maximum: MaxRadius,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.fingerprint = p.computeFingerprint()

	return p
}

// Fingerprint identifies the tables and bounds of the policy. Two policies
// with the same fingerprint select the same radius for every input.
func (p *RadiusPolicy) Fingerprint() string {
	return p.fingerprint
}

func (p *RadiusPolicy) computeFingerprint() string {
	var b strings.Builder

	fmt.Fprintf(&b, "default=%d;min=%d;max=%d;", p.dflt, p.minimum, p.maximum)

	for _, category := range slices.Sorted(maps.Keys(p.base)) {
		fmt.Fprintf(&b, "base:%s=%d;", category, p.base[category])
	}

	for _, city := range slices.Sorted(maps.Keys(p.cities)) {
		fmt.Fprintf(&b, "city:%s=%g;", city, p.cities[city])
	}

	hash := sha256.Sum256([]byte(b.String()))

	return hex.EncodeToString(hash[:8])
}

// BaseRadius returns the radius for a single category, falling back to the default.
func (p *RadiusPolicy) BaseRadius(category string) int {
	if r, ok := p.base[category]; ok {
		return r
	}

	return p.dflt
}

// CityFactor returns the adjustment for the city, 1.0 when unknown.
func (p *RadiusPolicy) CityFactor(city string) float64 {
	if f, ok := p.cities[textutils.LowerASCIIFolding(city)]; ok {
		return f
	}

	return 1.0
}

// SelectRadius returns the radius in meters for a gathering at a venue with
// the given categories. The largest footprint wins; city is optional.
func (p *RadiusPolicy) SelectRadius(categories []string, city string) int {
	radius := 0
	for _, c := range categories {
		radius = max(radius, p.BaseRadius(c))
	}

	if len(categories) == 0 {
		radius = p.dflt
	}

	adjusted := float64(radius)
	if city != "" {
		adjusted *= p.CityFactor(city)
	}

	return min(max(int(math.Round(adjusted)), p.minimum), p.maximum)
}
