// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package detection

import (
	"context"
	"log"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cardscape/encounters/spatial"
	"github.com/cardscape/encounters/utils/textutils"
)

// DefaultCacheTTL is how long memoized lookups are kept.
const DefaultCacheTTL = 24 * time.Hour

// Cache memoizes lookups between detection runs. A miss is reported with
// found == false and a nil error. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// LookupKey builds a cache key from coordinates rounded to an h3 cell, a
// radius and a category set. The category order does not matter.
func LookupKey(kind string, p spatial.Point, radius int, categories []string, extra ...string) (string, error) {
	cell, err := p.CellKey(spatial.CacheResolution)
	if err != nil {
		return "", err
	}

	cats := slices.Clone(categories)
	slices.Sort(cats)
	cats = slices.Compact(cats)

	parts := []string{kind, cell, strconv.Itoa(radius), strings.Join(cats, ",")}
	for _, e := range extra {
		parts = append(parts, textutils.LowerASCIIFolding(e))
	}

	return strings.Join(parts, ":"), nil
}

// cachedRadius memoizes RadiusPolicy lookups per seed venue. Keys carry the
// policy fingerprint so entries written under other radius tables are never
// served. Any cache failure falls back to the policy.
type cachedRadius struct {
	ctx    context.Context // scoped to a single Detect call
	policy *RadiusPolicy
	cache  Cache
	ttl    time.Duration
}

func (c *cachedRadius) radiusFor(e *Event) int {
	city := e.City()

	key, err := LookupKey("radius", *e.Location, 0, e.Types, city, c.policy.Fingerprint())
	if err != nil {
		return c.policy.SelectRadius(e.Types, city)
	}

	value, found, err := c.cache.Get(c.ctx, key)
	if err != nil {
		log.Printf("radius cache get %s failed - %s", key, err)
	} else if found {
		if radius, err := strconv.Atoi(string(value)); err == nil {
			return radius
		}
	}

	radius := c.policy.SelectRadius(e.Types, city)

	if err := c.cache.Set(c.ctx, key, []byte(strconv.Itoa(radius)), c.ttl); err != nil {
		log.Printf("radius cache set %s failed - %s", key, err)
	}

	return radius
}
