// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

// Package cache provides implementations of detection.Cache.
package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cardscape/encounters/detection"
)

var (
	_ detection.Cache = (*MemoryCache)(nil)
	_ detection.Cache = (*RedisCache)(nil)
	_ detection.Cache = (*DuckDBCache)(nil)
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process cache with per-entry expiry.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}

	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)

		return nil, false, nil
	}

	return slices.Clone(entry.value), true, nil
}

// Set stores value under key. A non-positive ttl never expires.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{value: slices.Clone(value)}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}

	c.entries[key] = entry

	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
