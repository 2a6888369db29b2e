// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DuckDBCache persists entries in a DuckDB table so they survive restarts of
// the command line tool.
type DuckDBCache struct {
	db  *sql.DB
	now func() time.Time
}

// NewDuckDBCache creates a cache on top of an open DuckDB connection.
// CreateSchema must be called before use.
func NewDuckDBCache(db *sql.DB) *DuckDBCache {
	return &DuckDBCache{db: db, now: time.Now}
}

// DB returns the underlying database connection.
func (c *DuckDBCache) DB() *sql.DB {
	return c.db
}

// CreateSchema creates the cache_entries table.
func (c *DuckDBCache) CreateSchema() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS cache_entries (
			key VARCHAR PRIMARY KEY,
			value BLOB NOT NULL,
			expires_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating cache schema: %w", err)
	}

	return nil
}

func (c *DuckDBCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value     []byte
		expiresAt sql.NullTime
	)

	err := c.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry %s: %w", key, err)
	}

	if expiresAt.Valid && !c.now().UTC().Before(expiresAt.Time.UTC()) {
		return nil, false, nil
	}

	return value, true, nil
}

// Set stores value under key. A non-positive ttl never expires.
func (c *DuckDBCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: c.now().UTC().Add(ttl), Valid: true}
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)`,
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}

	return nil
}

// Purge deletes expired entries and returns how many were removed.
func (c *DuckDBCache) Purge(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		c.now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("purging cache entries: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged entries: %w", err)
	}

	return n, nil
}

// Count returns the number of stored entries, expired ones included.
func (c *DuckDBCache) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}

	return n, nil
}
