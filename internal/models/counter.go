// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/evolibrary/evolibrary/internal/dbinterface"
)

// Well-known counter keys. The achievement engine reads these; the search
// controller and download coordinator write them.
const (
	CounterSearches  = "search_count"
	CounterDownloads = "download_count"
)

// CounterStore persists small monotonic counters.
type CounterStore struct {
	db dbinterface.Querier
}

// NewCounterStore constructs a counter store.
func NewCounterStore(db dbinterface.Querier) *CounterStore {
	return &CounterStore{db: db}
}

// Get returns the counter value for key, zero if the key has never been set.
func (s *CounterStore) Get(ctx context.Context, key string) (int64, error) {
	if strings.TrimSpace(key) == "" {
		return 0, fmt.Errorf("counter key cannot be empty")
	}

	var value int64
	err := s.db.QueryRowContext(ctx, "SELECT value FROM counters WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("get counter %q: %w", key, err)
	}

	return value, nil
}

// Set stores an absolute counter value.
func (s *CounterStore) Set(ctx context.Context, key string, value int64) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("counter key cannot be empty")
	}

	const query = `
		INSERT INTO counters (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("set counter %q: %w", key, err)
	}

	return nil
}

// Increment adds delta to the counter and returns the new value.
func (s *CounterStore) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	if strings.TrimSpace(key) == "" {
		return 0, fmt.Errorf("counter key cannot be empty")
	}

	const query = `
		INSERT INTO counters (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = counters.value + excluded.value, updated_at = CURRENT_TIMESTAMP
		RETURNING value
	`

	var value int64
	if err := s.db.QueryRowContext(ctx, query, key, delta).Scan(&value); err != nil {
		return 0, fmt.Errorf("increment counter %q: %w", key, err)
	}

	return value, nil
}
