// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/evolibrary/evolibrary/internal/dbinterface"
)

// recentSearchCap bounds the history to the 10 most recent distinct queries.
const recentSearchCap = 10

// RecentSearch is one entry of the bounded search history shown on the
// search page for quick re-triggering.
type RecentSearch struct {
	Query      string    `json:"query"`
	SearchedAt time.Time `json:"searchedAt"`
}

// RecentSearchStore persists the bounded recent-search history.
type RecentSearchStore struct {
	db dbinterface.Querier
}

// NewRecentSearchStore constructs a recent search store.
func NewRecentSearchStore(db dbinterface.Querier) *RecentSearchStore {
	return &RecentSearchStore{db: db}
}

// Record inserts query at the head of the history, de-duplicated by exact
// query text, and trims anything beyond the cap.
func (s *RecentSearchStore) Record(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return fmt.Errorf("query cannot be empty")
	}

	// Re-insert rather than update in place so a repeated query gets a
	// fresh id and sorts to the head even within the same timestamp.
	if _, err := s.db.ExecContext(ctx, "DELETE FROM recent_searches WHERE query = ?", query); err != nil {
		return fmt.Errorf("record recent search: %w", err)
	}

	const insert = `INSERT INTO recent_searches (query, searched_at) VALUES (?, CURRENT_TIMESTAMP)`
	if _, err := s.db.ExecContext(ctx, insert, query); err != nil {
		return fmt.Errorf("record recent search: %w", err)
	}

	const trim = `
		DELETE FROM recent_searches
		WHERE id NOT IN (
			SELECT id FROM recent_searches ORDER BY searched_at DESC, id DESC LIMIT ?
		)
	`
	if _, err := s.db.ExecContext(ctx, trim, recentSearchCap); err != nil {
		return fmt.Errorf("trim recent searches: %w", err)
	}

	return nil
}

// List returns the history, newest first.
func (s *RecentSearchStore) List(ctx context.Context) ([]RecentSearch, error) {
	const query = `
		SELECT query, searched_at FROM recent_searches
		ORDER BY searched_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, recentSearchCap)
	if err != nil {
		return nil, fmt.Errorf("list recent searches: %w", err)
	}
	defer rows.Close()

	searches := make([]RecentSearch, 0, recentSearchCap)
	for rows.Next() {
		var rs RecentSearch
		if err := rows.Scan(&rs.Query, &rs.SearchedAt); err != nil {
			return nil, fmt.Errorf("scan recent search: %w", err)
		}
		searches = append(searches, rs)
	}

	return searches, rows.Err()
}
