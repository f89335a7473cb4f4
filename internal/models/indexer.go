// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evolibrary/evolibrary/internal/dbinterface"
)

// ErrIndexerNotFound is returned when the requested indexer does not exist.
var ErrIndexerNotFound = errors.New("indexer not found")

// Indexer is a configured download-source aggregator (Prowlarr or Jackett
// instance) queried by the indexer search service.
type Indexer struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	BaseURL        string    `json:"base_url"`
	APIKey         string    `json:"-"`
	Enabled        bool      `json:"enabled"`
	Priority       int       `json:"priority"`
	TimeoutSeconds int       `json:"timeout_seconds"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IndexerStore persists indexer configurations.
type IndexerStore struct {
	db dbinterface.Querier
}

// NewIndexerStore constructs an indexer store.
func NewIndexerStore(db dbinterface.Querier) *IndexerStore {
	return &IndexerStore{db: db}
}

// Create stores a new indexer configuration.
func (s *IndexerStore) Create(ctx context.Context, name, baseURL, apiKey string, enabled bool, priority, timeoutSeconds int) (*Indexer, error) {
	name = strings.TrimSpace(name)
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if name == "" {
		return nil, fmt.Errorf("indexer name is required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("indexer base URL is required")
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}

	const query = `
		INSERT INTO indexers (name, base_url, api_key, enabled, priority, timeout_seconds)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, created_at, updated_at
	`

	indexer := &Indexer{
		Name:           name,
		BaseURL:        baseURL,
		APIKey:         apiKey,
		Enabled:        enabled,
		Priority:       priority,
		TimeoutSeconds: timeoutSeconds,
	}

	err := s.db.QueryRowContext(ctx, query, name, baseURL, apiKey, enabled, priority, timeoutSeconds).
		Scan(&indexer.ID, &indexer.CreatedAt, &indexer.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create indexer: %w", err)
	}

	return indexer, nil
}

// Get returns a single indexer by ID.
func (s *IndexerStore) Get(ctx context.Context, id int) (*Indexer, error) {
	const query = `
		SELECT id, name, base_url, api_key, enabled, priority, timeout_seconds, created_at, updated_at
		FROM indexers WHERE id = ?
	`

	indexer := &Indexer{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&indexer.ID,
		&indexer.Name,
		&indexer.BaseURL,
		&indexer.APIKey,
		&indexer.Enabled,
		&indexer.Priority,
		&indexer.TimeoutSeconds,
		&indexer.CreatedAt,
		&indexer.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrIndexerNotFound
		}
		return nil, fmt.Errorf("get indexer: %w", err)
	}

	return indexer, nil
}

// List returns all indexers ordered by priority.
func (s *IndexerStore) List(ctx context.Context) ([]*Indexer, error) {
	return s.list(ctx, false)
}

// ListEnabled returns only enabled indexers ordered by priority.
func (s *IndexerStore) ListEnabled(ctx context.Context) ([]*Indexer, error) {
	return s.list(ctx, true)
}

func (s *IndexerStore) list(ctx context.Context, enabledOnly bool) ([]*Indexer, error) {
	query := `
		SELECT id, name, base_url, api_key, enabled, priority, timeout_seconds, created_at, updated_at
		FROM indexers
	`
	if enabledOnly {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY priority DESC, name COLLATE NOCASE"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list indexers: %w", err)
	}
	defer rows.Close()

	var indexers []*Indexer
	for rows.Next() {
		indexer := &Indexer{}
		if err := rows.Scan(
			&indexer.ID,
			&indexer.Name,
			&indexer.BaseURL,
			&indexer.APIKey,
			&indexer.Enabled,
			&indexer.Priority,
			&indexer.TimeoutSeconds,
			&indexer.CreatedAt,
			&indexer.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan indexer: %w", err)
		}
		indexers = append(indexers, indexer)
	}

	return indexers, rows.Err()
}

// Update replaces the mutable fields of an indexer.
func (s *IndexerStore) Update(ctx context.Context, indexer *Indexer) error {
	if indexer == nil {
		return fmt.Errorf("indexer cannot be nil")
	}

	const query = `
		UPDATE indexers
		SET name = ?, base_url = ?, api_key = ?, enabled = ?, priority = ?, timeout_seconds = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		indexer.Name,
		strings.TrimRight(indexer.BaseURL, "/"),
		indexer.APIKey,
		indexer.Enabled,
		indexer.Priority,
		indexer.TimeoutSeconds,
		indexer.ID,
	)
	if err != nil {
		return fmt.Errorf("update indexer: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update indexer rows affected: %w", err)
	}
	if affected == 0 {
		return ErrIndexerNotFound
	}

	return nil
}

// Delete removes an indexer configuration.
func (s *IndexerStore) Delete(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM indexers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete indexer: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete indexer rows affected: %w", err)
	}
	if affected == 0 {
		return ErrIndexerNotFound
	}

	return nil
}
