// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package indexer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolibrary/evolibrary/internal/database"
	"github.com/evolibrary/evolibrary/internal/models"
)

func newTestService(t *testing.T) (*Service, *models.IndexerStore) {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := models.NewIndexerStore(db)
	return NewService(store, zerolog.Nop()), store
}

func addIndexer(t *testing.T, store *models.IndexerStore, name, baseURL string) {
	t.Helper()
	_, err := store.Create(context.Background(), name, baseURL, "key", true, 0, 5)
	require.NoError(t, err)
}

func TestServiceSearchMergesIndexers(t *testing.T) {
	t.Parallel()

	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"title": "Dune EPUB", "downloadUrl": "http://a/1", "seeders": 10}]`))
	}))
	defer first.Close()

	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{"title": "Dune MOBI", "link": "http://b/1", "seeders": 99}]}`))
	}))
	defer second.Close()

	svc, store := newTestService(t)
	addIndexer(t, store, "first", first.URL)
	addIndexer(t, store, "second", second.URL)

	results, err := svc.Search(context.Background(), "dune")
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Both match the query, so the higher seeder count ranks first.
	assert.Equal(t, "Dune MOBI", results[0].Title)
	assert.Equal(t, "Dune EPUB", results[1].Title)
}

func TestServiceSearchPartialFailureDegrades(t *testing.T) {
	t.Parallel()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"title": "Dune EPUB", "downloadUrl": "http://a/1", "seeders": 3}]`))
	}))
	defer healthy.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer broken.Close()

	svc, store := newTestService(t)
	addIndexer(t, store, "healthy", healthy.URL)
	addIndexer(t, store, "broken", broken.URL)

	results, err := svc.Search(context.Background(), "dune")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestServiceSearchAllFailedIsUnavailable(t *testing.T) {
	t.Parallel()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	svc, store := newTestService(t)
	addIndexer(t, store, "broken", broken.URL)

	_, err := svc.Search(context.Background(), "dune")
	require.Error(t, err)

	var unavailable *UnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestServiceSearchNoIndexersEnabled(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	_, err := svc.Search(context.Background(), "dune")
	require.Error(t, err)

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, err.Error(), "no indexers are enabled")
}

func TestServiceSearchFiltersVideoReleases(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"title": "Dune 2021 1080p BluRay x264", "downloadUrl": "http://a/1", "seeders": 500},
			{"title": "Dune Frank Herbert EPUB", "downloadUrl": "http://a/2", "seeders": 5}
		]`))
	}))
	defer srv.Close()

	svc, store := newTestService(t)
	addIndexer(t, store, "mixed", srv.URL)

	results, err := svc.Search(context.Background(), "dune")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Dune Frank Herbert EPUB", results[0].Title)
}
