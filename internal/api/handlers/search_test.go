// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolibrary/evolibrary/internal/catalog"
	"github.com/evolibrary/evolibrary/internal/database"
	"github.com/evolibrary/evolibrary/internal/download"
	"github.com/evolibrary/evolibrary/internal/indexer"
	"github.com/evolibrary/evolibrary/internal/models"
	"github.com/evolibrary/evolibrary/internal/notify"
)

type fakeGateway struct {
	submissions []download.Submission
	err         error
}

func (g *fakeGateway) Submit(ctx context.Context, sub download.Submission) error {
	g.submissions = append(g.submissions, sub)
	return g.err
}

type searchFixture struct {
	db       *database.DB
	indexers *models.IndexerStore
	counters *models.CounterStore
	recent   *models.RecentSearchStore
	gateway  *fakeGateway
	router   *chi.Mux
}

func newSearchFixture(t *testing.T, catalogURL string) *searchFixture {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &searchFixture{
		db:       db,
		indexers: models.NewIndexerStore(db),
		counters: models.NewCounterStore(db),
		recent:   models.NewRecentSearchStore(db),
		gateway:  &fakeGateway{},
	}

	logger := zerolog.Nop()
	catalogClient := catalog.NewClient(catalogURL, "", logger)
	indexerService := indexer.NewService(f.indexers, logger)
	coordinator := download.NewCoordinator(f.gateway, f.counters, notify.NewNotifier(), logger)

	handler := NewSearchHandler(catalogClient, indexerService, coordinator, f.recent, f.counters, nil)

	f.router = chi.NewRouter()
	f.router.Route("/api/search", handler.Routes)

	return f
}

func (f *searchFixture) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *searchFixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *searchFixture) addIndexer(t *testing.T, baseURL string) {
	t.Helper()

	_, err := f.indexers.Create(context.Background(), "test", baseURL, "key", true, 0, 30)
	require.NoError(t, err)
}

func TestSearchCatalogEndpoint(t *testing.T) {
	catalogStub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items": [{"id": "vol1", "volumeInfo": {"title": "Dune", "authors": ["Frank Herbert"]}}]}`))
	}))
	defer catalogStub.Close()

	f := newSearchFixture(t, catalogStub.URL)

	rec := f.post(t, "/api/search/catalog", map[string]string{"query": "dune"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []catalog.Book `json:"items"`
		Total int            `json:"total"`
		Query string         `json:"query"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Dune", resp.Items[0].Title)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "dune", resp.Query)

	// The search counter is bumped per request
	count, err := f.counters.Get(context.Background(), models.CounterSearches)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSearchCatalogUpstreamError(t *testing.T) {
	catalogStub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer catalogStub.Close()

	f := newSearchFixture(t, catalogStub.URL)

	rec := f.post(t, "/api/search/catalog", map[string]string{"query": "dune"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSearchCatalogRequiresQuery(t *testing.T) {
	f := newSearchFixture(t, "http://127.0.0.1:0")

	rec := f.post(t, "/api/search/catalog", map[string]string{"query": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchBooksReturnsResults(t *testing.T) {
	indexerStub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"title": "Dune.epub", "downloadUrl": "http://example.com/dune", "seeders": 12}]`))
	}))
	defer indexerStub.Close()

	f := newSearchFixture(t, "http://127.0.0.1:0")
	f.addIndexer(t, indexerStub.URL)

	rec := f.post(t, "/api/search/books", map[string]string{"query": "dune"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp indexer.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Dune.epub", resp.Results[0].Title)
}

func TestSearchBooksIndexersUnavailable(t *testing.T) {
	// Error status with an empty body means no usable results anywhere.
	indexerStub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "", http.StatusBadRequest)
	}))
	defer indexerStub.Close()

	f := newSearchFixture(t, "http://127.0.0.1:0")
	f.addIndexer(t, indexerStub.URL)

	rec := f.post(t, "/api/search/books", map[string]string{"query": "dune"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "indexers unavailable")
}

func TestSearchBooksZeroMatchesIsSuccess(t *testing.T) {
	indexerStub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer indexerStub.Close()

	f := newSearchFixture(t, "http://127.0.0.1:0")
	f.addIndexer(t, indexerStub.URL)

	rec := f.post(t, "/api/search/books", map[string]string{"query": "dune"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp indexer.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Results)
	assert.Zero(t, resp.Total)
}

func TestSubmitDownload(t *testing.T) {
	f := newSearchFixture(t, "http://127.0.0.1:0")

	rec := f.post(t, "/api/search/download", map[string]any{
		"download_url": "http://example.com/dune.torrent",
		"title":        "Dune",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.gateway.submissions, 1)
	assert.Equal(t, "Dune", f.gateway.submissions[0].Title)

	count, err := f.counters.Get(context.Background(), models.CounterDownloads)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSubmitDownloadMissingURL(t *testing.T) {
	f := newSearchFixture(t, "http://127.0.0.1:0")

	rec := f.post(t, "/api/search/download", map[string]string{"title": "Dune"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.gateway.submissions)
}

func TestRecentSearchesEndpoint(t *testing.T) {
	f := newSearchFixture(t, "http://127.0.0.1:0")

	require.NoError(t, f.recent.Record(context.Background(), "dune"))
	require.NoError(t, f.recent.Record(context.Background(), "hyperion"))

	rec := f.get(t, "/api/search/recent")
	require.Equal(t, http.StatusOK, rec.Code)

	var searches []models.RecentSearch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &searches))
	require.Len(t, searches, 2)
	assert.Equal(t, "hyperion", searches[0].Query)
}

func TestActiveDownloadsEndpoint(t *testing.T) {
	f := newSearchFixture(t, "http://127.0.0.1:0")

	rec := f.get(t, "/api/search/downloads/active")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		InFlight []string `json:"in_flight"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.InFlight)
}
