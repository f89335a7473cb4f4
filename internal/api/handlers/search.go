// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/evolibrary/evolibrary/internal/catalog"
	"github.com/evolibrary/evolibrary/internal/download"
	"github.com/evolibrary/evolibrary/internal/indexer"
	"github.com/evolibrary/evolibrary/internal/metrics"
	"github.com/evolibrary/evolibrary/internal/models"
)

// SearchHandler serves the stateless search endpoints: catalog lookups,
// indexer fan-out, download submission and the recent-search history.
type SearchHandler struct {
	catalog     *catalog.Client
	indexers    *indexer.Service
	coordinator *download.Coordinator
	recent      *models.RecentSearchStore
	counters    *models.CounterStore
	metrics     *metrics.Manager
}

// NewSearchHandler constructs the search handler. metrics may be nil
// when the metrics server is disabled.
func NewSearchHandler(
	catalogClient *catalog.Client,
	indexers *indexer.Service,
	coordinator *download.Coordinator,
	recent *models.RecentSearchStore,
	counters *models.CounterStore,
	metricsManager *metrics.Manager,
) *SearchHandler {
	return &SearchHandler{
		catalog:     catalogClient,
		indexers:    indexers,
		coordinator: coordinator,
		recent:      recent,
		counters:    counters,
		metrics:     metricsManager,
	}
}

// Routes mounts the search endpoints.
func (h *SearchHandler) Routes(r chi.Router) {
	r.Post("/catalog", h.searchCatalog)
	r.Post("/books", h.searchBooks)
	r.Post("/download", h.submitDownload)
	r.Get("/recent", h.recentSearches)
	r.Get("/downloads/active", h.activeDownloads)
}

type catalogSearchRequest struct {
	Query    string `json:"query"`
	Language string `json:"language"`
}

func (h *SearchHandler) searchCatalog(w http.ResponseWriter, r *http.Request) {
	var req catalogSearchRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		RespondError(w, http.StatusBadRequest, "query is required")
		return
	}

	h.countSearch(r, "catalog")

	books, err := h.catalog.Search(r.Context(), query, req.Language)
	if err != nil {
		var searchErr *catalog.SearchError
		if errors.As(err, &searchErr) {
			RespondError(w, http.StatusBadGateway, searchErr.Error())
			return
		}
		RespondError(w, http.StatusInternalServerError, "Catalog search failed")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"items": books,
		"total": len(books),
		"query": query,
	})
}

type bookSearchRequest struct {
	Query      string `json:"query"`
	SearchType string `json:"search_type"`
}

func (h *SearchHandler) searchBooks(w http.ResponseWriter, r *http.Request) {
	var req bookSearchRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		RespondError(w, http.StatusBadRequest, "query is required")
		return
	}

	h.countSearch(r, "indexer")

	results, err := h.indexers.Search(r.Context(), query)
	if err != nil {
		var unavailable *indexer.UnavailableError
		if errors.As(err, &unavailable) {
			RespondError(w, http.StatusBadGateway, unavailable.Error())
			return
		}
		RespondError(w, http.StatusInternalServerError, "Indexer search failed")
		return
	}

	RespondJSON(w, http.StatusOK, indexer.Response{
		Results: results,
		Total:   len(results),
		Query:   query,
	})
}

type downloadRequest struct {
	DownloadURL string `json:"download_url"`
	Title       string `json:"title"`
	MediaType   string `json:"media_type"`
	FileFormat  string `json:"file_format"`
	IndexerID   int    `json:"indexer_id"`
}

func (h *SearchHandler) submitDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if h.metrics != nil {
		h.metrics.DownloadsTotal.Inc()
	}

	err := h.coordinator.Submit(r.Context(), download.Submission{
		DownloadURL: req.DownloadURL,
		Title:       req.Title,
		MediaType:   req.MediaType,
		FileFormat:  req.FileFormat,
		IndexerID:   req.IndexerID,
	})
	if err != nil {
		switch {
		case errors.Is(err, download.ErrMissingDownloadURL):
			RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, download.ErrAlreadySubmitting):
			RespondError(w, http.StatusConflict, err.Error())
		default:
			RespondError(w, http.StatusBadGateway, "Download submission failed")
		}
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{
		"status": "submitted",
		"title":  req.Title,
	})
}

func (h *SearchHandler) recentSearches(w http.ResponseWriter, r *http.Request) {
	searches, err := h.recent.List(r.Context())
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "Failed to load recent searches")
		return
	}

	RespondJSON(w, http.StatusOK, searches)
}

func (h *SearchHandler) activeDownloads(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]any{
		"in_flight": h.coordinator.InFlight(),
	})
}

func (h *SearchHandler) countSearch(r *http.Request, backend string) {
	if h.metrics != nil {
		h.metrics.SearchesTotal.WithLabelValues(backend).Inc()
	}
	if h.counters != nil {
		if _, err := h.counters.Increment(r.Context(), models.CounterSearches, 1); err != nil {
			log.Warn().Err(err).Msg("Failed to increment search counter")
		}
	}
}
