// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/evolibrary/evolibrary/internal/indexer"
	"github.com/evolibrary/evolibrary/internal/models"
)

// IndexersHandler manages the configured download-source aggregators.
type IndexersHandler struct {
	store   *models.IndexerStore
	service *indexer.Service
}

// NewIndexersHandler constructs the indexers handler.
func NewIndexersHandler(store *models.IndexerStore, service *indexer.Service) *IndexersHandler {
	return &IndexersHandler{store: store, service: service}
}

// Routes mounts the indexer CRUD and connectivity-test endpoints.
func (h *IndexersHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{indexerID}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
		r.Post("/test", h.test)
	})
}

type indexerRequest struct {
	Name           string `json:"name"`
	BaseURL        string `json:"base_url"`
	APIKey         string `json:"api_key"`
	Enabled        bool   `json:"enabled"`
	Priority       int    `json:"priority"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

func (h *IndexersHandler) list(w http.ResponseWriter, r *http.Request) {
	indexers, err := h.store.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list indexers")
		RespondError(w, http.StatusInternalServerError, "Failed to list indexers")
		return
	}

	RespondJSON(w, http.StatusOK, indexers)
}

func (h *IndexersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req indexerRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.store.Create(r.Context(), req.Name, req.BaseURL, req.APIKey, req.Enabled, req.Priority, req.TimeoutSeconds)
	if err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	RespondJSON(w, http.StatusCreated, created)
}

func (h *IndexersHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.indexerID(w, r)
	if !ok {
		return
	}

	idx, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrIndexerNotFound) {
			RespondError(w, http.StatusNotFound, "Indexer not found")
			return
		}
		RespondError(w, http.StatusInternalServerError, "Failed to load indexer")
		return
	}

	RespondJSON(w, http.StatusOK, idx)
}

func (h *IndexersHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.indexerID(w, r)
	if !ok {
		return
	}

	var req indexerRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	existing, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrIndexerNotFound) {
			RespondError(w, http.StatusNotFound, "Indexer not found")
			return
		}
		RespondError(w, http.StatusInternalServerError, "Failed to load indexer")
		return
	}

	existing.Name = req.Name
	existing.BaseURL = req.BaseURL
	if req.APIKey != "" {
		existing.APIKey = req.APIKey
	}
	existing.Enabled = req.Enabled
	existing.Priority = req.Priority
	existing.TimeoutSeconds = req.TimeoutSeconds

	if err := h.store.Update(r.Context(), existing); err != nil {
		if errors.Is(err, models.ErrIndexerNotFound) {
			RespondError(w, http.StatusNotFound, "Indexer not found")
			return
		}
		RespondError(w, http.StatusInternalServerError, "Failed to update indexer")
		return
	}

	RespondJSON(w, http.StatusOK, existing)
}

func (h *IndexersHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.indexerID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrIndexerNotFound) {
			RespondError(w, http.StatusNotFound, "Indexer not found")
			return
		}
		RespondError(w, http.StatusInternalServerError, "Failed to delete indexer")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *IndexersHandler) test(w http.ResponseWriter, r *http.Request) {
	id, ok := h.indexerID(w, r)
	if !ok {
		return
	}

	idx, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrIndexerNotFound) {
			RespondError(w, http.StatusNotFound, "Indexer not found")
			return
		}
		RespondError(w, http.StatusInternalServerError, "Failed to load indexer")
		return
	}

	if err := h.service.TestConnection(r.Context(), idx); err != nil {
		RespondJSON(w, http.StatusOK, map[string]any{
			"reachable": false,
			"error":     err.Error(),
		})
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{"reachable": true})
}

func (h *IndexersHandler) indexerID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "indexerID"))
	if err != nil || id <= 0 {
		RespondError(w, http.StatusBadRequest, "Invalid indexer ID")
		return 0, false
	}
	return id, true
}
