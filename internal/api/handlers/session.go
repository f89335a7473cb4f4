// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evolibrary/evolibrary/internal/search"
)

// SessionHandler exposes the interactive search session: one controller
// instance holding the search-page state for this single-user server.
type SessionHandler struct {
	controller *search.Controller
}

// NewSessionHandler constructs the session handler.
func NewSessionHandler(controller *search.Controller) *SessionHandler {
	return &SessionHandler{controller: controller}
}

// Routes mounts the session endpoints.
func (h *SessionHandler) Routes(r chi.Router) {
	r.Get("/", h.state)
	r.Put("/mode", h.setMode)
	r.Put("/query", h.setQuery)
	r.Put("/language", h.setLanguage)
	r.Post("/submit", h.submit)
	r.Post("/cancel", h.cancel)
	r.Post("/find-downloads", h.findDownloads)
}

func (h *SessionHandler) state(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.controller.Snapshot())
}

type setModeRequest struct {
	Mode search.Mode `json:"mode"`
}

func (h *SessionHandler) setMode(w http.ResponseWriter, r *http.Request) {
	var req setModeRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !search.ValidMode(req.Mode) {
		RespondError(w, http.StatusBadRequest, "mode must be one of idle, catalog, direct")
		return
	}

	h.controller.SetMode(req.Mode)
	RespondJSON(w, http.StatusOK, h.controller.Snapshot())
}

type setQueryRequest struct {
	Query string `json:"query"`
}

func (h *SessionHandler) setQuery(w http.ResponseWriter, r *http.Request) {
	var req setQueryRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.controller.SetQuery(req.Query)
	RespondJSON(w, http.StatusOK, h.controller.Snapshot())
}

type setLanguageRequest struct {
	Language string `json:"language"`
}

func (h *SessionHandler) setLanguage(w http.ResponseWriter, r *http.Request) {
	var req setLanguageRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.controller.SetLanguage(req.Language)
	RespondJSON(w, http.StatusOK, h.controller.Snapshot())
}

func (h *SessionHandler) submit(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Submit(r.Context()); err != nil {
		if errors.Is(err, search.ErrQueryTooShort) {
			RespondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		RespondError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	RespondJSON(w, http.StatusOK, h.controller.Snapshot())
}

func (h *SessionHandler) cancel(w http.ResponseWriter, r *http.Request) {
	h.controller.CancelSearch()
	RespondJSON(w, http.StatusOK, h.controller.Snapshot())
}

type findDownloadsRequest struct {
	ID string `json:"id"`
}

func (h *SessionHandler) findDownloads(w http.ResponseWriter, r *http.Request) {
	var req findDownloadsRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	snapshot := h.controller.Snapshot()
	for _, book := range snapshot.CatalogResults {
		if book.ID == req.ID {
			h.controller.FindDownloads(book)
			RespondJSON(w, http.StatusOK, h.controller.Snapshot())
			return
		}
	}

	RespondError(w, http.StatusNotFound, "catalog result not found in current session")
}
