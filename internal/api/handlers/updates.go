// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/evolibrary/evolibrary/internal/update"
)

// UpdatesHandler exposes the release checker.
type UpdatesHandler struct {
	checker *update.Checker
}

// NewUpdatesHandler constructs the updates handler. checker may be nil
// when update checks are disabled.
func NewUpdatesHandler(checker *update.Checker) *UpdatesHandler {
	return &UpdatesHandler{checker: checker}
}

// Routes mounts the update endpoints.
func (h *UpdatesHandler) Routes(r chi.Router) {
	r.Get("/latest", h.latest)
	r.Post("/check", h.check)
}

func (h *UpdatesHandler) latest(w http.ResponseWriter, r *http.Request) {
	if h.checker == nil {
		RespondError(w, http.StatusNotFound, "Update checks are disabled")
		return
	}

	RespondJSON(w, http.StatusOK, h.checker.Status())
}

func (h *UpdatesHandler) check(w http.ResponseWriter, r *http.Request) {
	if h.checker == nil {
		RespondError(w, http.StatusNotFound, "Update checks are disabled")
		return
	}

	if err := h.checker.Check(r.Context()); err != nil {
		log.Warn().Err(err).Msg("Manual update check failed")
		RespondError(w, http.StatusBadGateway, "Update check failed")
		return
	}

	RespondJSON(w, http.StatusOK, h.checker.Status())
}
