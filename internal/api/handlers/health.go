// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evolibrary/evolibrary/internal/database"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db *database.DB
}

// NewHealthHandler constructs a health handler.
func NewHealthHandler(db *database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Routes mounts the health endpoints.
func (h *HealthHandler) Routes(r chi.Router) {
	r.Get("/liveness", h.liveness)
	r.Get("/readiness", h.readiness)
}

func (h *HealthHandler) liveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *HealthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		RespondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
