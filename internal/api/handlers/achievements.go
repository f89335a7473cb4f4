// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/evolibrary/evolibrary/internal/achievements"
)

// AchievementsHandler serves the progress system.
type AchievementsHandler struct {
	service *achievements.Service
}

// NewAchievementsHandler constructs the achievements handler.
func NewAchievementsHandler(service *achievements.Service) *AchievementsHandler {
	return &AchievementsHandler{service: service}
}

// Routes mounts the achievement endpoints.
func (h *AchievementsHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/progress", h.progress)
	r.Post("/check", h.check)
}

func (h *AchievementsHandler) list(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.service.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list achievements")
		RespondError(w, http.StatusInternalServerError, "Failed to list achievements")
		return
	}

	RespondJSON(w, http.StatusOK, statuses)
}

func (h *AchievementsHandler) progress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.service.Progress(r.Context())
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "Failed to compute progress")
		return
	}

	stage, err := h.service.Stage(r.Context())
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "Failed to compute evolution stage")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"progress": progress,
		"stage":    stage,
	})
}

func (h *AchievementsHandler) check(w http.ResponseWriter, r *http.Request) {
	fresh, err := h.service.CheckProgress(r.Context())
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "Achievement check failed")
		return
	}

	if fresh == nil {
		fresh = []achievements.Definition{}
	}
	RespondJSON(w, http.StatusOK, map[string]any{"unlocked": fresh})
}
