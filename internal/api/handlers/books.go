// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/evolibrary/evolibrary/internal/achievements"
	"github.com/evolibrary/evolibrary/internal/models"
)

// BooksHandler manages library entries.
type BooksHandler struct {
	store        *models.BookStore
	achievements *achievements.Service
}

// NewBooksHandler constructs the books handler. The achievement service
// is re-checked after every mutation so unlocks land immediately.
func NewBooksHandler(store *models.BookStore, achievementSvc *achievements.Service) *BooksHandler {
	return &BooksHandler{store: store, achievements: achievementSvc}
}

// Routes mounts the library endpoints.
func (h *BooksHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.add)
	r.Get("/stats", h.stats)
	r.Patch("/{bookID}/status", h.setStatus)
}

func (h *BooksHandler) list(w http.ResponseWriter, r *http.Request) {
	books, err := h.store.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list books")
		RespondError(w, http.StatusInternalServerError, "Failed to list books")
		return
	}

	RespondJSON(w, http.StatusOK, books)
}

type addBookRequest struct {
	Title      string  `json:"title"`
	AuthorName string  `json:"author_name"`
	ISBN       *string `json:"isbn"`
	Language   string  `json:"language"`
	MediaType  string  `json:"media_type"`
	Monitored  bool    `json:"monitored"`
}

func (h *BooksHandler) add(w http.ResponseWriter, r *http.Request) {
	var req addBookRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	book, err := h.store.Add(r.Context(), &models.Book{
		Title:      req.Title,
		AuthorName: req.AuthorName,
		ISBN:       req.ISBN,
		Language:   req.Language,
		MediaType:  req.MediaType,
		Monitored:  req.Monitored,
	})
	if err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.checkAchievements(r)

	RespondJSON(w, http.StatusCreated, book)
}

type setStatusRequest struct {
	Status    string `json:"status"`
	Monitored bool   `json:"monitored"`
}

func (h *BooksHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "bookID"))
	if err != nil || id <= 0 {
		RespondError(w, http.StatusBadRequest, "Invalid book ID")
		return
	}

	var req setStatusRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.store.SetStatus(r.Context(), id, req.Status, req.Monitored); err != nil {
		if errors.Is(err, models.ErrBookNotFound) {
			RespondError(w, http.StatusNotFound, "Book not found")
			return
		}
		RespondError(w, http.StatusInternalServerError, "Failed to update book")
		return
	}

	h.checkAchievements(r)

	RespondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *BooksHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "Failed to load library stats")
		return
	}

	RespondJSON(w, http.StatusOK, stats)
}

func (h *BooksHandler) checkAchievements(r *http.Request) {
	if h.achievements == nil {
		return
	}
	if _, err := h.achievements.CheckProgress(r.Context()); err != nil {
		log.Warn().Err(err).Msg("Achievement check failed")
	}
}
