// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evolibrary/evolibrary/internal/logstream"
)

// ActivityHandler streams server log lines to the UI over SSE.
type ActivityHandler struct {
	broadcaster *logstream.Broadcaster
}

// NewActivityHandler constructs the activity handler.
func NewActivityHandler(broadcaster *logstream.Broadcaster) *ActivityHandler {
	return &ActivityHandler{broadcaster: broadcaster}
}

// Routes mounts the activity endpoints.
func (h *ActivityHandler) Routes(r chi.Router) {
	r.Get("/logs/stream", h.stream)
}

func (h *ActivityHandler) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		RespondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Replay the backlog so a fresh client sees recent activity.
	for _, line := range h.broadcaster.Backlog() {
		writeEvent(w, line)
	}
	flusher.Flush()

	lines, cancel := h.broadcaster.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case line := <-lines:
			writeEvent(w, line)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, line []byte) {
	fmt.Fprintf(w, "data: %s\n\n", bytes.TrimRight(line, "\n"))
}
