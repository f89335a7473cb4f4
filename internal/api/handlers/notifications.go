// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/evolibrary/evolibrary/internal/notify"
)

// NotificationsHandler serves the transient toast queue.
type NotificationsHandler struct {
	notifier *notify.Notifier
}

// NewNotificationsHandler constructs the notifications handler.
func NewNotificationsHandler(notifier *notify.Notifier) *NotificationsHandler {
	return &NotificationsHandler{notifier: notifier}
}

// Routes mounts the notification endpoints.
func (h *NotificationsHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Delete("/{notificationID}", h.dismiss)
}

func (h *NotificationsHandler) list(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.notifier.Active())
}

func (h *NotificationsHandler) dismiss(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "notificationID"), 10, 64)
	if err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	h.notifier.Dismiss(id)
	RespondJSON(w, http.StatusOK, map[string]string{"status": "dismissed"})
}
