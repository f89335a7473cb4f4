// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package notify keeps a small bounded queue of transient toast
// notifications. Entries expire on their own; nothing here blocks.
package notify

import (
	"sync"
	"time"
)

// Notification kinds.
const (
	KindSuccess = "success"
	KindError   = "error"
	KindInfo    = "info"
)

const (
	defaultTTL = 5 * time.Second
	maxQueued  = 20
)

// Notification is a single transient message shown to the user.
type Notification struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Notifier is a bounded, self-expiring notification queue. When full,
// the oldest entry is dropped to make room.
type Notifier struct {
	mu     sync.Mutex
	nextID int64
	ttl    time.Duration
	queue  []Notification
	now    func() time.Time
}

// NewNotifier constructs a notifier with the default 5s expiry.
func NewNotifier() *Notifier {
	return &Notifier{ttl: defaultTTL, now: time.Now}
}

// Success queues a success-kind notification.
func (n *Notifier) Success(message string) Notification {
	return n.push(KindSuccess, message)
}

// Error queues an error-kind notification.
func (n *Notifier) Error(message string) Notification {
	return n.push(KindError, message)
}

// Info queues an info-kind notification.
func (n *Notifier) Info(message string) Notification {
	return n.push(KindInfo, message)
}

func (n *Notifier) push(kind, message string) Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	n.nextID++
	notification := Notification{
		ID:        n.nextID,
		Kind:      kind,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(n.ttl),
	}

	n.pruneLocked(now)
	if len(n.queue) >= maxQueued {
		n.queue = n.queue[1:]
	}
	n.queue = append(n.queue, notification)

	return notification
}

// Active returns the not-yet-expired notifications, oldest first.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.pruneLocked(n.now())

	out := make([]Notification, len(n.queue))
	copy(out, n.queue)
	return out
}

// Dismiss removes a notification before it expires. Unknown IDs are ignored.
func (n *Notifier) Dismiss(id int64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, notification := range n.queue {
		if notification.ID == id {
			n.queue = append(n.queue[:i], n.queue[i+1:]...)
			return
		}
	}
}

func (n *Notifier) pruneLocked(now time.Time) {
	kept := n.queue[:0]
	for _, notification := range n.queue {
		if notification.ExpiresAt.After(now) {
			kept = append(kept, notification)
		}
	}
	n.queue = kept
}
