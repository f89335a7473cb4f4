// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package logstream fans zerolog output out to live subscribers, backing
// the activity log stream in the UI.
package logstream

import (
	"sync"
)

const (
	backlogSize      = 200
	subscriberBuffer = 64
)

// Broadcaster is an io.Writer that keeps a bounded backlog of log lines
// and fans new lines out to subscribers. A subscriber that cannot keep
// up has lines dropped rather than blocking the logger.
type Broadcaster struct {
	mu      sync.Mutex
	backlog [][]byte
	subs    map[chan []byte]struct{}
}

// NewBroadcaster constructs an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[chan []byte]struct{}),
	}
}

// Write implements io.Writer for zerolog. p is copied; zerolog reuses
// its buffer.
func (b *Broadcaster) Write(p []byte) (int, error) {
	line := make([]byte, len(p))
	copy(line, p)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.backlog = append(b.backlog, line)
	if len(b.backlog) > backlogSize {
		b.backlog = b.backlog[len(b.backlog)-backlogSize:]
	}

	for sub := range b.subs {
		select {
		case sub <- line:
		default:
		}
	}

	return len(p), nil
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function.
func (b *Broadcaster) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
	}

	return ch, cancel
}

// Backlog returns a copy of the retained lines, oldest first.
func (b *Broadcaster) Backlog() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([][]byte, len(b.backlog))
	copy(out, b.backlog)
	return out
}
