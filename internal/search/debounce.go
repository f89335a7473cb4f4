// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package search implements the orchestration behind the search page: a
// debounced input feed, single-owner cancelable requests per backend, and
// the mode state machine that decides which backend a query goes to.
package search

import (
	"sync"
	"time"
)

// Debouncer delays propagation of a rapidly-changing value until it has
// been stable for the configured quiet period. A burst of Set calls
// within the period collapses to a single delivery of the last value.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	out     chan T
	stopped bool
}

// NewDebouncer constructs a debouncer with the given quiet period.
func NewDebouncer[T any](delay time.Duration) *Debouncer[T] {
	return &Debouncer[T]{
		delay: delay,
		out:   make(chan T, 1),
	}
}

// Set feeds a new value, superseding any pending delivery.
func (d *Debouncer[T]) Set(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.fire(value)
	})
}

func (d *Debouncer[T]) fire(value T) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	// A slow consumer keeps only the newest settled value.
	select {
	case d.out <- value:
	default:
		select {
		case <-d.out:
		default:
		}
		select {
		case d.out <- value:
		default:
		}
	}
}

// C is the channel settled values are delivered on.
func (d *Debouncer[T]) C() <-chan T {
	return d.out
}

// Stop discards any pending delivery. No value fires after Stop returns.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
