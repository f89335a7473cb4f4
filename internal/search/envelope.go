// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package search

import (
	"context"
	"sync"
)

// CommitFunc applies a state mutation on behalf of a request. It runs fn
// and reports true only while that request is still the current one;
// once the request has been superseded or canceled, fn never runs.
type CommitFunc func(fn func()) bool

// RequestEnvelope owns at most one in-flight request. Starting a new
// request cancels the previous one, and the previous request's results
// can no longer be committed — canceled means discarded, not merely
// ignored when stale.
type RequestEnvelope struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64
}

// Start cancels any in-flight request owned by this envelope and opens a
// new one. The returned context aborts the transport on cancellation;
// the returned commit gates state application.
func (e *RequestEnvelope) Start(parent context.Context) (context.Context, CommitFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		e.cancel()
	}

	ctx, cancel := context.WithCancel(parent)
	e.cancel = cancel
	e.gen++
	gen := e.gen

	commit := func(fn func()) bool {
		e.mu.Lock()
		defer e.mu.Unlock()

		if e.gen != gen || ctx.Err() != nil {
			return false
		}
		fn()
		return true
	}

	return ctx, commit
}

// Cancel aborts the current request without starting a new one.
func (e *RequestEnvelope) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}
