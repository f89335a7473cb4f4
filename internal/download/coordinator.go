// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package download

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/evolibrary/evolibrary/internal/models"
	"github.com/evolibrary/evolibrary/internal/notify"
)

var (
	// ErrMissingDownloadURL rejects submissions without a download URL.
	ErrMissingDownloadURL = errors.New("submission has no download URL")

	// ErrAlreadySubmitting rejects a second submission of the same URL
	// while the first is still in flight.
	ErrAlreadySubmitting = errors.New("download is already being submitted")
)

// CounterIncrementer bumps the persisted download counter.
type CounterIncrementer interface {
	Increment(ctx context.Context, key string, delta int64) (int64, error)
}

// Coordinator serializes download submissions: it tracks which URLs are
// in flight, bumps the download counter, hands the work to the gateway
// and raises the outcome notification.
type Coordinator struct {
	gateway  Gateway
	counters CounterIncrementer
	notifier *notify.Notifier
	log      zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewCoordinator constructs a download coordinator.
func NewCoordinator(gateway Gateway, counters CounterIncrementer, notifier *notify.Notifier, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		gateway:  gateway,
		counters: counters,
		notifier: notifier,
		log:      logger.With().Str("component", "download-coordinator").Logger(),
		inflight: make(map[string]struct{}),
	}
}

// Submit sends one release to the download client. The download counter
// counts submission attempts, not confirmed successes, so it is bumped
// before the gateway call. The in-flight marker is removed on every exit
// path so a failed submission can be retried immediately.
func (c *Coordinator) Submit(ctx context.Context, sub Submission) error {
	if sub.DownloadURL == "" {
		return ErrMissingDownloadURL
	}

	c.mu.Lock()
	if _, busy := c.inflight[sub.DownloadURL]; busy {
		c.mu.Unlock()
		return ErrAlreadySubmitting
	}
	c.inflight[sub.DownloadURL] = struct{}{}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inflight, sub.DownloadURL)
		c.mu.Unlock()
	}()

	if c.counters != nil {
		if _, err := c.counters.Increment(ctx, models.CounterDownloads, 1); err != nil {
			c.log.Warn().Err(err).Msg("failed to increment download counter")
		}
	}

	if err := c.gateway.Submit(ctx, sub); err != nil {
		c.log.Error().Err(err).Str("title", sub.Title).Msg("download submission failed")
		if c.notifier != nil {
			c.notifier.Error(fmt.Sprintf("Download failed: %s", sub.Title))
		}
		return fmt.Errorf("submit download: %w", err)
	}

	c.log.Info().Str("title", sub.Title).Str("mediaType", sub.MediaType).Msg("download submitted")
	if c.notifier != nil {
		c.notifier.Success(fmt.Sprintf("Sent to download client: %s", sub.Title))
	}

	return nil
}

// IsInFlight reports whether a URL is currently being submitted.
func (c *Coordinator) IsInFlight(downloadURL string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, busy := c.inflight[downloadURL]
	return busy
}

// InFlight returns the URLs currently being submitted, sorted for stable
// output.
func (c *Coordinator) InFlight() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	urls := make([]string, 0, len(c.inflight))
	for url := range c.inflight {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}
