// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package update polls GitHub for newer releases.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	goversion "github.com/hashicorp/go-version"
	"github.com/rs/zerolog"

	"github.com/evolibrary/evolibrary/internal/buildinfo"
)

const defaultReleasesURL = "https://api.github.com/repos/evolibrary/evolibrary/releases/latest"

// Release is the subset of the GitHub release payload we keep.
type Release struct {
	TagName     string    `json:"tag_name"`
	HTMLURL     string    `json:"html_url"`
	PublishedAt time.Time `json:"published_at"`
}

// Status is what the updates endpoint returns.
type Status struct {
	CurrentVersion string    `json:"current_version"`
	Available      bool      `json:"update_available"`
	Latest         *Release  `json:"latest_release,omitempty"`
	CheckedAt      time.Time `json:"checked_at,omitempty"`
}

// Checker polls for newer releases and caches the latest answer.
type Checker struct {
	releasesURL string
	client      *http.Client
	log         zerolog.Logger

	mu        sync.Mutex
	latest    *Release
	available bool
	checkedAt time.Time
}

// NewChecker constructs a release checker against the project repository.
func NewChecker(logger zerolog.Logger) *Checker {
	return &Checker{
		releasesURL: defaultReleasesURL,
		client:      &http.Client{Timeout: 15 * time.Second},
		log:         logger.With().Str("component", "update-checker").Logger(),
	}
}

// Start polls at the given interval until ctx is canceled. An immediate
// first check runs before the ticker starts.
func (c *Checker) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Hour
	}

	go func() {
		if err := c.Check(ctx); err != nil {
			c.log.Warn().Err(err).Msg("update check failed")
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.Check(ctx); err != nil {
					c.log.Warn().Err(err).Msg("update check failed")
				}
			}
		}
	}()
}

// Check fetches the latest release and compares it to the running
// version. Dev builds never report an available update.
func (c *Checker) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.releasesURL, nil)
	if err != nil {
		return fmt.Errorf("build release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("release endpoint returned status %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return fmt.Errorf("decode release: %w", err)
	}

	available := newerThanCurrent(release.TagName, buildinfo.Version)

	c.mu.Lock()
	c.latest = &release
	c.available = available
	c.checkedAt = time.Now()
	c.mu.Unlock()

	if available {
		c.log.Info().Str("latest", release.TagName).Str("current", buildinfo.Version).Msg("update available")
	}

	return nil
}

// Status returns the cached check result.
func (c *Checker) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := Status{
		CurrentVersion: buildinfo.Version,
		Available:      c.available,
		CheckedAt:      c.checkedAt,
	}
	if c.latest != nil {
		latest := *c.latest
		status.Latest = &latest
	}
	return status
}

func newerThanCurrent(latestTag, current string) bool {
	latest, err := goversion.NewVersion(latestTag)
	if err != nil {
		return false
	}

	running, err := goversion.NewVersion(current)
	if err != nil {
		// Dev and otherwise unparseable builds never prompt an update.
		return false
	}

	return latest.GreaterThan(running)
}
