// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package indexer

import (
	"context"
	"sort"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/evolibrary/evolibrary/internal/models"
)

const maxConcurrentIndexers = 4

// Service fans a search out across all enabled indexers.
type Service struct {
	indexers *models.IndexerStore
	log      zerolog.Logger

	// newClient is swapped in tests to point clients at stub servers.
	newClient func(cfg *models.Indexer) *Client
}

// NewService constructs the fan-out search service.
func NewService(indexers *models.IndexerStore, logger zerolog.Logger) *Service {
	svc := &Service{
		indexers: indexers,
		log:      logger.With().Str("component", "indexer-service").Logger(),
	}
	svc.newClient = func(cfg *models.Indexer) *Client {
		return NewClient(cfg, logger)
	}
	return svc
}

// Search queries every enabled indexer concurrently, merges the releases,
// drops video content and ranks what remains. It fails with an
// UnavailableError only when no indexer could be reached at all; partial
// failures degrade to the results of the indexers that answered.
func (s *Service) Search(ctx context.Context, query string) ([]Result, error) {
	enabled, err := s.indexers.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}
	if len(enabled) == 0 {
		return nil, &UnavailableError{Reason: "no indexers are enabled"}
	}

	var (
		mu       sync.Mutex
		merged   []Result
		failures []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentIndexers)

	for _, cfg := range enabled {
		cfg := cfg
		g.Go(func() error {
			results, err := s.newClient(cfg).Search(gctx, query)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				s.log.Warn().Err(err).Str("indexer", cfg.Name).Str("query", query).Msg("indexer search failed")
				failures = append(failures, err)
				return nil
			}

			merged = append(merged, results...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(merged) == 0 && len(failures) == len(enabled) {
		return nil, &UnavailableError{Reason: "all indexers failed"}
	}

	filtered := filterVideos(merged)
	rank(query, filtered)

	s.log.Info().
		Str("query", query).
		Int("indexers", len(enabled)).
		Int("failed", len(failures)).
		Int("results", len(filtered)).
		Msg("indexer search merged")

	return filtered, nil
}

// TestConnection probes a single indexer's health endpoint.
func (s *Service) TestConnection(ctx context.Context, cfg *models.Indexer) error {
	return s.newClient(cfg).Ping(ctx)
}

// rank orders releases by fuzzy relevance to the query, then by seeders.
func rank(query string, results []Result) {
	matched := func(title string) bool {
		return fuzzy.MatchNormalizedFold(query, title)
	}

	sort.SliceStable(results, func(i, j int) bool {
		mi, mj := matched(results[i].Title), matched(results[j].Title)
		if mi != mj {
			return mi
		}
		return results[i].Seeders > results[j].Seeders
	})
}
