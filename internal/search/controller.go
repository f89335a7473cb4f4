// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/evolibrary/evolibrary/internal/catalog"
	"github.com/evolibrary/evolibrary/internal/indexer"
	"github.com/evolibrary/evolibrary/internal/models"
	"github.com/evolibrary/evolibrary/internal/notify"
)

const (
	// DebounceInterval is how long typed input must be stable before a
	// search fires.
	DebounceInterval = 500 * time.Millisecond

	// MinQueryLength is the minimum query length, in runes, that
	// triggers a search.
	MinQueryLength = 3

	minQueryHint = "Type at least 3 characters to search"
)

// ErrQueryTooShort rejects explicit submits below the minimum length.
var ErrQueryTooShort = errors.New(minQueryHint)

// Mode selects which backend is authoritative for typed queries.
type Mode string

const (
	ModeIdle    Mode = "idle"
	ModeCatalog Mode = "catalog"
	ModeDirect  Mode = "direct"
)

// ValidMode reports whether m is one of the known modes.
func ValidMode(m Mode) bool {
	switch m {
	case ModeIdle, ModeCatalog, ModeDirect:
		return true
	}
	return false
}

// CatalogSearcher is the metadata backend.
type CatalogSearcher interface {
	Search(ctx context.Context, query, language string) ([]catalog.Book, error)
}

// IndexerSearcher is the download-source backend.
type IndexerSearcher interface {
	Search(ctx context.Context, query string) ([]indexer.Result, error)
}

// HistoryRecorder records explicitly submitted queries.
type HistoryRecorder interface {
	Record(ctx context.Context, query string) error
}

// CounterIncrementer bumps the persisted activity counters.
type CounterIncrementer interface {
	Increment(ctx context.Context, key string, delta int64) (int64, error)
}

// State is a point-in-time snapshot of the controller, shaped for JSON.
type State struct {
	Mode              Mode             `json:"mode"`
	Query             string           `json:"query"`
	Language          string           `json:"language,omitempty"`
	Hint              string           `json:"hint,omitempty"`
	SearchingCatalog  bool             `json:"searchingCatalog"`
	SearchingIndexers bool             `json:"searchingIndexers"`
	CatalogError      string           `json:"catalogError,omitempty"`
	IndexerError      string           `json:"indexerError,omitempty"`
	CatalogResults    []catalog.Book   `json:"catalogResults"`
	IndexerResults    []indexer.Result `json:"indexerResults"`
	Selected          *catalog.Book    `json:"selected,omitempty"`
}

// Config wires a Controller. Catalog and Indexers are required; the rest
// degrade to no-ops when nil.
type Config struct {
	Catalog  CatalogSearcher
	Indexers IndexerSearcher
	History  HistoryRecorder
	Counters CounterIncrementer
	Notifier *notify.Notifier
	Logger   zerolog.Logger

	// DebounceInterval overrides the default quiet period. Tests use this.
	DebounceInterval time.Duration
}

// Controller owns the search page state. Typed input flows through the
// debouncer; at most one catalog request and one indexer request are
// current at any time, and superseded requests never touch state.
type Controller struct {
	catalog  CatalogSearcher
	indexers IndexerSearcher
	history  HistoryRecorder
	counters CounterIncrementer
	notifier *notify.Notifier
	log      zerolog.Logger

	debouncer  *Debouncer[string]
	catalogReq RequestEnvelope
	indexerReq RequestEnvelope

	baseCtx   context.Context
	baseStop  context.CancelFunc
	closeOnce func()

	mu                sync.Mutex
	mode              Mode
	query             string
	language          string
	searchingCatalog  bool
	searchingIndexers bool
	catalogErr        string
	indexerErr        string
	catalogResults    []catalog.Book
	indexerResults    []indexer.Result
	selected          *catalog.Book
}

// NewController constructs and starts a controller. Close releases it.
func NewController(cfg Config) *Controller {
	interval := cfg.DebounceInterval
	if interval <= 0 {
		interval = DebounceInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		catalog:   cfg.Catalog,
		indexers:  cfg.Indexers,
		history:   cfg.History,
		counters:  cfg.Counters,
		notifier:  cfg.Notifier,
		log:       cfg.Logger.With().Str("component", "search-controller").Logger(),
		debouncer: NewDebouncer[string](interval),
		baseCtx:   ctx,
		baseStop:  cancel,
		mode:      ModeIdle,
	}

	done := make(chan struct{})
	var once sync.Once
	c.closeOnce = func() {
		once.Do(func() {
			close(done)
			c.debouncer.Stop()
			cancel()
		})
	}

	go c.run(done)

	return c
}

func (c *Controller) run(done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case query := <-c.debouncer.C():
			c.dispatch(query)
		}
	}
}

// Close cancels any in-flight requests and stops the debounce loop.
func (c *Controller) Close() {
	c.closeOnce()
}

// SetMode switches the authoritative backend. Any change cancels
// in-flight requests and clears both result lists, the selection and any
// errors. Setting the current mode again is a no-op.
func (c *Controller) SetMode(mode Mode) {
	c.mu.Lock()
	if c.mode == mode {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.catalogReq.Cancel()
	c.indexerReq.Cancel()

	c.mu.Lock()
	c.mode = mode
	c.clearResultsLocked()
	c.searchingCatalog = false
	c.searchingIndexers = false
	c.mu.Unlock()

	c.log.Debug().Str("mode", string(mode)).Msg("search mode changed")
}

// SetLanguage restricts catalog searches to a language code. Empty means
// no restriction.
func (c *Controller) SetLanguage(language string) {
	c.mu.Lock()
	c.language = language
	c.mu.Unlock()
}

// SetQuery feeds a keystroke-level query update. The search fires only
// after the input has settled for the debounce interval.
func (c *Controller) SetQuery(query string) {
	c.mu.Lock()
	c.query = query
	c.mu.Unlock()

	c.debouncer.Set(query)
}

// Submit runs the current query immediately, bypassing the debounce, and
// records it in the search history. Queries below the minimum length are
// rejected with ErrQueryTooShort.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	query := strings.TrimSpace(c.query)
	c.mu.Unlock()

	if utf8.RuneCountInString(query) < MinQueryLength {
		return ErrQueryTooShort
	}

	if c.history != nil {
		if err := c.history.Record(ctx, query); err != nil {
			c.log.Warn().Err(err).Str("query", query).Msg("failed to record search history")
		}
	}

	c.dispatch(query)
	return nil
}

// CancelSearch aborts whichever requests are pending and resets the
// searching indicators synchronously.
func (c *Controller) CancelSearch() {
	c.catalogReq.Cancel()
	c.indexerReq.Cancel()

	c.mu.Lock()
	c.searchingCatalog = false
	c.searchingIndexers = false
	c.mu.Unlock()
}

// FindDownloads selects a catalog result and searches the indexers with
// a query derived from its title and first author. This runs regardless
// of the current mode.
func (c *Controller) FindDownloads(book catalog.Book) {
	derived := book.Title
	if len(book.Authors) > 0 && strings.TrimSpace(book.Authors[0]) != "" {
		derived = fmt.Sprintf("%s %s", book.Title, book.Authors[0])
	}

	c.mu.Lock()
	selected := book
	c.selected = &selected
	c.mu.Unlock()

	c.searchIndexers(derived)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := State{
		Mode:              c.mode,
		Query:             c.query,
		Language:          c.language,
		SearchingCatalog:  c.searchingCatalog,
		SearchingIndexers: c.searchingIndexers,
		CatalogError:      c.catalogErr,
		IndexerError:      c.indexerErr,
		CatalogResults:    append([]catalog.Book(nil), c.catalogResults...),
		IndexerResults:    append([]indexer.Result(nil), c.indexerResults...),
	}

	if c.selected != nil {
		selected := *c.selected
		state.Selected = &selected
	}

	trimmed := strings.TrimSpace(c.query)
	if n := utf8.RuneCountInString(trimmed); n > 0 && n < MinQueryLength {
		state.Hint = minQueryHint
	}

	return state
}

// dispatch routes a settled query to the backend the current mode makes
// authoritative.
func (c *Controller) dispatch(query string) {
	query = strings.TrimSpace(query)

	if query == "" {
		c.mu.Lock()
		c.clearResultsLocked()
		c.mu.Unlock()
		return
	}

	if utf8.RuneCountInString(query) < MinQueryLength {
		// Below the minimum: no request. The snapshot carries the hint.
		return
	}

	c.mu.Lock()
	mode := c.mode
	language := c.language
	c.mu.Unlock()

	switch mode {
	case ModeCatalog:
		c.searchCatalog(query, language)
	case ModeDirect:
		c.searchIndexers(query)
	default:
		// Idle: no backend selected, typing does nothing yet.
	}
}

func (c *Controller) searchCatalog(query, language string) {
	ctx, commit := c.catalogReq.Start(c.baseCtx)

	c.mu.Lock()
	c.searchingCatalog = true
	c.catalogErr = ""
	c.mu.Unlock()

	c.countSearch()

	go func() {
		books, err := c.catalog.Search(ctx, query, language)
		if err != nil {
			if isCanceled(err) {
				return
			}

			c.log.Error().Err(err).Str("query", query).Msg("catalog search failed")
			committed := commit(func() {
				c.mu.Lock()
				c.searchingCatalog = false
				c.catalogErr = err.Error()
				c.mu.Unlock()
			})
			if committed && c.notifier != nil {
				c.notifier.Error("Catalog search failed: " + err.Error())
			}
			return
		}

		commit(func() {
			c.mu.Lock()
			c.searchingCatalog = false
			c.catalogResults = books
			c.mu.Unlock()
		})
	}()
}

func (c *Controller) searchIndexers(query string) {
	ctx, commit := c.indexerReq.Start(c.baseCtx)

	c.mu.Lock()
	c.searchingIndexers = true
	c.indexerErr = ""
	c.mu.Unlock()

	c.countSearch()

	go func() {
		results, err := c.indexers.Search(ctx, query)
		if err != nil {
			if isCanceled(err) {
				return
			}

			c.log.Error().Err(err).Str("query", query).Msg("indexer search failed")
			committed := commit(func() {
				c.mu.Lock()
				c.searchingIndexers = false
				c.indexerErr = err.Error()
				c.mu.Unlock()
			})
			if committed && c.notifier != nil {
				c.notifier.Error("Indexer search failed: " + err.Error())
			}
			return
		}

		commit(func() {
			c.mu.Lock()
			c.searchingIndexers = false
			c.indexerResults = results
			c.mu.Unlock()
		})
	}()
}

func (c *Controller) countSearch() {
	if c.counters == nil {
		return
	}

	ctx, cancel := context.WithTimeout(c.baseCtx, 5*time.Second)
	defer cancel()

	if _, err := c.counters.Increment(ctx, models.CounterSearches, 1); err != nil {
		c.log.Warn().Err(err).Msg("failed to increment search counter")
	}
}

func (c *Controller) clearResultsLocked() {
	c.catalogResults = nil
	c.indexerResults = nil
	c.selected = nil
	c.catalogErr = ""
	c.indexerErr = ""
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
