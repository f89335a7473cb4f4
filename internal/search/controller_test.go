// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolibrary/evolibrary/internal/catalog"
	"github.com/evolibrary/evolibrary/internal/indexer"
)

type fakeCatalog struct {
	mu      sync.Mutex
	calls   []string
	respond func(query string) ([]catalog.Book, error)
}

func (f *fakeCatalog) Search(ctx context.Context, query, language string) ([]catalog.Book, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	respond := f.respond
	f.mu.Unlock()

	if respond != nil {
		return respond(query)
	}
	return nil, nil
}

func (f *fakeCatalog) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeCatalog) lastCall() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

type fakeIndexers struct {
	mu      sync.Mutex
	calls   []string
	respond func(query string) ([]indexer.Result, error)
}

func (f *fakeIndexers) Search(ctx context.Context, query string) ([]indexer.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	respond := f.respond
	f.mu.Unlock()

	if respond != nil {
		return respond(query)
	}
	return nil, nil
}

func (f *fakeIndexers) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeIndexers) lastCall() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

func newTestController(t *testing.T, cat *fakeCatalog, idx *fakeIndexers) *Controller {
	t.Helper()

	c := NewController(Config{
		Catalog:          cat,
		Indexers:         idx,
		Logger:           zerolog.Nop(),
		DebounceInterval: 15 * time.Millisecond,
	})
	t.Cleanup(c.Close)

	return c
}

// newSubmitOnlyController uses a debounce interval long enough that only
// explicit Submit calls dispatch during the test, keeping request counts
// deterministic.
func newSubmitOnlyController(t *testing.T, cat *fakeCatalog, idx *fakeIndexers) *Controller {
	t.Helper()

	c := NewController(Config{
		Catalog:          cat,
		Indexers:         idx,
		Logger:           zerolog.Nop(),
		DebounceInterval: time.Hour,
	})
	t.Cleanup(c.Close)

	return c
}

func TestControllerMinimumLengthGate(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{}
	c := newTestController(t, cat, &fakeIndexers{})
	c.SetMode(ModeCatalog)

	for _, short := range []string{"", "d", "du"} {
		c.SetQuery(short)
		time.Sleep(60 * time.Millisecond)
	}
	assert.Equal(t, 0, cat.callCount(), "queries below 3 runes must not issue requests")

	snap := c.Snapshot()
	assert.NotEmpty(t, snap.Hint, "short query should surface the minimum-length hint")

	c.SetQuery("dune")
	require.Eventually(t, func() bool { return cat.callCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "dune", cat.lastCall())
	assert.Empty(t, c.Snapshot().Hint)
}

func TestControllerSubmitRejectsShortQuery(t *testing.T) {
	t.Parallel()

	c := newTestController(t, &fakeCatalog{}, &fakeIndexers{})
	c.SetMode(ModeCatalog)
	c.SetQuery("du")

	err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrQueryTooShort)
}

func TestControllerStaleResultsDiscarded(t *testing.T) {
	t.Parallel()

	release := map[string]chan []catalog.Book{
		"query one": make(chan []catalog.Book),
		"query two": make(chan []catalog.Book),
	}

	cat := &fakeCatalog{
		respond: func(query string) ([]catalog.Book, error) {
			// Deliberately ignores cancellation so a superseded request
			// still resolves late, exercising the commit gate.
			return <-release[query], nil
		},
	}
	c := newSubmitOnlyController(t, cat, &fakeIndexers{})
	c.SetMode(ModeCatalog)

	c.SetQuery("query one")
	require.NoError(t, c.Submit(context.Background()))
	require.Eventually(t, func() bool { return cat.callCount() >= 1 }, time.Second, 5*time.Millisecond)

	c.SetQuery("query two")
	require.NoError(t, c.Submit(context.Background()))
	require.Eventually(t, func() bool { return cat.callCount() >= 2 }, time.Second, 5*time.Millisecond)

	// B resolves first and lands in state.
	release["query two"] <- []catalog.Book{{ID: "b", Title: "Winner"}}
	require.Eventually(t, func() bool {
		snap := c.Snapshot()
		return len(snap.CatalogResults) == 1 && snap.CatalogResults[0].ID == "b"
	}, time.Second, 5*time.Millisecond)

	// A resolves late; its results must never overwrite B's.
	release["query one"] <- []catalog.Book{{ID: "a", Title: "Stale"}}
	time.Sleep(50 * time.Millisecond)

	snap := c.Snapshot()
	require.Len(t, snap.CatalogResults, 1)
	assert.Equal(t, "b", snap.CatalogResults[0].ID)
}

func TestControllerModeSwitchClearsState(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{
		respond: func(string) ([]catalog.Book, error) {
			return []catalog.Book{{ID: "x", Title: "Dune", Authors: []string{"Frank Herbert"}}}, nil
		},
	}
	c := newTestController(t, cat, &fakeIndexers{})
	c.SetMode(ModeCatalog)

	c.SetQuery("dune")
	require.NoError(t, c.Submit(context.Background()))
	require.Eventually(t, func() bool { return len(c.Snapshot().CatalogResults) == 1 }, time.Second, 5*time.Millisecond)

	c.FindDownloads(c.Snapshot().CatalogResults[0])
	require.Eventually(t, func() bool { return c.Snapshot().Selected != nil }, time.Second, 5*time.Millisecond)

	c.SetMode(ModeDirect)

	snap := c.Snapshot()
	assert.Empty(t, snap.CatalogResults)
	assert.Empty(t, snap.IndexerResults)
	assert.Nil(t, snap.Selected)
	assert.Empty(t, snap.CatalogError)
	assert.Empty(t, snap.IndexerError)
	assert.False(t, snap.SearchingCatalog)
	assert.False(t, snap.SearchingIndexers)
}

func TestControllerEmptyQueryClearsResults(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{
		respond: func(string) ([]catalog.Book, error) {
			return []catalog.Book{{ID: "x", Title: "Dune"}}, nil
		},
	}
	c := newTestController(t, cat, &fakeIndexers{})
	c.SetMode(ModeCatalog)

	c.SetQuery("dune")
	require.Eventually(t, func() bool { return len(c.Snapshot().CatalogResults) == 1 }, time.Second, 5*time.Millisecond)

	c.SetQuery("")
	require.Eventually(t, func() bool {
		snap := c.Snapshot()
		return len(snap.CatalogResults) == 0 && snap.Selected == nil
	}, time.Second, 5*time.Millisecond)
}

func TestControllerFindDownloadsDerivesQuery(t *testing.T) {
	t.Parallel()

	idx := &fakeIndexers{}
	c := newTestController(t, &fakeCatalog{}, idx)
	c.SetMode(ModeCatalog)

	c.FindDownloads(catalog.Book{ID: "x", Title: "Dune", Authors: []string{"Frank Herbert", "Other"}})

	require.Eventually(t, func() bool { return idx.callCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Dune Frank Herbert", idx.lastCall(), "derived query combines title and first author")
	assert.NotNil(t, c.Snapshot().Selected)
}

func TestControllerFindDownloadsWithoutAuthor(t *testing.T) {
	t.Parallel()

	idx := &fakeIndexers{}
	c := newTestController(t, &fakeCatalog{}, idx)

	c.FindDownloads(catalog.Book{ID: "x", Title: "Beowulf", Authors: []string{}})

	require.Eventually(t, func() bool { return idx.callCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Beowulf", idx.lastCall())
}

func TestControllerCancelSearchResetsIndicators(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	cat := &fakeCatalog{
		respond: func(string) ([]catalog.Book, error) {
			<-block
			return nil, context.Canceled
		},
	}
	c := newSubmitOnlyController(t, cat, &fakeIndexers{})
	c.SetMode(ModeCatalog)

	c.SetQuery("dune")
	require.NoError(t, c.Submit(context.Background()))
	require.Eventually(t, func() bool { return c.Snapshot().SearchingCatalog }, time.Second, 5*time.Millisecond)

	c.CancelSearch()
	assert.False(t, c.Snapshot().SearchingCatalog, "cancel must reset the indicator synchronously")

	close(block)
}

func TestControllerIndexerErrorIsIndependentOfCatalogResults(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{
		respond: func(string) ([]catalog.Book, error) {
			return []catalog.Book{{ID: "x", Title: "Dune"}}, nil
		},
	}
	idx := &fakeIndexers{
		respond: func(string) ([]indexer.Result, error) {
			return nil, &indexer.UnavailableError{Reason: "all indexers failed"}
		},
	}
	c := newTestController(t, cat, idx)
	c.SetMode(ModeCatalog)

	c.SetQuery("dune")
	require.NoError(t, c.Submit(context.Background()))
	require.Eventually(t, func() bool { return len(c.Snapshot().CatalogResults) == 1 }, time.Second, 5*time.Millisecond)

	c.FindDownloads(c.Snapshot().CatalogResults[0])
	require.Eventually(t, func() bool { return c.Snapshot().IndexerError != "" }, time.Second, 5*time.Millisecond)

	snap := c.Snapshot()
	assert.Contains(t, snap.IndexerError, "indexers unavailable")
	assert.Len(t, snap.CatalogResults, 1, "an indexer failure must not clear catalog results")
}

func TestControllerEndToEndCatalogFlow(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{
		respond: func(string) ([]catalog.Book, error) {
			return []catalog.Book{
				{ID: "1", Title: "Dune", Authors: []string{"Frank Herbert"}},
				{ID: "2", Title: "Dune Messiah", Authors: []string{"Frank Herbert"}},
			}, nil
		},
	}
	idx := &fakeIndexers{}
	c := newTestController(t, cat, idx)
	c.SetMode(ModeCatalog)

	c.SetQuery("dune")

	require.Eventually(t, func() bool { return cat.callCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "dune", cat.lastCall())

	require.Eventually(t, func() bool { return len(c.Snapshot().CatalogResults) == 2 }, time.Second, 5*time.Millisecond)

	c.FindDownloads(c.Snapshot().CatalogResults[0])

	require.Eventually(t, func() bool { return idx.callCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Dune Frank Herbert", idx.lastCall())
	assert.NotNil(t, c.Snapshot().Selected)
}
