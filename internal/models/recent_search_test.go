// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolibrary/evolibrary/internal/models"
)

func TestRecentSearchNewestFirst(t *testing.T) {
	store := models.NewRecentSearchStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "dune"))
	require.NoError(t, store.Record(ctx, "hyperion"))
	require.NoError(t, store.Record(ctx, "foundation"))

	searches, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, searches, 3)
	assert.Equal(t, "foundation", searches[0].Query)
	assert.Equal(t, "hyperion", searches[1].Query)
	assert.Equal(t, "dune", searches[2].Query)
}

func TestRecentSearchDedupMovesToFront(t *testing.T) {
	store := models.NewRecentSearchStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "dune"))
	require.NoError(t, store.Record(ctx, "hyperion"))
	require.NoError(t, store.Record(ctx, "dune"))

	searches, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, searches, 2)
	assert.Equal(t, "dune", searches[0].Query)
	assert.Equal(t, "hyperion", searches[1].Query)
}

func TestRecentSearchCap(t *testing.T) {
	store := models.NewRecentSearchStore(newTestDB(t))
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		require.NoError(t, store.Record(ctx, fmt.Sprintf("query %d", i)))
	}

	searches, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, searches, 10)
	assert.Equal(t, "query 12", searches[0].Query)
	assert.Equal(t, "query 3", searches[9].Query)
}

func TestRecentSearchEmptyQueryRejected(t *testing.T) {
	store := models.NewRecentSearchStore(newTestDB(t))

	assert.Error(t, store.Record(context.Background(), "   "))
}

func TestRecentSearchTrimsWhitespace(t *testing.T) {
	store := models.NewRecentSearchStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "  dune  "))
	require.NoError(t, store.Record(ctx, "dune"))

	searches, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, searches, 1)
	assert.Equal(t, "dune", searches[0].Query)
}
