// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePrefersISBN13(t *testing.T) {
	t.Parallel()

	volumes := []Volume{
		{
			ID: "v1",
			VolumeInfo: VolumeInfo{
				Title:   "Dune",
				Authors: []string{"Frank Herbert"},
				IndustryIdentifiers: []IndustryIdentifier{
					{Type: "ISBN_10", Identifier: "0441013597"},
					{Type: "ISBN_13", Identifier: "9780441013593"},
				},
			},
		},
	}

	books := Normalize(volumes)
	require.Len(t, books, 1)
	assert.Equal(t, "9780441013593", books[0].ISBN)
}

func TestNormalizeFallsBackToISBN10(t *testing.T) {
	t.Parallel()

	books := Normalize([]Volume{
		{
			VolumeInfo: VolumeInfo{
				Title: "Dune Messiah",
				IndustryIdentifiers: []IndustryIdentifier{
					{Type: "ISBN_10", Identifier: "0441172695"},
				},
			},
		},
	})

	require.Len(t, books, 1)
	assert.Equal(t, "0441172695", books[0].ISBN)
}

func TestNormalizeUpgradesThumbnailToHTTPS(t *testing.T) {
	t.Parallel()

	books := Normalize([]Volume{
		{
			VolumeInfo: VolumeInfo{
				Title: "Children of Dune",
				ImageLinks: &ImageLinks{
					Thumbnail: "http://books.example.com/covers/cod.jpg",
				},
			},
		},
	})

	require.Len(t, books, 1)
	assert.Equal(t, "https://books.example.com/covers/cod.jpg", books[0].ThumbnailURL)
}

func TestNormalizeDefaultsMissingFields(t *testing.T) {
	t.Parallel()

	books := Normalize([]Volume{
		{ID: "bare", VolumeInfo: VolumeInfo{Title: "Anonymous Work"}},
	})

	require.Len(t, books, 1)
	assert.NotNil(t, books[0].Authors)
	assert.Empty(t, books[0].Authors)
	assert.Empty(t, books[0].ISBN)
	assert.Empty(t, books[0].ThumbnailURL)
}
