// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package indexer

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolibrary/evolibrary/internal/models"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	return NewClient(&models.Indexer{Name: "prowlarr-main", BaseURL: "http://indexer.local"}, zerolog.Nop())
}

func TestDecodeBareArray(t *testing.T) {
	t.Parallel()

	body := []byte(`[
		{"title": "Dune [EPUB]", "downloadUrl": "http://indexer.local/dl/1", "indexerId": 3, "indexer": "libraria", "size": 1048576, "seeders": 42, "protocol": "torrent"}
	]`)

	results, err := testClient(t).decodeSearchResponse(200, body)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "Dune [EPUB]", r.Title)
	assert.Equal(t, "http://indexer.local/dl/1", r.DownloadURL)
	assert.Equal(t, "libraria", r.Indexer)
	assert.Equal(t, 42, r.Seeders)
	assert.InDelta(t, 1.0, r.SizeMB, 0.001)
	assert.Equal(t, "epub", r.FileFormat)
}

func TestDecodeWrappedObject(t *testing.T) {
	t.Parallel()

	body := []byte(`{"results": [
		{"Title": "Dune Messiah.mobi", "Link": "http://indexer.local/dl/2", "Tracker": "jackett-box", "Seeders": 7}
	]}`)

	results, err := testClient(t).decodeSearchResponse(200, body)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "Dune Messiah.mobi", r.Title)
	assert.Equal(t, "http://indexer.local/dl/2", r.DownloadURL, "link should backfill a missing downloadUrl")
	assert.Equal(t, "jackett-box", r.Indexer)
	assert.Equal(t, "mobi", r.FileFormat)
}

func TestDecodeErrorStatusWithEmptyBodyIsUnavailable(t *testing.T) {
	t.Parallel()

	_, err := testClient(t).decodeSearchResponse(400, []byte(`[]`))
	require.Error(t, err)

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, err.Error(), "indexers unavailable")
}

func TestDecodeSuccessStatusWithEmptyBodyIsZeroMatches(t *testing.T) {
	t.Parallel()

	results, err := testClient(t).decodeSearchResponse(200, []byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDecodeErrorStatusWithResultsIsSearchError(t *testing.T) {
	t.Parallel()

	body := []byte(`[{"title": "partial", "downloadUrl": "http://x/1"}]`)

	_, err := testClient(t).decodeSearchResponse(502, body)
	require.Error(t, err)

	var searchErr *SearchError
	require.ErrorAs(t, err, &searchErr)
	assert.Equal(t, 502, searchErr.StatusCode)
}

func TestDecodeMalformedPayload(t *testing.T) {
	t.Parallel()

	_, err := testClient(t).decodeSearchResponse(200, []byte(`{"results": "nope"`))
	require.Error(t, err)

	var searchErr *SearchError
	require.ErrorAs(t, err, &searchErr)
	assert.Contains(t, searchErr.Message, "malformed")
}

func TestParseCategories(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"Books/EBook"}, parseCategories([]byte(`[{"id": 7020, "name": "Books/EBook"}]`)))
	assert.Equal(t, []string{"Books", "Audio"}, parseCategories([]byte(`["Books", "Audio"]`)))
	assert.Empty(t, parseCategories(nil))
}

func TestDetectFileFormat(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Frank Herbert - Dune.epub":         "epub",
		"Dune Saga Complete [MOBI]":         "mobi",
		"The Sandman v01 (2022).cbz":        "cbz",
		"Dune (1984) 1080p BluRay.mkv":      "mkv",
		"Project Hail Mary Audiobook (m4b)": "m4b",
		"Some Release Without Extension":    "",
	}

	for title, want := range cases {
		assert.Equal(t, want, detectFileFormat(title), "title %q", title)
	}
}
