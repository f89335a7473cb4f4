// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolibrary/evolibrary/internal/buildinfo"
)

func TestNewerThanCurrent(t *testing.T) {
	t.Parallel()

	assert.True(t, newerThanCurrent("v1.2.0", "1.1.0"))
	assert.False(t, newerThanCurrent("v1.1.0", "1.1.0"))
	assert.False(t, newerThanCurrent("v1.0.0", "1.1.0"))
	assert.False(t, newerThanCurrent("v1.2.0", "dev"), "dev builds never see updates")
	assert.False(t, newerThanCurrent("not-a-version", "1.0.0"))
}

func TestCheckCachesRelease(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name": "v99.0.0", "html_url": "https://example.com/rel/v99.0.0"}`))
	}))
	defer srv.Close()

	checker := NewChecker(zerolog.Nop())
	checker.releasesURL = srv.URL

	require.NoError(t, checker.Check(context.Background()))

	status := checker.Status()
	assert.Equal(t, buildinfo.Version, status.CurrentVersion)
	require.NotNil(t, status.Latest)
	assert.Equal(t, "v99.0.0", status.Latest.TagName)
	assert.False(t, status.CheckedAt.IsZero())
}

func TestCheckNonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer srv.Close()

	checker := NewChecker(zerolog.Nop())
	checker.releasesURL = srv.URL

	err := checker.Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
