// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package catalog talks to the Google Books volumes API and normalizes
// its responses into the shape the rest of the application renders.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/evolibrary/evolibrary/internal/buildinfo"
)

const defaultMaxResults = 20

// SearchError is a non-success response from the catalog backend.
type SearchError struct {
	StatusCode int
	Message    string
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("catalog search failed (status %d): %s", e.StatusCode, e.Message)
}

// Client queries the catalog volumes endpoint.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
	log      zerolog.Logger
}

// NewClient constructs a catalog client. The endpoint is the full
// volumes URL, e.g. https://www.googleapis.com/books/v1/volumes.
func NewClient(endpoint, apiKey string, logger zerolog.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      logger.With().Str("component", "catalog").Logger(),
	}
}

type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

// Search runs a catalog query and returns normalized books. An empty
// language applies no language restriction.
func (c *Client) Search(ctx context.Context, query, language string) ([]Book, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(defaultMaxResults))
	if language != "" {
		params.Set("langRestrict", language)
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read catalog response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Debug().Int("status", resp.StatusCode).Str("query", query).Msg("catalog returned non-success status")
		return nil, &SearchError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var payload volumesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &SearchError{StatusCode: resp.StatusCode, Message: "malformed catalog response"}
	}

	books := Normalize(payload.Items)
	c.log.Debug().Str("query", query).Int("results", len(books)).Msg("catalog search completed")

	return books, nil
}
