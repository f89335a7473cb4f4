// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog"

	"github.com/evolibrary/evolibrary/internal/buildinfo"
	"github.com/evolibrary/evolibrary/internal/models"
)

// SearchError is a non-success response from an aggregator that cannot be
// interpreted as "temporarily unavailable with no results".
type SearchError struct {
	Indexer    string
	StatusCode int
	Message    string
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("indexer %q search failed (status %d): %s", e.Indexer, e.StatusCode, e.Message)
}

// UnavailableError reports that no indexer produced results because none
// could be reached. Distinct from a successful search with zero matches.
type UnavailableError struct {
	Reason string
}

func (e *UnavailableError) Error() string {
	return "indexers unavailable: " + e.Reason
}

// Client queries a single aggregator instance.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient constructs a client for one configured aggregator.
func NewClient(cfg *models.Indexer, logger zerolog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		name:    cfg.Name,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		log:     logger.With().Str("component", "indexer").Str("indexer", cfg.Name).Logger(),
	}
}

// Search queries the aggregator's search endpoint for book-category releases.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("type", "search")
	params.Set("limit", "100")
	params.Add("categories", "7000") // books root category

	endpoint := c.baseURL + "/api/v1/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build indexer request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("indexer %q request: %w", c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read indexer %q response: %w", c.name, err)
	}

	results, err := c.decodeSearchResponse(resp.StatusCode, body)
	if err != nil {
		return nil, err
	}

	c.log.Debug().Str("query", query).Int("results", len(results)).Msg("indexer search completed")
	return results, nil
}

// rawRelease tolerates both Prowlarr-style and Jackett-style field names.
// JSON field matching is case-insensitive, so shared names like title and
// seeders decode from either source.
type rawRelease struct {
	Title       string          `json:"title"`
	DownloadURL string          `json:"downloadUrl"`
	MagnetURL   string          `json:"magnetUrl"`
	Link        string          `json:"link"`
	GUID        string          `json:"guid"`
	IndexerID   int             `json:"indexerId"`
	Indexer     string          `json:"indexer"`
	Tracker     string          `json:"tracker"`
	Size        int64           `json:"size"`
	Seeders     int             `json:"seeders"`
	Protocol    string          `json:"protocol"`
	PublishDate string          `json:"publishDate"`
	InfoURL     string          `json:"infoUrl"`
	Categories  json.RawMessage `json:"categories"`
}

type wrappedReleases struct {
	Results []rawRelease `json:"results"`
}

// decodeSearchResponse accepts either a bare array of releases or an
// object wrapping them in a results field. An error-class status with an
// empty (or undecodable) result set means the aggregator is unavailable,
// which callers must not confuse with a successful zero-match search.
func (c *Client) decodeSearchResponse(statusCode int, body []byte) ([]Result, error) {
	releases, decodeErr := decodeReleases(body)

	if statusCode < 200 || statusCode >= 300 {
		if decodeErr != nil || len(releases) == 0 {
			return nil, &UnavailableError{
				Reason: fmt.Sprintf("%s returned status %d with no results", c.name, statusCode),
			}
		}
		return nil, &SearchError{Indexer: c.name, StatusCode: statusCode, Message: http.StatusText(statusCode)}
	}

	if decodeErr != nil {
		return nil, &SearchError{Indexer: c.name, StatusCode: statusCode, Message: "malformed search response"}
	}

	results := make([]Result, 0, len(releases))
	for _, raw := range releases {
		results = append(results, c.normalizeRelease(raw))
	}

	return results, nil
}

func decodeReleases(body []byte) ([]rawRelease, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	if trimmed[0] == '[' {
		var releases []rawRelease
		if err := json.Unmarshal(trimmed, &releases); err != nil {
			return nil, fmt.Errorf("decode release array: %w", err)
		}
		return releases, nil
	}

	var wrapped wrappedReleases
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode wrapped releases: %w", err)
	}
	return wrapped.Results, nil
}

func (c *Client) normalizeRelease(raw rawRelease) Result {
	downloadURL := raw.DownloadURL
	if downloadURL == "" {
		downloadURL = raw.MagnetURL
	}
	if downloadURL == "" {
		downloadURL = raw.Link
	}

	indexerName := raw.Indexer
	if indexerName == "" {
		indexerName = raw.Tracker
	}
	if indexerName == "" {
		indexerName = c.name
	}

	protocol := raw.Protocol
	if protocol == "" {
		protocol = "torrent"
	}

	return Result{
		Title:       raw.Title,
		DownloadURL: downloadURL,
		IndexerID:   raw.IndexerID,
		Indexer:     indexerName,
		Size:        raw.Size,
		SizeMB:      sizeMB(raw.Size),
		SizeHuman:   sizeHuman(raw.Size),
		Seeders:     raw.Seeders,
		Protocol:    protocol,
		PublishDate: raw.PublishDate,
		InfoURL:     raw.InfoURL,
		Categories:  parseCategories(raw.Categories),
		FileFormat:  detectFileFormat(raw.Title),
	}
}

// parseCategories handles both [{"id":7020,"name":"Books/EBook"}] and
// plain string arrays.
func parseCategories(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}

	var objects []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &objects); err == nil {
		names := make([]string, 0, len(objects))
		for _, obj := range objects {
			if obj.Name != "" {
				names = append(names, obj.Name)
			} else if obj.ID != 0 {
				names = append(names, strconv.Itoa(obj.ID))
			}
		}
		return names
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		return names
	}

	return []string{}
}

// Ping verifies the aggregator answers at all, retrying transient
// failures a few times. Used by the connectivity test endpoint, never by
// the search path.
func (c *Client) Ping(ctx context.Context) error {
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/health", nil)
			if err != nil {
				return err
			}
			req.Header.Set("X-Api-Key", c.apiKey)
			req.Header.Set("User-Agent", buildinfo.UserAgent())

			resp, err := c.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

			if resp.StatusCode >= 500 {
				return fmt.Errorf("indexer %q health check returned status %d", c.name, resp.StatusCode)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
}
