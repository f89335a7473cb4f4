// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package download submits releases to the configured download client and
// tracks which submissions are in flight.
package download

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/evolibrary/evolibrary/internal/buildinfo"
)

// Submission is one download request handed to the gateway.
type Submission struct {
	DownloadURL string `json:"download_url"`
	Title       string `json:"title"`
	MediaType   string `json:"media_type"`
	FileFormat  string `json:"file_format,omitempty"`
	IndexerID   int    `json:"indexer_id,omitempty"`
}

// Gateway hands a submission to a download client.
type Gateway interface {
	Submit(ctx context.Context, sub Submission) error
}

// GatewayError is a failure reported by the download client.
type GatewayError struct {
	Message string
	Code    int
}

func (e *GatewayError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("download client error %d: %s", e.Code, e.Message)
	}
	return "download client error: " + e.Message
}

// DelugeClient submits torrents through the Deluge web API (JSON-RPC
// over /json). Sessions are cookie based; the client logs in lazily and
// re-authenticates when the session expires.
type DelugeClient struct {
	baseURL  string
	password string
	label    string
	client   *http.Client
	log      zerolog.Logger

	mu        sync.Mutex
	requestID int64
	loggedIn  bool
}

// NewDelugeClient constructs a gateway for a Deluge web UI instance.
func NewDelugeClient(baseURL, password, label string, logger zerolog.Logger) *DelugeClient {
	jar, _ := cookiejar.New(nil)

	return &DelugeClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		password: password,
		label:    label,
		client:   &http.Client{Timeout: 30 * time.Second, Jar: jar},
		log:      logger.With().Str("component", "deluge").Logger(),
	}
}

type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
	ID     int64  `json:"id"`
}

type rpcError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
	ID     int64           `json:"id"`
}

// Submit adds the torrent behind sub.DownloadURL and applies the
// configured label when one is set.
func (d *DelugeClient) Submit(ctx context.Context, sub Submission) error {
	if err := d.ensureSession(ctx); err != nil {
		return err
	}

	method := "core.add_torrent_url"
	if strings.HasPrefix(sub.DownloadURL, "magnet:") {
		method = "core.add_torrent_magnet"
	}

	result, err := d.call(ctx, method, []any{sub.DownloadURL, map[string]any{}})
	if err != nil {
		return err
	}

	var torrentID string
	if err := json.Unmarshal(result, &torrentID); err != nil || torrentID == "" {
		// Deluge returns null when the torrent is already present.
		d.log.Warn().Str("title", sub.Title).Msg("download client did not return a torrent id")
		return nil
	}

	if d.label != "" {
		if _, err := d.call(ctx, "label.set_torrent", []any{torrentID, d.label}); err != nil {
			d.log.Warn().Err(err).Str("torrent", torrentID).Msg("failed to apply label")
		}
	}

	d.log.Info().Str("title", sub.Title).Str("torrent", torrentID).Msg("submitted download")
	return nil
}

func (d *DelugeClient) ensureSession(ctx context.Context) error {
	d.mu.Lock()
	loggedIn := d.loggedIn
	d.mu.Unlock()

	if loggedIn {
		return nil
	}

	result, err := d.call(ctx, "auth.login", []any{d.password})
	if err != nil {
		return fmt.Errorf("download client login: %w", err)
	}

	var ok bool
	if err := json.Unmarshal(result, &ok); err != nil || !ok {
		return &GatewayError{Message: "authentication rejected"}
	}

	d.mu.Lock()
	d.loggedIn = true
	d.mu.Unlock()

	return nil
}

func (d *DelugeClient) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	d.mu.Lock()
	d.requestID++
	id := d.requestID
	d.mu.Unlock()

	payload, err := json.Marshal(rpcRequest{Method: method, Params: params, ID: id})
	if err != nil {
		return nil, fmt.Errorf("encode rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
			d.mu.Lock()
			d.loggedIn = false
			d.mu.Unlock()
		}
		return nil, &GatewayError{Message: fmt.Sprintf("rpc %s returned status %d", method, resp.StatusCode)}
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("decode rpc response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, &GatewayError{Message: rpcResp.Error.Message, Code: rpcResp.Error.Code}
	}

	return rpcResp.Result, nil
}
