// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package indexer fans a query out across the configured download-source
// aggregators (Prowlarr or Jackett instances) and merges, filters and
// ranks their releases.
package indexer

import (
	"path"
	"strings"

	"github.com/dustin/go-humanize"
)

// Result is a normalized release from an aggregator.
type Result struct {
	Title       string   `json:"title"`
	DownloadURL string   `json:"download_url"`
	IndexerID   int      `json:"indexer_id"`
	Indexer     string   `json:"indexer"`
	Size        int64    `json:"size"`
	SizeMB      float64  `json:"size_mb"`
	SizeHuman   string   `json:"size_human"`
	Seeders     int      `json:"seeders"`
	Protocol    string   `json:"protocol"`
	PublishDate string   `json:"publish_date,omitempty"`
	InfoURL     string   `json:"info_url,omitempty"`
	Categories  []string `json:"categories"`
	FileFormat  string   `json:"file_format,omitempty"`
}

// Response is what the search endpoint returns.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

var knownFormats = map[string]struct{}{
	"epub": {}, "mobi": {}, "azw": {}, "azw3": {}, "pdf": {},
	"cbz": {}, "cbr": {}, "cb7": {}, "cbt": {},
	"m4b": {}, "mp3": {}, "flac": {},
	"mp4": {}, "avi": {}, "mkv": {}, "mov": {}, "webm": {},
}

// detectFileFormat guesses the payload format from the release title.
func detectFileFormat(title string) string {
	lower := strings.ToLower(title)

	if ext := strings.TrimPrefix(path.Ext(lower), "."); ext != "" {
		if _, ok := knownFormats[ext]; ok {
			return ext
		}
	}

	for format := range knownFormats {
		if strings.Contains(lower, "."+format) || strings.Contains(lower, "["+format+"]") ||
			strings.Contains(lower, "("+format+")") || strings.HasSuffix(lower, " "+format) {
			return format
		}
	}

	return ""
}

func sizeMB(bytes int64) float64 {
	if bytes <= 0 {
		return 0
	}
	return float64(bytes) / (1024 * 1024)
}

func sizeHuman(bytes int64) string {
	if bytes <= 0 {
		return ""
	}
	return humanize.IBytes(uint64(bytes))
}
