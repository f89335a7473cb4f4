// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package indexer

import "strings"

// Aggregators lump video releases into the same search feed. These lists
// classify a release by file format and by common release-name markers.
var videoFormats = map[string]struct{}{
	"mp4": {}, "avi": {}, "mkv": {}, "mov": {}, "wmv": {}, "flv": {}, "webm": {},
	"m4v": {}, "mpg": {}, "mpeg": {}, "ts": {}, "vob": {}, "3gp": {}, "ogv": {},
	"divx": {}, "xvid": {}, "rm": {}, "rmvb": {}, "asf": {}, "qt": {},
}

var movieIndicators = []string{
	"bluray", "blu-ray", "webrip", "web-dl", "hdtv", "brrip",
	"1080p", "720p", "2160p", "4k", "x264", "x265", "hevc",
	"dvdrip", "cam", "hdrip", "proper", "repack", "remux",
	"web.dl", "webdl", "hdcam", "screener", "dvdscr",
	"s01e", "s02e", "s03e", "s04e", "s05e",
	"season", "complete.series",
}

var bookIndicators = []string{
	"epub", "mobi", "azw", "azw3", "cbz", "cbr", "cb7", "cbt",
	"m4b", "audiobook", "comic", "manga", "graphic.novel",
	"ebook", "e-book", "magazine", "pdf",
}

// filterVideos drops releases that are clearly movies or TV. A release
// carrying a book indicator always passes, even when it also matches a
// movie marker (e.g. an audiobook rip tagged "complete series").
func filterVideos(results []Result) []Result {
	kept := make([]Result, 0, len(results))
	for _, result := range results {
		if isVideo(result) {
			continue
		}
		kept = append(kept, result)
	}
	return kept
}

func isVideo(result Result) bool {
	if result.FileFormat != "" {
		if _, ok := videoFormats[strings.ToLower(result.FileFormat)]; ok {
			return true
		}
	}

	title := strings.ToLower(result.Title)

	for _, indicator := range bookIndicators {
		if strings.Contains(title, indicator) {
			return false
		}
	}

	for _, indicator := range movieIndicators {
		if strings.Contains(title, indicator) {
			return true
		}
	}

	return false
}
