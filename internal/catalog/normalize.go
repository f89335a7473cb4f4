// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package catalog

import "strings"

// Book is a normalized catalog search result.
type Book struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Description   string   `json:"description,omitempty"`
	PublishedDate string   `json:"publishedDate,omitempty"`
	PageCount     int      `json:"pageCount,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Language      string   `json:"language,omitempty"`
	ThumbnailURL  string   `json:"thumbnailUrl,omitempty"`
	ISBN          string   `json:"isbn,omitempty"`
}

// Volume is the upstream catalog record as returned by the volumes endpoint.
type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

// VolumeInfo carries the volume metadata the normalizer cares about.
type VolumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors"`
	Description         string               `json:"description"`
	PublishedDate       string               `json:"publishedDate"`
	PageCount           int                  `json:"pageCount"`
	Categories          []string             `json:"categories"`
	Language            string               `json:"language"`
	ImageLinks          *ImageLinks          `json:"imageLinks"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
}

// IndustryIdentifier is one ISBN entry on a volume.
type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// ImageLinks holds cover URLs, frequently served over plain HTTP upstream.
type ImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}

// Normalize maps raw volumes into Books. Authors are always non-nil,
// the 13-digit ISBN wins over the 10-digit one, and thumbnail URLs are
// upgraded to HTTPS.
func Normalize(volumes []Volume) []Book {
	books := make([]Book, 0, len(volumes))
	for _, v := range volumes {
		info := v.VolumeInfo

		authors := info.Authors
		if authors == nil {
			authors = []string{}
		}

		books = append(books, Book{
			ID:            v.ID,
			Title:         info.Title,
			Authors:       authors,
			Description:   info.Description,
			PublishedDate: info.PublishedDate,
			PageCount:     info.PageCount,
			Categories:    info.Categories,
			Language:      info.Language,
			ThumbnailURL:  secureThumbnail(info.ImageLinks),
			ISBN:          pickISBN(info.IndustryIdentifiers),
		})
	}

	return books
}

// pickISBN prefers ISBN_13 over ISBN_10 when both identifiers are present.
func pickISBN(identifiers []IndustryIdentifier) string {
	var isbn10 string
	for _, id := range identifiers {
		switch id.Type {
		case "ISBN_13":
			return id.Identifier
		case "ISBN_10":
			if isbn10 == "" {
				isbn10 = id.Identifier
			}
		}
	}
	return isbn10
}

func secureThumbnail(links *ImageLinks) string {
	if links == nil {
		return ""
	}

	url := links.Thumbnail
	if url == "" {
		url = links.SmallThumbnail
	}

	return strings.Replace(url, "http://", "https://", 1)
}
