// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evolibrary/evolibrary/internal/dbinterface"
)

// ErrBookNotFound is returned when the requested book does not exist.
var ErrBookNotFound = errors.New("book not found")

// Book statuses as tracked by the library.
const (
	BookStatusWanted      = "wanted"
	BookStatusMonitoring  = "monitoring"
	BookStatusDownloading = "downloading"
	BookStatusAvailable   = "available"
)

// Book is a library entry. The evolution/achievement engine derives its
// stage from the total count of these.
type Book struct {
	ID         int       `json:"id"`
	Title      string    `json:"title"`
	AuthorName string    `json:"author_name"`
	ISBN       *string   `json:"isbn,omitempty"`
	Language   string    `json:"language"`
	MediaType  string    `json:"media_type"`
	Monitored  bool      `json:"monitored"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// BookStats summarizes the library for the achievement engine and the UI.
type BookStats struct {
	TotalBooks     int `json:"total_books"`
	MonitoredBooks int `json:"monitored_books"`
	Downloading    int `json:"downloading"`
}

// BookStore persists library entries.
type BookStore struct {
	db dbinterface.Querier
}

// NewBookStore constructs a book store.
func NewBookStore(db dbinterface.Querier) *BookStore {
	return &BookStore{db: db}
}

// Add inserts a new library entry.
func (s *BookStore) Add(ctx context.Context, book *Book) (*Book, error) {
	if book == nil {
		return nil, fmt.Errorf("book cannot be nil")
	}
	if strings.TrimSpace(book.Title) == "" {
		return nil, fmt.Errorf("book title is required")
	}
	if book.Language == "" {
		book.Language = "en"
	}
	if book.MediaType == "" {
		book.MediaType = "ebook"
	}
	if book.Status == "" {
		book.Status = BookStatusWanted
	}

	const query = `
		INSERT INTO books (title, author_name, isbn, language, media_type, monitored, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		book.Title, book.AuthorName, book.ISBN, book.Language, book.MediaType, book.Monitored, book.Status,
	).Scan(&book.ID, &book.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("add book: %w", err)
	}

	return book, nil
}

// List returns all library entries, newest first.
func (s *BookStore) List(ctx context.Context) ([]*Book, error) {
	const query = `
		SELECT id, title, author_name, isbn, language, media_type, monitored, status, created_at
		FROM books ORDER BY created_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		book := &Book{}
		var isbn sql.NullString
		if err := rows.Scan(
			&book.ID, &book.Title, &book.AuthorName, &isbn,
			&book.Language, &book.MediaType, &book.Monitored, &book.Status, &book.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		if isbn.Valid {
			book.ISBN = &isbn.String
		}
		books = append(books, book)
	}

	return books, rows.Err()
}

// SetStatus updates a book's status and monitored flag.
func (s *BookStore) SetStatus(ctx context.Context, id int, status string, monitored bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE books SET status = ?, monitored = ? WHERE id = ?", status, monitored, id)
	if err != nil {
		return fmt.Errorf("set book status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set book status rows affected: %w", err)
	}
	if affected == 0 {
		return ErrBookNotFound
	}

	return nil
}

// Stats returns the library summary.
func (s *BookStore) Stats(ctx context.Context) (*BookStats, error) {
	const query = `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN monitored THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'downloading' THEN 1 ELSE 0 END), 0)
		FROM books
	`

	stats := &BookStats{}
	if err := s.db.QueryRowContext(ctx, query).Scan(&stats.TotalBooks, &stats.MonitoredBooks, &stats.Downloading); err != nil {
		return nil, fmt.Errorf("book stats: %w", err)
	}

	return stats, nil
}
