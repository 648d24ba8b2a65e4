// Package search provides full-text catalog search using Bleve.
// Books are indexed with their titles, authors, descriptions, and any
// generated summaries, with exact-match filtering on genre.
package search

import (
	"strconv"

	"github.com/librisapp/libris-server/internal/domain"
)

// Document is the indexed representation of a catalog book.
type Document struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Language    string `json:"language,omitempty"`
	PublishYear int    `json:"publish_year,omitempty"`
	CreatedAt   int64  `json:"created_at"` // Unix millis
	UpdatedAt   int64  `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names so they
// match the index mapping. Bleve would otherwise index the capitalized Go
// field names.
func (d *Document) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"title":      d.Title,
		"author":     d.Author,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Summary != "" {
		m["summary"] = d.Summary
	}
	if d.Genre != "" {
		m["genre"] = d.Genre
	}
	if d.Language != "" {
		m["language"] = d.Language
	}
	if d.PublishYear > 0 {
		m["publish_year"] = d.PublishYear
	}

	return m
}

// FromBook converts a domain Book to its indexed document. The genre is
// normalized so filter queries match regardless of catalog casing.
func FromBook(book *domain.Book) *Document {
	doc := &Document{
		ID:          book.ID,
		Title:       book.Title,
		Author:      book.Author,
		Description: book.Description,
		Genre:       domain.NormalizeToken(book.Genre),
		Language:    book.Language,
		CreatedAt:   book.CreatedAt.UnixMilli(),
		UpdatedAt:   book.UpdatedAt.UnixMilli(),
	}
	if book.PublishYear != "" {
		if year, err := strconv.Atoi(book.PublishYear); err == nil {
			doc.PublishYear = year
		}
	}
	if book.Summary != nil {
		doc.Summary = *book.Summary
	}
	return doc
}
