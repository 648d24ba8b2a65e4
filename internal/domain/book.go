// Package domain contains the core business entities and domain logic for the Libris catalog.
package domain

import "strings"

// Book represents a title in the library catalog. A book may exist in
// multiple physical copies; availability is tracked per title, not per copy.
type Book struct {
	Entity
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	ISBN            string  `json:"isbn,omitempty"`
	Genre           string  `json:"genre,omitempty"` // single free-text label
	Description     string  `json:"description,omitempty"`
	PublishYear     string  `json:"publish_year,omitempty"`
	Language        string  `json:"language,omitempty"`
	Summary         *string `json:"summary,omitempty"` // generated asynchronously, nil until enrichment completes
	FileKey         string  `json:"-"`                 // storage key of the uploaded text, empty if none
	TotalCopies     int     `json:"total_copies"`
	AvailableCopies int     `json:"available_copies"`
}

// Available reports whether at least one copy can be borrowed right now.
func (b *Book) Available() bool {
	return b.AvailableCopies > 0
}

// GenreToken returns the book's genre normalized for preference scoring,
// so "Mystery" and "mystery" count as the same token. Empty if untagged.
func (b *Book) GenreToken() string {
	return NormalizeToken(b.Genre)
}

// NormalizeToken lowercases and trims a genre or author token.
// Preference vectors and content scoring operate on this form.
func NormalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
