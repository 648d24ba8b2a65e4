package domain

import "time"

// BorrowRecord represents a single loan of a book to a user.
// A loan is open while ReturnedAt is nil; a user can hold at most one
// open loan per title at a time.
type BorrowRecord struct {
	Entity
	UserID     string     `json:"user_id"`
	BookID     string     `json:"book_id"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

// IsOpen reports whether the loan has not been returned yet.
func (r *BorrowRecord) IsOpen() bool {
	return r.ReturnedAt == nil
}

// MarkReturned closes the loan at the given time.
func (r *BorrowRecord) MarkReturned(at time.Time) {
	r.ReturnedAt = &at
	r.UpdatedAt = at
}
