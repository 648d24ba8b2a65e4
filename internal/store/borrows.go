package store

import (
	"context"
	"database/sql"

	"github.com/librisapp/libris-server/internal/domain"
)

// borrowColumns is the ordered list of columns selected in borrow queries.
// Must match the scan order in scanBorrow.
const borrowColumns = `id, created_at, updated_at, user_id, book_id, borrowed_at, returned_at`

// scanBorrow scans a sql.Row (or sql.Rows via its Scan method) into a domain.BorrowRecord.
func scanBorrow(scanner interface{ Scan(dest ...any) error }) (*domain.BorrowRecord, error) {
	var r domain.BorrowRecord

	var (
		createdAt  string
		updatedAt  string
		borrowedAt string
		returnedAt sql.NullString
	)

	err := scanner.Scan(
		&r.ID,
		&createdAt,
		&updatedAt,
		&r.UserID,
		&r.BookID,
		&borrowedAt,
		&returnedAt,
	)
	if err != nil {
		return nil, err
	}

	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	r.BorrowedAt, err = parseTime(borrowedAt)
	if err != nil {
		return nil, err
	}
	r.ReturnedAt, err = parseNullableTime(returnedAt)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// CreateBorrow inserts a new borrow record. The partial unique index on open
// loans backs the one-open-loan-per-pair invariant at the storage layer;
// a second open loan for the same (user, book) returns ErrConflict.
func (s *Store) CreateBorrow(ctx context.Context, rec *domain.BorrowRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO borrow_records (id, created_at, updated_at, user_id, book_id, borrowed_at, returned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		formatTime(rec.CreatedAt),
		formatTime(rec.UpdatedAt),
		rec.UserID,
		rec.BookID,
		formatTime(rec.BorrowedAt),
		nullTimeString(rec.ReturnedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// GetBorrow retrieves a borrow record by ID.
// Returns ErrNotFound if the record does not exist.
func (s *Store) GetBorrow(ctx context.Context, id string) (*domain.BorrowRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+borrowColumns+` FROM borrow_records WHERE id = ?`, id)

	r, err := scanBorrow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetOpenBorrow retrieves the open loan for a (user, book) pair, if any.
// Returns ErrNotFound when the user does not currently hold the book.
func (s *Store) GetOpenBorrow(ctx context.Context, userID, bookID string) (*domain.BorrowRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+borrowColumns+` FROM borrow_records
		 WHERE user_id = ? AND book_id = ? AND returned_at IS NULL`, userID, bookID)

	r, err := scanBorrow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateBorrow performs a full row update on an existing borrow record.
// Returns ErrNotFound if the record does not exist.
func (s *Store) UpdateBorrow(ctx context.Context, rec *domain.BorrowRecord) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE borrow_records SET updated_at = ?, borrowed_at = ?, returned_at = ?
		WHERE id = ?`,
		formatTime(rec.UpdatedAt),
		formatTime(rec.BorrowedAt),
		nullTimeString(rec.ReturnedAt),
		rec.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBorrowsByUser returns all of a user's borrow records, newest first.
func (s *Store) ListBorrowsByUser(ctx context.Context, userID string) ([]*domain.BorrowRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+borrowColumns+` FROM borrow_records
		 WHERE user_id = ? ORDER BY borrowed_at DESC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBorrows(rows)
}

// OpenBorrowedBookIDs returns the ids of books the user currently holds.
func (s *Store) OpenBorrowedBookIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT book_id FROM borrow_records
		 WHERE user_id = ? AND returned_at IS NULL ORDER BY book_id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectIDs(rows)
}

// BorrowedBookIDs returns the distinct ids of books the user has ever borrowed.
func (s *Store) BorrowedBookIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT book_id FROM borrow_records
		 WHERE user_id = ? ORDER BY book_id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectIDs(rows)
}

// BorrowSetsForBooks returns, for every user other than excludeUserID who has
// borrowed at least one of the given books, that user's full set of ever-borrowed
// book ids. The collaborative generator builds similarity from these sets.
func (s *Store) BorrowSetsForBooks(ctx context.Context, bookIDs []string, excludeUserID string) (map[string][]string, error) {
	if len(bookIDs) == 0 {
		return map[string][]string{}, nil
	}

	placeholders, args := inClause(bookIDs)
	args = append(args, excludeUserID)

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT user_id, book_id FROM borrow_records
		WHERE user_id IN (
			SELECT DISTINCT user_id FROM borrow_records WHERE book_id IN (`+placeholders+`)
		) AND user_id != ?
		ORDER BY user_id ASC, book_id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sets := make(map[string][]string)
	for rows.Next() {
		var userID, bookID string
		if err := rows.Scan(&userID, &bookID); err != nil {
			return nil, err
		}
		sets[userID] = append(sets[userID], bookID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sets, nil
}

// collectBorrows drains rows into a slice of borrow records.
func collectBorrows(rows *sql.Rows) ([]*domain.BorrowRecord, error) {
	var recs []*domain.BorrowRecord
	for rows.Next() {
		r, err := scanBorrow(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// collectIDs drains a single-column id result set.
func collectIDs(rows *sql.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// inClause builds a placeholder list and argument slice for an IN query.
func inClause(ids []string) (string, []any) {
	placeholders := make([]byte, 0, len(ids)*2)
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, id)
	}
	return string(placeholders), args
}
