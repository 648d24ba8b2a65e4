package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/librisapp/libris-server/internal/domain"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `id, created_at, updated_at, title, author, isbn, genre,
	description, publish_year, language, summary, file_key, total_copies, available_copies`

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a domain.Book.
func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var b domain.Book

	var (
		createdAt   string
		updatedAt   string
		isbn        sql.NullString
		genre       sql.NullString
		description sql.NullString
		publishYear sql.NullString
		language    sql.NullString
		summary     sql.NullString
		fileKey     sql.NullString
	)

	err := scanner.Scan(
		&b.ID,
		&createdAt,
		&updatedAt,
		&b.Title,
		&b.Author,
		&isbn,
		&genre,
		&description,
		&publishYear,
		&language,
		&summary,
		&fileKey,
		&b.TotalCopies,
		&b.AvailableCopies,
	)
	if err != nil {
		return nil, err
	}

	b.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	b.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	b.ISBN = isbn.String
	b.Genre = genre.String
	b.Description = description.String
	b.PublishYear = publishYear.String
	b.Language = language.String
	if summary.Valid {
		b.Summary = &summary.String
	}
	b.FileKey = fileKey.String

	return &b, nil
}

// CreateBook inserts a new book into the catalog.
// Returns ErrAlreadyExists if the book ID already exists.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (
			id, created_at, updated_at, title, author, isbn, genre,
			description, publish_year, language, summary, file_key, total_copies, available_copies
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID,
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
		book.Title,
		book.Author,
		nullString(book.ISBN),
		nullString(book.Genre),
		nullString(book.Description),
		nullString(book.PublishYear),
		nullString(book.Language),
		nullableString(book.Summary),
		nullString(book.FileKey),
		book.TotalCopies,
		book.AvailableCopies,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return err
	}

	s.indexBook(ctx, book)
	return nil
}

// GetBook retrieves a book by ID.
// Returns ErrNotFound if the book does not exist.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, id)

	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListBooks returns a paginated list of books ordered by created_at, id.
// The optional genre filter matches case-insensitively.
func (s *Store) ListBooks(ctx context.Context, genre string, params PaginationParams) (*PaginatedResult[*domain.Book], error) {
	params.Validate()

	afterCreated, afterID, err := decodeCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + bookColumns + ` FROM books WHERE 1=1`
	args := []any{}
	if genre != "" {
		query += ` AND genre = ? COLLATE NOCASE`
		args = append(args, genre)
	}
	if afterID != "" {
		query += ` AND (created_at, id) > (?, ?)`
		args = append(args, afterCreated, afterID)
	}
	// Fetch one extra row to detect whether another page exists.
	query += ` ORDER BY created_at ASC, id ASC LIMIT ?`
	args = append(args, params.Limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &PaginatedResult[*domain.Book]{Items: books}
	if len(books) > params.Limit {
		result.Items = books[:params.Limit]
		last := result.Items[len(result.Items)-1]
		result.NextCursor = encodeCursor(formatTime(last.CreatedAt), last.ID)
		result.HasMore = true
	}
	return result, nil
}

// ListAllBooks returns every book in the catalog ordered by id.
// The ranking engine uses this for catalog-wide scoring passes.
func (s *Store) ListAllBooks(ctx context.Context) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// UpdateBook performs a full row update on an existing book.
// Returns ErrNotFound if the book does not exist.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE books SET updated_at = ?, title = ?, author = ?, isbn = ?, genre = ?,
			description = ?, publish_year = ?, language = ?, summary = ?,
			file_key = ?, total_copies = ?, available_copies = ?
		WHERE id = ?`,
		formatTime(book.UpdatedAt),
		book.Title,
		book.Author,
		nullString(book.ISBN),
		nullString(book.Genre),
		nullString(book.Description),
		nullString(book.PublishYear),
		nullString(book.Language),
		nullableString(book.Summary),
		nullString(book.FileKey),
		book.TotalCopies,
		book.AvailableCopies,
		book.ID,
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

	s.indexBook(ctx, book)
	return nil
}

// SetBookSummary writes the derived summary for a book. The write is an
// overwrite; a duplicate success replaces the previous value rather than
// appending. Returns ErrNotFound if the book no longer exists, which the
// enrichment pipeline treats as a skip.
func (s *Store) SetBookSummary(ctx context.Context, bookID, summary string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE books SET summary = ?, updated_at = ? WHERE id = ?`,
		summary, formatTime(time.Now()), bookID)
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

// DeleteBook removes a book and, via cascade, its borrows and reviews.
// Returns ErrNotFound if the book does not exist.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
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

	s.unindexBook(ctx, id)
	return nil
}

// CountBooks returns the number of books in the catalog.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&count)
	return count, err
}

// AdjustAvailableCopies atomically changes a book's available copy count by
// delta, keeping it within [0, total_copies]. Returns ErrConflict when the
// adjustment would leave the range, e.g. borrowing the last copy twice.
func (s *Store) AdjustAvailableCopies(ctx context.Context, bookID string, delta int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE books SET available_copies = available_copies + ?, updated_at = ?
		WHERE id = ?
		  AND available_copies + ? >= 0
		  AND available_copies + ? <= total_copies`,
		delta, formatTime(time.Now()), bookID, delta, delta)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing book from an out-of-range adjustment.
		if _, err := s.GetBook(ctx, bookID); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}
