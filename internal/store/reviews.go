package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/librisapp/libris-server/internal/domain"
)

// reviewColumns selects reviews joined with their optional sentiment row.
// Must match the scan order in scanReview.
const reviewColumns = `r.id, r.created_at, r.updated_at, r.user_id, r.book_id, r.rating, r.body,
	s.label, s.confidence`

const reviewFrom = ` FROM reviews r LEFT JOIN sentiments s ON s.review_id = r.id`

// scanReview scans a joined review+sentiment row into a domain.Review.
func scanReview(scanner interface{ Scan(dest ...any) error }) (*domain.Review, error) {
	var r domain.Review

	var (
		createdAt  string
		updatedAt  string
		label      sql.NullString
		confidence sql.NullFloat64
	)

	err := scanner.Scan(
		&r.ID,
		&createdAt,
		&updatedAt,
		&r.UserID,
		&r.BookID,
		&r.Rating,
		&r.Text,
		&label,
		&confidence,
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

	if label.Valid {
		r.Sentiment = &domain.Sentiment{
			Label:      domain.SentimentLabel(label.String),
			Confidence: confidence.Float64,
		}
	}

	return &r, nil
}

// CreateReview inserts a new review.
// Returns ErrAlreadyExists if the user has already reviewed the book.
func (s *Store) CreateReview(ctx context.Context, review *domain.Review) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, created_at, updated_at, user_id, book_id, rating, body)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		review.ID,
		formatTime(review.CreatedAt),
		formatTime(review.UpdatedAt),
		review.UserID,
		review.BookID,
		review.Rating,
		review.Text,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetReview retrieves a review by ID with its sentiment, if analyzed.
// Returns ErrNotFound if the review does not exist.
func (s *Store) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+reviewFrom+` WHERE r.id = ?`, id)

	r, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetReviewByUserAndBook retrieves a user's review of a book.
// Returns ErrNotFound if the user has not reviewed the book.
func (s *Store) GetReviewByUserAndBook(ctx context.Context, userID, bookID string) (*domain.Review, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+reviewFrom+` WHERE r.user_id = ? AND r.book_id = ?`, userID, bookID)

	r, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListReviewsByBook returns all reviews for a book, newest first.
func (s *Store) ListReviewsByBook(ctx context.Context, bookID string) ([]*domain.Review, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reviewColumns+reviewFrom+` WHERE r.book_id = ?
		 ORDER BY r.created_at DESC, r.id ASC`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReviews(rows)
}

// ListReviewsByUser returns all reviews written by a user, newest first.
func (s *Store) ListReviewsByUser(ctx context.Context, userID string) ([]*domain.Review, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reviewColumns+reviewFrom+` WHERE r.user_id = ?
		 ORDER BY r.created_at DESC, r.id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReviews(rows)
}

// DeleteReview removes a review and, via cascade, its sentiment row.
// Returns ErrNotFound if the review does not exist.
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
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

// UpsertSentiment writes the derived sentiment for a review. The write is an
// overwrite; a duplicate success replaces the previous row rather than adding
// a second one. Returns ErrNotFound if the review no longer exists, which the
// enrichment pipeline treats as a skip.
func (s *Store) UpsertSentiment(ctx context.Context, reviewID string, sentiment domain.Sentiment) error {
	now := formatTime(time.Now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sentiments (review_id, label, confidence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (review_id) DO UPDATE SET
			label = excluded.label,
			confidence = excluded.confidence,
			updated_at = excluded.updated_at`,
		reviewID,
		string(sentiment.Label),
		sentiment.Confidence,
		now,
		now,
	)
	if err != nil {
		// A FOREIGN KEY failure means the review was deleted mid-enrichment.
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// collectReviews drains rows into a slice of reviews.
func collectReviews(rows *sql.Rows) ([]*domain.Review, error) {
	var reviews []*domain.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}
