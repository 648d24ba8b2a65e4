package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/librisapp/libris-server/internal/domain"
	apperrors "github.com/librisapp/libris-server/internal/errors"
	"github.com/librisapp/libris-server/internal/id"
	"github.com/librisapp/libris-server/internal/store"
)

// ReviewService manages reviews and their asynchronous sentiment analysis.
type ReviewService struct {
	store       *store.Store
	recommender Recommender
	logger      *slog.Logger

	scheduler Scheduler
}

// NewReviewService creates a new review service.
func NewReviewService(st *store.Store, recommender Recommender, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		store:       st,
		recommender: recommender,
		logger:      logger,
	}
}

// SetScheduler wires the enrichment scheduler after construction.
func (s *ReviewService) SetScheduler(scheduler Scheduler) {
	s.scheduler = scheduler
}

// CreateReview records a user's review of a book they have borrowed at some
// point. One review per (user, book) pair; sentiment analysis is scheduled
// asynchronously when the review carries text.
func (s *ReviewService) CreateReview(ctx context.Context, userID, bookID string, rating int, text string) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.Validation("rating must be between 1 and 5")
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, err
	}

	borrowed, err := s.store.BorrowedBookIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list borrowed books: %w", err)
	}
	if !slices.Contains(borrowed, bookID) {
		return nil, apperrors.InvariantViolation("user must borrow a book before reviewing it")
	}

	reviewID, err := id.Generate(id.PrefixReview)
	if err != nil {
		return nil, fmt.Errorf("generate review id: %w", err)
	}

	review := &domain.Review{
		UserID: userID,
		BookID: bookID,
		Rating: rating,
		Text:   strings.TrimSpace(text),
	}
	review.ID = reviewID
	review.InitTimestamps()

	if err := s.store.CreateReview(ctx, review); err != nil {
		if apperrors.Is(err, store.ErrAlreadyExists) {
			return nil, apperrors.AlreadyExists("user has already reviewed this book")
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.logger.Info("review created", "review_id", review.ID, "user_id", userID, "book_id", bookID, "rating", rating)

	if s.scheduler != nil && review.Text != "" {
		s.scheduler.Schedule(domain.EnrichReviewSentiment, review.ID)
	}
	s.recomputePreferences(ctx, userID)

	return review, nil
}

// ListBookReviews returns all reviews of a book, with captured sentiments.
func (s *ReviewService) ListBookReviews(ctx context.Context, bookID string) ([]*domain.Review, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.store.ListReviewsByBook(ctx, bookID)
}

// ListUserReviews returns all reviews written by a user.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID string) ([]*domain.Review, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListReviewsByUser(ctx, userID)
}

// DeleteReview removes a review; only its author may delete it.
func (s *ReviewService) DeleteReview(ctx context.Context, userID, reviewID string) error {
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != userID {
		return apperrors.Forbidden("only the author can delete a review")
	}

	if err := s.store.DeleteReview(ctx, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	s.recomputePreferences(ctx, userID)
	return nil
}

func (s *ReviewService) recomputePreferences(ctx context.Context, userID string) {
	if s.recommender == nil {
		return
	}
	if _, err := s.recommender.RecomputePreferences(ctx, userID); err != nil {
		s.logger.Warn("preference recompute failed", "user_id", userID, "error", err)
	}
}
