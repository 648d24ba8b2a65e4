package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/librisapp/libris-server/internal/domain"
	apperrors "github.com/librisapp/libris-server/internal/errors"
	"github.com/librisapp/libris-server/internal/id"
	"github.com/librisapp/libris-server/internal/store"
)

// BorrowService manages the loan lifecycle and keeps preference vectors
// current as borrow history changes.
type BorrowService struct {
	store       *store.Store
	recommender Recommender
	logger      *slog.Logger
}

// NewBorrowService creates a new borrow service.
func NewBorrowService(st *store.Store, recommender Recommender, logger *slog.Logger) *BorrowService {
	return &BorrowService{
		store:       st,
		recommender: recommender,
		logger:      logger,
	}
}

// BorrowBook opens a loan of bookID to userID. A user cannot hold two open
// loans of the same book, and a loan requires an available copy; both are
// rejected before anything is persisted.
func (s *BorrowService) BorrowBook(ctx context.Context, userID, bookID string) (*domain.BorrowRecord, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	if open, err := s.store.GetOpenBorrow(ctx, userID, bookID); err == nil && open != nil {
		return nil, apperrors.InvariantViolation("user already holds an open loan of this book")
	} else if err != nil && !apperrors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check open loan: %w", err)
	}

	// Claim a copy first; the guarded decrement refuses to go below zero.
	if err := s.store.AdjustAvailableCopies(ctx, bookID, -1); err != nil {
		if apperrors.Is(err, store.ErrConflict) {
			return nil, apperrors.InvariantViolation("no copies available")
		}
		return nil, err
	}

	recordID, err := id.Generate(id.PrefixBorrow)
	if err != nil {
		s.releaseCopy(ctx, bookID)
		return nil, fmt.Errorf("generate borrow id: %w", err)
	}

	rec := &domain.BorrowRecord{
		UserID:     userID,
		BookID:     bookID,
		BorrowedAt: time.Now().UTC(),
	}
	rec.ID = recordID
	rec.InitTimestamps()

	if err := s.store.CreateBorrow(ctx, rec); err != nil {
		s.releaseCopy(ctx, bookID)
		if apperrors.Is(err, store.ErrConflict) {
			// Lost a race with a concurrent borrow of the same pair.
			return nil, apperrors.InvariantViolation("user already holds an open loan of this book")
		}
		return nil, fmt.Errorf("create borrow: %w", err)
	}

	s.logger.Info("book borrowed", "user_id", userID, "book_id", bookID)
	s.recomputePreferences(ctx, userID)

	return rec, nil
}

// ReturnBook closes the user's open loan of bookID and releases the copy.
func (s *BorrowService) ReturnBook(ctx context.Context, userID, bookID string) (*domain.BorrowRecord, error) {
	rec, err := s.store.GetOpenBorrow(ctx, userID, bookID)
	if err != nil {
		if apperrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("no open loan of this book")
		}
		return nil, err
	}

	rec.MarkReturned(time.Now().UTC())
	if err := s.store.UpdateBorrow(ctx, rec); err != nil {
		return nil, fmt.Errorf("close borrow: %w", err)
	}
	s.releaseCopy(ctx, bookID)

	s.logger.Info("book returned", "user_id", userID, "book_id", bookID)
	s.recomputePreferences(ctx, userID)

	return rec, nil
}

// ListUserBorrows returns a user's borrow history, newest first.
func (s *BorrowService) ListUserBorrows(ctx context.Context, userID string) ([]*domain.BorrowRecord, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListBorrowsByUser(ctx, userID)
}

func (s *BorrowService) releaseCopy(ctx context.Context, bookID string) {
	if err := s.store.AdjustAvailableCopies(ctx, bookID, 1); err != nil {
		s.logger.Warn("failed to release copy", "book_id", bookID, "error", err)
	}
}

// recomputePreferences refreshes the stored vector in the background of the
// request. Failures are logged only; the next recommendation request
// recomputes from scratch anyway.
func (s *BorrowService) recomputePreferences(ctx context.Context, userID string) {
	if s.recommender == nil {
		return
	}
	if _, err := s.recommender.RecomputePreferences(ctx, userID); err != nil {
		s.logger.Warn("preference recompute failed", "user_id", userID, "error", err)
	}
}
