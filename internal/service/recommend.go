package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/librisapp/libris-server/internal/domain"
	apperrors "github.com/librisapp/libris-server/internal/errors"
	"github.com/librisapp/libris-server/internal/rank"
	"github.com/librisapp/libris-server/internal/store"
)

// Recommendation pairs a catalog book with its blended score.
type Recommendation struct {
	Book  *domain.Book `json:"book"`
	Score float64      `json:"score"`
}

// RecommendationService exposes the ranking engine's two read surfaces with
// candidate ids resolved back to full books.
type RecommendationService struct {
	store  *store.Store
	engine *rank.Engine
	logger *slog.Logger
}

// NewRecommendationService creates a new recommendation service.
func NewRecommendationService(st *store.Store, engine *rank.Engine, logger *slog.Logger) *RecommendationService {
	return &RecommendationService{
		store:  st,
		engine: engine,
		logger: logger,
	}
}

// GetRecommendations returns up to limit personalized suggestions for a
// user. An empty list is a valid answer, never an error.
func (s *RecommendationService) GetRecommendations(ctx context.Context, userID string, limit int) ([]Recommendation, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	candidates, err := s.engine.Recommendations(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("rank recommendations: %w", err)
	}
	return s.resolve(ctx, candidates)
}

// GetSimilar returns up to limit books most like the given one.
func (s *RecommendationService) GetSimilar(ctx context.Context, bookID string, limit int) ([]Recommendation, error) {
	candidates, err := s.engine.Similar(ctx, bookID, limit)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, candidates)
}

// resolve turns ranked candidates into full book payloads. A book deleted
// between ranking and resolution is dropped from the result.
func (s *RecommendationService) resolve(ctx context.Context, candidates []rank.Candidate) ([]Recommendation, error) {
	recs := make([]Recommendation, 0, len(candidates))
	for _, c := range candidates {
		book, err := s.store.GetBook(ctx, c.BookID)
		if apperrors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve book %s: %w", c.BookID, err)
		}
		recs = append(recs, Recommendation{Book: book, Score: c.Score})
	}
	return recs, nil
}
