package rank

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/librisapp/libris-server/internal/domain"
	"github.com/librisapp/libris-server/internal/store"
)

const positiveReviewBonusScale = 5.0

// Aggregator distills a user's borrow and review history into a weighted
// genre preference vector. Each recomputation replaces the stored vector
// wholesale; there is no incremental update path.
type Aggregator struct {
	store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// Compute builds the preference vector for userID and persists it, replacing
// any previous vector. Every borrow record contributes weight 1 to the genre
// of the borrowed book. A review carrying a captured positive sentiment adds
// rating/5 to that book's genre. Weights are normalized to sum to 1; entry
// order follows first appearance in history, so equal-weight genres keep a
// stable relative order. A user with no history yields an empty vector.
func (a *Aggregator) Compute(ctx context.Context, userID string) (*domain.PreferenceVector, error) {
	borrows, err := a.store.ListBorrowsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing borrows: %w", err)
	}
	reviews, err := a.store.ListReviewsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}

	// History order, oldest first, keeps entry insertion deterministic.
	sort.SliceStable(borrows, func(i, j int) bool {
		if !borrows[i].BorrowedAt.Equal(borrows[j].BorrowedAt) {
			return borrows[i].BorrowedAt.Before(borrows[j].BorrowedAt)
		}
		return borrows[i].ID < borrows[j].ID
	})

	genres, err := a.genreTokensByBook(ctx, borrows, reviews)
	if err != nil {
		return nil, err
	}

	order := make([]string, 0, len(genres))
	weights := make(map[string]float64, len(genres))
	add := func(token string, weight float64) {
		if token == "" {
			return
		}
		if _, ok := weights[token]; !ok {
			order = append(order, token)
		}
		weights[token] += weight
	}

	for _, b := range borrows {
		add(genres[b.BookID], 1)
	}
	for _, r := range reviews {
		if r.Sentiment == nil || r.Sentiment.Label != domain.SentimentPositive {
			continue
		}
		add(genres[r.BookID], float64(r.Rating)/positiveReviewBonusScale)
	}

	vec := &domain.PreferenceVector{
		UserID:     userID,
		ComputedAt: time.Now().UTC(),
	}
	var total float64
	for _, token := range order {
		total += weights[token]
	}
	if total > 0 {
		vec.Entries = make([]domain.PreferenceEntry, 0, len(order))
		for _, token := range order {
			vec.Entries = append(vec.Entries, domain.PreferenceEntry{
				Token:  token,
				Weight: weights[token] / total,
			})
		}
	}

	if err := a.store.ReplacePreferenceVector(ctx, vec); err != nil {
		return nil, fmt.Errorf("persisting preference vector: %w", err)
	}
	return vec, nil
}

// genreTokensByBook resolves the normalized genre token for every book that
// appears in the given history. Books deleted since the history was written
// simply contribute nothing.
func (a *Aggregator) genreTokensByBook(ctx context.Context, borrows []*domain.BorrowRecord, reviews []*domain.Review) (map[string]string, error) {
	tokens := make(map[string]string)
	resolve := func(bookID string) error {
		if _, ok := tokens[bookID]; ok {
			return nil
		}
		book, err := a.store.GetBook(ctx, bookID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			tokens[bookID] = ""
			return nil
		case err != nil:
			return fmt.Errorf("loading book %s: %w", bookID, err)
		}
		tokens[bookID] = book.GenreToken()
		return nil
	}
	for _, b := range borrows {
		if err := resolve(b.BookID); err != nil {
			return nil, err
		}
	}
	for _, r := range reviews {
		if err := resolve(r.BookID); err != nil {
			return nil, err
		}
	}
	return tokens, nil
}
