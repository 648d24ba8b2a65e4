package rank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/librisapp/libris-server/internal/domain"
	"github.com/librisapp/libris-server/internal/store"
)

const defaultLimit = 20

// Engine wires the aggregator, the three generators, and the merger into the
// two read paths the API exposes: personalized recommendations and
// similar-book lookup.
type Engine struct {
	log           *slog.Logger
	store         Store
	aggregator    *Aggregator
	content       Generator
	collaborative Generator
	popularity    Generator
}

func NewEngine(st Store, log *slog.Logger) *Engine {
	return &Engine{
		log:           log,
		store:         st,
		aggregator:    NewAggregator(st),
		content:       NewContentBased(st),
		collaborative: NewCollaborative(st),
		popularity:    NewPopularity(st),
	}
}

// RecomputePreferences rebuilds and persists the user's preference vector
// from current history. Write paths that change a user's history call this
// so the stored vector does not go stale between recommendation requests.
func (e *Engine) RecomputePreferences(ctx context.Context, userID string) (*domain.PreferenceVector, error) {
	return e.aggregator.Compute(ctx, userID)
}

// Recommendations computes up to limit ranked suggestions for a user. The
// preference vector is recomputed from current history first, then the three
// generators run concurrently and their outputs are blended. An empty result
// is a valid answer for an empty catalog; a user with no history falls
// through to pure popularity ordering.
func (e *Engine) Recommendations(ctx context.Context, userID string, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	start := time.Now()
	if _, err := e.aggregator.Compute(ctx, userID); err != nil {
		return nil, fmt.Errorf("aggregating preferences: %w", err)
	}

	open, err := openSet(ctx, e.store, userID)
	if err != nil {
		return nil, err
	}

	// Generators are independent reads; ask each for enough headroom that
	// the post-merge open-borrow filter cannot leave the list short.
	genLimit := limit + len(open)
	var (
		wg      sync.WaitGroup
		results [3][]Candidate
		errs    [3]error
	)
	for i, gen := range []Generator{e.content, e.collaborative, e.popularity} {
		wg.Add(1)
		go func(i int, gen Generator) {
			defer wg.Done()
			results[i], errs[i] = gen.Generate(ctx, userID, genLimit)
		}(i, gen)
	}
	wg.Wait()
	if err := errors.Join(errs[0], errs[1], errs[2]); err != nil {
		return nil, fmt.Errorf("generating candidates: %w", err)
	}

	merged := Merge(results[0], results[1], results[2], open, limit)
	e.log.Debug("recommendations computed",
		slog.String("user_id", userID),
		slog.Int("candidates", len(merged)),
		slog.Duration("duration", time.Since(start)),
	)
	return merged, nil
}

// Similar returns up to limit books whose genre matches the given book's,
// ranked exactly as the content generator would rank them for a user whose
// entire preference is that one book. The book itself is excluded.
func (e *Engine) Similar(ctx context.Context, bookID string, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	book, err := e.store.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("loading book: %w", err)
	}

	token := book.GenreToken()
	if token == "" {
		return nil, nil
	}
	vec := &domain.PreferenceVector{
		Entries: []domain.PreferenceEntry{{Token: token, Weight: 1}},
	}
	exclude := map[string]bool{bookID: true}
	return scoreByVector(ctx, e.store, vec, exclude, limit)
}
