package rank

import (
	"context"
	"fmt"
)

// Popularity scores every catalog book by its total engagement, borrow
// records plus reviews, relative to the most engaged book. It carries no
// per-user signal and serves as the fallback when the other generators have
// nothing to say.
type Popularity struct {
	store Store
}

func NewPopularity(store Store) *Popularity {
	return &Popularity{store: store}
}

func (g *Popularity) Generate(ctx context.Context, _ string, limit int) ([]Candidate, error) {
	counts, err := g.store.PopularityCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting engagement: %w", err)
	}
	if len(counts) == 0 {
		return nil, nil
	}

	max := 0
	for _, count := range counts {
		if count > max {
			max = count
		}
	}

	candidates := make([]Candidate, 0, len(counts))
	for bookID, count := range counts {
		score := 0.0
		if max > 0 {
			score = float64(count) / float64(max)
		}
		candidates = append(candidates, Candidate{BookID: bookID, Score: score})
	}

	sortCandidates(candidates)
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
