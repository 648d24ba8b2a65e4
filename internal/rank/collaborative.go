package rank

import (
	"context"
	"fmt"
	"sort"
)

// Collaborative recommends books borrowed by users whose borrow history
// overlaps the target user's. Similarity is the Jaccard index of the two
// ever-borrowed sets; a book's score is the fraction of similar users who
// borrowed it.
type Collaborative struct {
	store Store
}

func NewCollaborative(store Store) *Collaborative {
	return &Collaborative{store: store}
}

func (g *Collaborative) Generate(ctx context.Context, userID string, limit int) ([]Candidate, error) {
	ownIDs, err := g.store.BorrowedBookIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing borrowed books: %w", err)
	}
	if len(ownIDs) == 0 {
		return nil, nil
	}
	own := make(map[string]bool, len(ownIDs))
	for _, id := range ownIDs {
		own[id] = true
	}

	sets, err := g.store.BorrowSetsForBooks(ctx, ownIDs, userID)
	if err != nil {
		return nil, fmt.Errorf("listing overlapping borrowers: %w", err)
	}

	neighbors := rankNeighbors(own, sets)
	if len(neighbors) == 0 {
		return nil, nil
	}

	// Score each candidate by how many of the similar users borrowed it,
	// out of all similar users considered.
	counts := make(map[string]int)
	for _, n := range neighbors {
		for _, bookID := range sets[n.userID] {
			if own[bookID] {
				continue
			}
			counts[bookID]++
		}
	}

	candidates := make([]Candidate, 0, len(counts))
	for bookID, count := range counts {
		candidates = append(candidates, Candidate{
			BookID: bookID,
			Score:  float64(count) / float64(len(neighbors)),
		})
	}

	sortCandidates(candidates)
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

type neighbor struct {
	userID     string
	similarity float64
	titles     int
}

// rankNeighbors computes Jaccard similarity for every user sharing at least
// one borrowed book with the target, ordered by similarity, then by number
// of distinct titles borrowed, then by user id.
func rankNeighbors(own map[string]bool, sets map[string][]string) []neighbor {
	neighbors := make([]neighbor, 0, len(sets))
	for userID, books := range sets {
		intersection := 0
		for _, bookID := range books {
			if own[bookID] {
				intersection++
			}
		}
		if intersection == 0 {
			continue
		}
		union := len(own) + len(books) - intersection
		neighbors = append(neighbors, neighbor{
			userID:     userID,
			similarity: float64(intersection) / float64(union),
			titles:     len(books),
		})
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].similarity != neighbors[j].similarity {
			return neighbors[i].similarity > neighbors[j].similarity
		}
		if neighbors[i].titles != neighbors[j].titles {
			return neighbors[i].titles > neighbors[j].titles
		}
		return neighbors[i].userID < neighbors[j].userID
	})
	return neighbors
}
