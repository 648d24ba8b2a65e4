// Package rank implements the hybrid recommendation engine: a preference
// aggregator over borrow/review history, three independent candidate
// generators, and a merger that blends their scores into one ranked list.
package rank

import (
	"context"
	"sort"

	"github.com/librisapp/libris-server/internal/domain"
)

// Blend weights for combining generator scores. They are fixed and are not
// renormalized when a generator returns empty: an absent signal contributes
// zero, shifting effective weight toward the remaining signals.
const (
	WeightContent       = 0.6
	WeightCollaborative = 0.3
	WeightPopularity    = 0.1
)

// Candidate is one scored recommendation from a generator or the merger.
type Candidate struct {
	BookID string  `json:"book_id"`
	Score  float64 `json:"score"`
}

// Generator produces a scored, partial list of recommendable books from one
// signal source. Implementations are read-only and fail soft: no signal
// yields an empty list, not an error.
type Generator interface {
	Generate(ctx context.Context, userID string, limit int) ([]Candidate, error)
}

// Store is the read surface the engine needs, plus the single preference
// vector write the aggregator performs.
type Store interface {
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	ListAllBooks(ctx context.Context) ([]*domain.Book, error)
	ListBorrowsByUser(ctx context.Context, userID string) ([]*domain.BorrowRecord, error)
	ListReviewsByUser(ctx context.Context, userID string) ([]*domain.Review, error)
	BorrowedBookIDs(ctx context.Context, userID string) ([]string, error)
	OpenBorrowedBookIDs(ctx context.Context, userID string) ([]string, error)
	BorrowSetsForBooks(ctx context.Context, bookIDs []string, excludeUserID string) (map[string][]string, error)
	PopularityCounts(ctx context.Context) (map[string]int, error)
	GetPreferenceVector(ctx context.Context, userID string) (*domain.PreferenceVector, error)
	ReplacePreferenceVector(ctx context.Context, vec *domain.PreferenceVector) error
}

// sortCandidates orders candidates by descending score, breaking ties by
// ascending book id so identical input state always yields identical output.
func sortCandidates(candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].BookID < candidates[j].BookID
	})
}

// Merge blends the three generator outputs into one deduplicated ranking of
// at most limit books. Books the user currently holds are filtered after
// blending as a final guarantee, even though generators already try to
// exclude them.
func Merge(content, collaborative, popularity []Candidate, open map[string]bool, limit int) []Candidate {
	contentScores := indexScores(content)
	collabScores := indexScores(collaborative)
	popScores := indexScores(popularity)

	seen := make(map[string]bool)
	merged := make([]Candidate, 0, len(contentScores)+len(collabScores)+len(popScores))
	for _, list := range [][]Candidate{content, collaborative, popularity} {
		for _, c := range list {
			if seen[c.BookID] || open[c.BookID] {
				continue
			}
			seen[c.BookID] = true
			merged = append(merged, Candidate{
				BookID: c.BookID,
				Score: WeightContent*contentScores[c.BookID] +
					WeightCollaborative*collabScores[c.BookID] +
					WeightPopularity*popScores[c.BookID],
			})
		}
	}

	sortCandidates(merged)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func indexScores(candidates []Candidate) map[string]float64 {
	scores := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		scores[c.BookID] = c.Score
	}
	return scores
}
