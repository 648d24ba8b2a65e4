package rank

import (
	"context"
	"errors"
	"fmt"

	"github.com/librisapp/libris-server/internal/domain"
	"github.com/librisapp/libris-server/internal/store"
)

// ContentBased scores catalog books by how strongly their genre matches the
// user's stored preference vector. Books the user currently holds are
// excluded; books borrowed and returned remain eligible.
type ContentBased struct {
	store Store
}

func NewContentBased(store Store) *ContentBased {
	return &ContentBased{store: store}
}

func (g *ContentBased) Generate(ctx context.Context, userID string, limit int) ([]Candidate, error) {
	vec, err := g.store.GetPreferenceVector(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading preference vector: %w", err)
	}
	if vec.IsEmpty() {
		return nil, nil
	}

	open, err := openSet(ctx, g.store, userID)
	if err != nil {
		return nil, err
	}
	return scoreByVector(ctx, g.store, vec, open, limit)
}

// scoreByVector walks the catalog and scores each book by the vector weight
// of its genre token. Zero-weight books are omitted entirely rather than
// listed with score 0.
func scoreByVector(ctx context.Context, st Store, vec *domain.PreferenceVector, exclude map[string]bool, limit int) ([]Candidate, error) {
	books, err := st.ListAllBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing catalog: %w", err)
	}

	candidates := make([]Candidate, 0, len(books))
	for _, book := range books {
		if exclude[book.ID] {
			continue
		}
		weight := vec.Weight(book.GenreToken())
		if weight == 0 {
			continue
		}
		candidates = append(candidates, Candidate{BookID: book.ID, Score: weight})
	}

	sortCandidates(candidates)
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func openSet(ctx context.Context, st Store, userID string) (map[string]bool, error) {
	ids, err := st.OpenBorrowedBookIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing open borrows: %w", err)
	}
	open := make(map[string]bool, len(ids))
	for _, id := range ids {
		open[id] = true
	}
	return open, nil
}
