package rank

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/librisapp/libris-server/internal/domain"
	"github.com/librisapp/libris-server/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	st := newTestStore(t)
	return NewEngine(st, testLogger()), st
}

var seedEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, st *store.Store, id string) {
	t.Helper()
	err := st.CreateUser(context.Background(), &domain.User{
		Entity:      domain.Entity{ID: id, CreatedAt: seedEpoch, UpdatedAt: seedEpoch},
		Email:       id + "@example.com",
		DisplayName: id,
		Role:        domain.RoleMember,
	})
	require.NoError(t, err)
}

func seedBook(t *testing.T, st *store.Store, id, genre string) {
	t.Helper()
	err := st.CreateBook(context.Background(), &domain.Book{
		Entity:          domain.Entity{ID: id, CreatedAt: seedEpoch, UpdatedAt: seedEpoch},
		Title:           "Title " + id,
		Author:          "Author",
		Genre:           genre,
		TotalCopies:     3,
		AvailableCopies: 3,
	})
	require.NoError(t, err)
}

// seedBorrow inserts an open loan. The offset orders borrows within a user's
// history without relying on wall-clock time.
func seedBorrow(t *testing.T, st *store.Store, id, userID, bookID string, offset time.Duration) {
	t.Helper()
	at := seedEpoch.Add(offset)
	err := st.CreateBorrow(context.Background(), &domain.BorrowRecord{
		Entity:     domain.Entity{ID: id, CreatedAt: at, UpdatedAt: at},
		UserID:     userID,
		BookID:     bookID,
		BorrowedAt: at,
	})
	require.NoError(t, err)
}

func seedReturnedBorrow(t *testing.T, st *store.Store, id, userID, bookID string, offset time.Duration) {
	t.Helper()
	at := seedEpoch.Add(offset)
	returned := at.Add(time.Hour)
	err := st.CreateBorrow(context.Background(), &domain.BorrowRecord{
		Entity:     domain.Entity{ID: id, CreatedAt: at, UpdatedAt: at},
		UserID:     userID,
		BookID:     bookID,
		BorrowedAt: at,
		ReturnedAt: &returned,
	})
	require.NoError(t, err)
}

func seedReview(t *testing.T, st *store.Store, id, userID, bookID string, rating int, sentiment *domain.Sentiment) {
	t.Helper()
	err := st.CreateReview(context.Background(), &domain.Review{
		Entity: domain.Entity{ID: id, CreatedAt: seedEpoch, UpdatedAt: seedEpoch},
		UserID: userID,
		BookID: bookID,
		Rating: rating,
		Text:   "review text",
	})
	require.NoError(t, err)
	if sentiment != nil {
		require.NoError(t, st.UpsertSentiment(context.Background(), id, *sentiment))
	}
}

func bookIDs(candidates []Candidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.BookID
	}
	return ids
}
