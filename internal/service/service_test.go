package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/librisapp/libris-server/internal/domain"
	"github.com/librisapp/libris-server/internal/rank"
	"github.com/librisapp/libris-server/internal/search"
	"github.com/librisapp/libris-server/internal/storage"
	"github.com/librisapp/libris-server/internal/store"
)

// env bundles the fully wired service layer over a throwaway database.
type env struct {
	store     *store.Store
	files     *storage.Local
	index     *search.Index
	books     *BookService
	borrows   *BorrowService
	reviews   *ReviewService
	recs      *RecommendationService
	users     *UserService
	scheduler *fakeScheduler
}

func newTestEnv(t *testing.T) *env {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	files, err := storage.NewLocal(dir)
	require.NoError(t, err)

	index, err := search.NewIndex(search.Options{DataPath: dir, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	st.SetSearchIndexer(index)

	engine := rank.NewEngine(st, logger)
	scheduler := &fakeScheduler{}

	books := NewBookService(st, files, index, logger)
	books.SetScheduler(scheduler)
	reviews := NewReviewService(st, engine, logger)
	reviews.SetScheduler(scheduler)

	return &env{
		store:     st,
		files:     files,
		index:     index,
		books:     books,
		borrows:   NewBorrowService(st, engine, logger),
		reviews:   reviews,
		recs:      NewRecommendationService(st, engine, logger),
		users:     NewUserService(st, logger),
		scheduler: scheduler,
	}
}

// fakeScheduler records scheduled enrichment keys instead of running them.
type fakeScheduler struct {
	mu   sync.Mutex
	keys []domain.EnrichmentKey
}

func (f *fakeScheduler) Schedule(kind domain.EnrichmentKind, entityID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, domain.EnrichmentKey{Kind: kind, EntityID: entityID})
}

func (f *fakeScheduler) scheduled() []domain.EnrichmentKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.EnrichmentKey(nil), f.keys...)
}

func (e *env) createUser(t *testing.T, email string) *domain.User {
	t.Helper()
	user, err := e.users.CreateUser(context.Background(), email, "", domain.RoleMember)
	require.NoError(t, err)
	return user
}

func (e *env) createBook(t *testing.T, title, genre string, copies int) *domain.Book {
	t.Helper()
	book, err := e.books.CreateBook(context.Background(), CreateBookInput{
		Title:       title,
		Author:      "Author",
		Genre:       genre,
		TotalCopies: copies,
	})
	require.NoError(t, err)
	return book
}
