package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/librisapp/libris-server/internal/domain"
	"github.com/librisapp/libris-server/internal/rank"
	"github.com/librisapp/libris-server/internal/search"
	"github.com/librisapp/libris-server/internal/service"
	"github.com/librisapp/libris-server/internal/storage"
	"github.com/librisapp/libris-server/internal/store"
)

// testEnvelope mirrors the wire shape EnvelopeTransformer produces.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// testServer wraps the API server with a humatest client over a real stack.
type testServer struct {
	*Server
	api humatest.TestAPI
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	st, err := store.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	files, err := storage.NewLocal(tmpDir)
	require.NoError(t, err)

	index, err := search.NewIndex(search.Options{DataPath: tmpDir, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	st.SetSearchIndexer(index)

	engine := rank.NewEngine(st, logger)

	services := &Services{
		User:           service.NewUserService(st, logger),
		Book:           service.NewBookService(st, files, index, logger),
		Borrow:         service.NewBorrowService(st, engine, logger),
		Review:         service.NewReviewService(st, engine, logger),
		Recommendation: service.NewRecommendationService(st, engine, logger),
	}

	s := NewServer(st, services, logger)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
	}
}

// createTestUser registers a user and returns its ID for the X-User-ID header.
func (ts *testServer) createTestUser(t *testing.T, email string, role domain.Role) string {
	t.Helper()

	user, err := ts.services.User.CreateUser(context.Background(), email, "", role)
	require.NoError(t, err)
	return user.ID
}

// createTestBook seeds a catalog entry directly through the service layer.
func (ts *testServer) createTestBook(t *testing.T, title, genre string, copies int) *domain.Book {
	t.Helper()

	book, err := ts.services.Book.CreateBook(context.Background(), service.CreateBookInput{
		Title:       title,
		Author:      "Test Author",
		Genre:       genre,
		TotalCopies: copies,
	})
	require.NoError(t, err)
	return book
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	req, err := http.NewRequest(http.MethodGet, "/health", nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "healthy")
}
