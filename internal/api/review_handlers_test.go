package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librisapp/libris-server/internal/domain"
)

func TestCreateReview(t *testing.T) {
	ts := setupTestServer(t)

	member := ts.createTestUser(t, "member@test.com", domain.RoleMember)
	book := ts.createTestBook(t, "Reviewable", "Mystery", 1)

	resp := ts.api.Post("/api/v1/books/"+book.ID+"/borrow", "X-User-ID: "+member)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/books/"+book.ID+"/reviews",
		map[string]any{"rating": 5, "text": "Loved every page."},
		"X-User-ID: "+member)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[ReviewResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.Equal(t, 5, envelope.Data.Rating)
	assert.Equal(t, "Loved every page.", envelope.Data.Text)
	assert.Equal(t, member, envelope.Data.UserID)
	assert.Nil(t, envelope.Data.Sentiment)
}

func TestCreateReview_WithoutBorrow(t *testing.T) {
	ts := setupTestServer(t)

	member := ts.createTestUser(t, "member@test.com", domain.RoleMember)
	book := ts.createTestBook(t, "Untouched", "Mystery", 1)

	resp := ts.api.Post("/api/v1/books/"+book.ID+"/reviews",
		map[string]any{"rating": 4},
		"X-User-ID: "+member)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestCreateReview_InvalidRating(t *testing.T) {
	ts := setupTestServer(t)

	member := ts.createTestUser(t, "member@test.com", domain.RoleMember)
	book := ts.createTestBook(t, "Rated", "Mystery", 1)

	resp := ts.api.Post("/api/v1/books/"+book.ID+"/reviews",
		map[string]any{"rating": 6},
		"X-User-ID: "+member)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestCreateReview_OnePerBook(t *testing.T) {
	ts := setupTestServer(t)

	member := ts.createTestUser(t, "member@test.com", domain.RoleMember)
	book := ts.createTestBook(t, "Once", "Mystery", 1)

	resp := ts.api.Post("/api/v1/books/"+book.ID+"/borrow", "X-User-ID: "+member)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/books/"+book.ID+"/reviews",
		map[string]any{"rating": 4},
		"X-User-ID: "+member)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/books/"+book.ID+"/reviews",
		map[string]any{"rating": 2},
		"X-User-ID: "+member)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestListBookReviews(t *testing.T) {
	ts := setupTestServer(t)

	alice := ts.createTestUser(t, "alice@test.com", domain.RoleMember)
	bob := ts.createTestUser(t, "bob@test.com", domain.RoleMember)
	book := ts.createTestBook(t, "Discussed", "Mystery", 2)

	for _, user := range []string{alice, bob} {
		resp := ts.api.Post("/api/v1/books/"+book.ID+"/borrow", "X-User-ID: "+user)
		require.Equal(t, http.StatusOK, resp.Code)

		resp = ts.api.Post("/api/v1/books/"+book.ID+"/reviews",
			map[string]any{"rating": 3},
			"X-User-ID: "+user)
		require.Equal(t, http.StatusOK, resp.Code)
	}

	resp := ts.api.Get("/api/v1/books/"+book.ID+"/reviews", "X-User-ID: "+alice)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListReviewsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data.Reviews, 2)
}

func TestDeleteReview_AuthorOnly(t *testing.T) {
	ts := setupTestServer(t)

	alice := ts.createTestUser(t, "alice@test.com", domain.RoleMember)
	bob := ts.createTestUser(t, "bob@test.com", domain.RoleMember)
	book := ts.createTestBook(t, "Contested", "Mystery", 1)

	resp := ts.api.Post("/api/v1/books/"+book.ID+"/borrow", "X-User-ID: "+alice)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/books/"+book.ID+"/reviews",
		map[string]any{"rating": 4},
		"X-User-ID: "+alice)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ReviewResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	reviewID := envelope.Data.ID

	resp = ts.api.Delete("/api/v1/reviews/"+reviewID, "X-User-ID: "+bob)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Delete("/api/v1/reviews/"+reviewID, "X-User-ID: "+alice)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/reviews", "X-User-ID: "+alice)
	require.Equal(t, http.StatusOK, resp.Code)

	var listEnvelope testEnvelope[ListReviewsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listEnvelope))
	assert.Empty(t, listEnvelope.Data.Reviews)
}
