package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librisapp/libris-server/internal/domain"
)

func TestGetRecommendations_GenreAffinity(t *testing.T) {
	ts := setupTestServer(t)

	member := ts.createTestUser(t, "member@test.com", domain.RoleMember)
	borrowed := ts.createTestBook(t, "Past Read", "Mystery", 1)
	match := ts.createTestBook(t, "Next Mystery", "Mystery", 1)
	ts.createTestBook(t, "Unrelated Verse", "Poetry", 1)

	resp := ts.api.Post("/api/v1/books/"+borrowed.ID+"/borrow", "X-User-ID: "+member)
	require.Equal(t, http.StatusOK, resp.Code)
	resp = ts.api.Post("/api/v1/books/"+borrowed.ID+"/return", "X-User-ID: "+member)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/recommendations", "X-User-ID: "+member)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[RecommendationsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	require.NotEmpty(t, envelope.Data.Recommendations)
	assert.Equal(t, match.ID, envelope.Data.Recommendations[0].Book.ID)
	assert.Greater(t, envelope.Data.Recommendations[0].Score, 0.0)
}

func TestGetRecommendations_ExcludesOpenBorrows(t *testing.T) {
	ts := setupTestServer(t)

	member := ts.createTestUser(t, "member@test.com", domain.RoleMember)
	held := ts.createTestBook(t, "In Hand", "Mystery", 1)
	ts.createTestBook(t, "On Shelf", "Mystery", 1)

	resp := ts.api.Post("/api/v1/books/"+held.ID+"/borrow", "X-User-ID: "+member)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/recommendations", "X-User-ID: "+member)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[RecommendationsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	for _, rec := range envelope.Data.Recommendations {
		assert.NotEqual(t, held.ID, rec.Book.ID)
	}
}

func TestGetRecommendations_Limit(t *testing.T) {
	ts := setupTestServer(t)

	member := ts.createTestUser(t, "member@test.com", domain.RoleMember)
	for _, title := range []string{"A", "B", "C", "D"} {
		ts.createTestBook(t, title, "Poetry", 1)
	}

	resp := ts.api.Get("/api/v1/recommendations?limit=2", "X-User-ID: "+member)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[RecommendationsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data.Recommendations, 2)
}

func TestGetSimilarBooks(t *testing.T) {
	ts := setupTestServer(t)

	member := ts.createTestUser(t, "member@test.com", domain.RoleMember)
	anchor := ts.createTestBook(t, "Anchor", "Mystery", 1)
	match := ts.createTestBook(t, "Kindred", "Mystery", 1)
	ts.createTestBook(t, "Stranger", "Poetry", 1)

	resp := ts.api.Get("/api/v1/books/"+anchor.ID+"/similar", "X-User-ID: "+member)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[RecommendationsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	require.Len(t, envelope.Data.Recommendations, 1)
	assert.Equal(t, match.ID, envelope.Data.Recommendations[0].Book.ID)
}

func TestGetSimilarBooks_UnknownBook(t *testing.T) {
	ts := setupTestServer(t)

	member := ts.createTestUser(t, "member@test.com", domain.RoleMember)

	resp := ts.api.Get("/api/v1/books/book-missing/similar", "X-User-ID: "+member)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
