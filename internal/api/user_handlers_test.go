package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librisapp/libris-server/internal/domain"
)

func TestCreateUser(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/users", map[string]any{
		"email":        "reader@test.com",
		"display_name": "Reader",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.True(t, envelope.Success)
	assert.NotEmpty(t, envelope.Data.ID)
	assert.Equal(t, "reader@test.com", envelope.Data.Email)
	assert.Equal(t, string(domain.RoleMember), envelope.Data.Role)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	ts := setupTestServer(t)

	body := map[string]any{"email": "dup@test.com"}

	resp := ts.api.Post("/api/v1/users", body)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/users", body)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestGetCurrentUser(t *testing.T) {
	ts := setupTestServer(t)

	userID := ts.createTestUser(t, "me@test.com", domain.RoleMember)

	resp := ts.api.Get("/api/v1/users/me", "X-User-ID: "+userID)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, userID, envelope.Data.ID)

	resp = ts.api.Get("/api/v1/users/me")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/users/me", "X-User-ID: user-ghost")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestListUsers_AdminOnly(t *testing.T) {
	ts := setupTestServer(t)

	admin := ts.createTestUser(t, "admin@test.com", domain.RoleAdmin)
	member := ts.createTestUser(t, "member@test.com", domain.RoleMember)

	resp := ts.api.Get("/api/v1/users", "X-User-ID: "+member)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Get("/api/v1/users", "X-User-ID: "+admin)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListUsersResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data.Users, 2)
}
