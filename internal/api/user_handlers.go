package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/librisapp/libris-server/internal/domain"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createUser",
		Method:      http.MethodPost,
		Path:        "/api/v1/users",
		Summary:     "Create user",
		Description: "Registers a library member",
		Tags:        []string{"Users"},
	}, s.handleCreateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the user identified by the X-User-ID header",
		Tags:        []string{"Users"},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/users",
		Summary:     "List users",
		Description: "Returns all library members (admin only)",
		Tags:        []string{"Users"},
	}, s.handleListUsers)
}

// === DTOs ===

// UserResponse contains user data in API responses.
type UserResponse struct {
	ID          string    `json:"id" doc:"User ID"`
	Email       string    `json:"email" doc:"Email address"`
	DisplayName string    `json:"display_name" doc:"Display name"`
	Role        string    `json:"role" doc:"Permission level"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time `json:"updated_at" doc:"Last update time"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// CreateUserRequest is the request body for registering a user.
type CreateUserRequest struct {
	Email       string `json:"email" format:"email" doc:"Email address"`
	DisplayName string `json:"display_name,omitempty" doc:"Display name, defaults to the email"`
	Role        string `json:"role,omitempty" enum:"member,admin" doc:"Permission level, defaults to member"`
}

// CreateUserInput wraps the create user request for huma.
type CreateUserInput struct {
	Body CreateUserRequest
}

// UserOutput wraps a user response for huma.
type UserOutput struct {
	Body UserResponse
}

// GetCurrentUserInput identifies the caller.
type GetCurrentUserInput struct {
	UserID string `header:"X-User-ID" doc:"Caller identity"`
}

// ListUsersInput identifies the caller for the admin-only listing.
type ListUsersInput struct {
	UserID string `header:"X-User-ID" doc:"Caller identity"`
}

// ListUsersResponse contains all registered users.
type ListUsersResponse struct {
	Users []UserResponse `json:"users" doc:"Registered users"`
}

// ListUsersOutput wraps the list users response for huma.
type ListUsersOutput struct {
	Body ListUsersResponse
}

// === Handlers ===

func (s *Server) handleCreateUser(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
	user, err := s.services.User.CreateUser(ctx, input.Body.Email, input.Body.DisplayName, domain.Role(input.Body.Role))
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, input *GetCurrentUserInput) (*UserOutput, error) {
	user, err := s.authenticateRequest(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleListUsers(ctx context.Context, input *ListUsersInput) (*ListUsersOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.UserID); err != nil {
		return nil, err
	}

	users, err := s.services.User.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}

	return &ListUsersOutput{Body: ListUsersResponse{Users: resp}}, nil
}
