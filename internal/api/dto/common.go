// Package dto provides request and response types shared across API handlers.
// These types are used by huma to generate OpenAPI documentation and perform validation.
package dto

// MessageResponse is a simple success message response.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps a message response for huma.
type MessageOutput struct {
	Body MessageResponse
}
