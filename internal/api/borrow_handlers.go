package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/librisapp/libris-server/internal/domain"
)

func (s *Server) registerBorrowRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "borrowBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/borrow",
		Summary:     "Borrow book",
		Description: "Checks out a copy for the current user",
		Tags:        []string{"Borrows"},
	}, s.handleBorrowBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "returnBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/return",
		Summary:     "Return book",
		Description: "Closes the current user's open loan of the book",
		Tags:        []string{"Borrows"},
	}, s.handleReturnBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBorrows",
		Method:      http.MethodGet,
		Path:        "/api/v1/borrows",
		Summary:     "List borrows",
		Description: "Returns the current user's loan history, newest first",
		Tags:        []string{"Borrows"},
	}, s.handleListBorrows)
}

// === DTOs ===

// BorrowResponse contains loan data in API responses.
type BorrowResponse struct {
	ID         string     `json:"id" doc:"Loan ID"`
	UserID     string     `json:"user_id" doc:"Borrower"`
	BookID     string     `json:"book_id" doc:"Borrowed book"`
	BorrowedAt time.Time  `json:"borrowed_at" doc:"Checkout time"`
	ReturnedAt *time.Time `json:"returned_at,omitempty" doc:"Return time, null while the loan is open"`
}

func toBorrowResponse(b *domain.BorrowRecord) BorrowResponse {
	return BorrowResponse{
		ID:         b.ID,
		UserID:     b.UserID,
		BookID:     b.BookID,
		BorrowedAt: b.BorrowedAt,
		ReturnedAt: b.ReturnedAt,
	}
}

// BorrowBookInput identifies the caller and the book to borrow.
type BorrowBookInput struct {
	UserID string `header:"X-User-ID" doc:"Caller identity"`
	ID     string `path:"id" doc:"Book ID"`
}

// ReturnBookInput identifies the caller and the book to return.
type ReturnBookInput struct {
	UserID string `header:"X-User-ID" doc:"Caller identity"`
	ID     string `path:"id" doc:"Book ID"`
}

// BorrowOutput wraps a loan response for huma.
type BorrowOutput struct {
	Body BorrowResponse
}

// ListBorrowsInput identifies the caller.
type ListBorrowsInput struct {
	UserID string `header:"X-User-ID" doc:"Caller identity"`
}

// ListBorrowsResponse contains the caller's loan history.
type ListBorrowsResponse struct {
	Borrows []BorrowResponse `json:"borrows" doc:"Loan records"`
}

// ListBorrowsOutput wraps the loan history for huma.
type ListBorrowsOutput struct {
	Body ListBorrowsResponse
}

// === Handlers ===

func (s *Server) handleBorrowBook(ctx context.Context, input *BorrowBookInput) (*BorrowOutput, error) {
	user, err := s.authenticateRequest(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	record, err := s.services.Borrow.BorrowBook(ctx, user.ID, input.ID)
	if err != nil {
		return nil, err
	}

	return &BorrowOutput{Body: toBorrowResponse(record)}, nil
}

func (s *Server) handleReturnBook(ctx context.Context, input *ReturnBookInput) (*BorrowOutput, error) {
	user, err := s.authenticateRequest(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	record, err := s.services.Borrow.ReturnBook(ctx, user.ID, input.ID)
	if err != nil {
		return nil, err
	}

	return &BorrowOutput{Body: toBorrowResponse(record)}, nil
}

func (s *Server) handleListBorrows(ctx context.Context, input *ListBorrowsInput) (*ListBorrowsOutput, error) {
	user, err := s.authenticateRequest(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	records, err := s.services.Borrow.ListUserBorrows(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]BorrowResponse, len(records))
	for i, r := range records {
		resp[i] = toBorrowResponse(r)
	}

	return &ListBorrowsOutput{Body: ListBorrowsResponse{Borrows: resp}}, nil
}
