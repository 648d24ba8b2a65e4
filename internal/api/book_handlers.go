package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/librisapp/libris-server/internal/api/dto"
	"github.com/librisapp/libris-server/internal/domain"
	"github.com/librisapp/libris-server/internal/http/response"
	"github.com/librisapp/libris-server/internal/search"
	"github.com/librisapp/libris-server/internal/service"
	"github.com/librisapp/libris-server/internal/store"
)

func (s *Server) registerBookRoutes() {
	// Document upload uses chi directly for multipart form handling.
	s.router.Put("/api/v1/books/{id}/document", s.handleUploadDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "createBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books",
		Summary:     "Create book",
		Description: "Adds a book to the catalog (admin only)",
		Tags:        []string{"Books"},
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns a paginated catalog listing with an optional genre filter",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/search",
		Summary:     "Search books",
		Description: "Runs a full-text query against the catalog index",
		Tags:        []string{"Books"},
	}, s.handleSearchBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book by ID",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Applies a partial update to a book (admin only)",
		Tags:        []string{"Books"},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Delete book",
		Description: "Removes a book and its borrow and review history (admin only)",
		Tags:        []string{"Books"},
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "analyzeBookReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/analysis",
		Summary:     "Analyze book reviews",
		Description: "Returns the rating average and sentiment distribution for a book",
		Tags:        []string{"Books"},
	}, s.handleAnalyzeBookReviews)

	huma.Register(s.api, huma.Operation{
		OperationID: "reindexCatalog",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/reindex",
		Summary:     "Reindex catalog",
		Description: "Rebuilds the search index from the catalog (admin only)",
		Tags:        []string{"Admin"},
	}, s.handleReindexCatalog)
}

// === DTOs ===

// BookResponse contains book data in API responses.
type BookResponse struct {
	ID              string    `json:"id" doc:"Book ID"`
	Title           string    `json:"title" doc:"Title"`
	Author          string    `json:"author" doc:"Author"`
	ISBN            string    `json:"isbn,omitempty" doc:"ISBN"`
	Genre           string    `json:"genre,omitempty" doc:"Genre label"`
	Description     string    `json:"description,omitempty" doc:"Catalog description"`
	PublishYear     string    `json:"publish_year,omitempty" doc:"Publish year"`
	Language        string    `json:"language,omitempty" doc:"Language"`
	Summary         *string   `json:"summary,omitempty" doc:"Generated summary, null until enrichment completes"`
	TotalCopies     int       `json:"total_copies" doc:"Copies owned"`
	AvailableCopies int       `json:"available_copies" doc:"Copies on the shelf"`
	CreatedAt       time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt       time.Time `json:"updated_at" doc:"Last update time"`
}

func toBookResponse(b *domain.Book) BookResponse {
	return BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		Genre:           b.Genre,
		Description:     b.Description,
		PublishYear:     b.PublishYear,
		Language:        b.Language,
		Summary:         b.Summary,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// CreateBookRequest is the request body for adding a book.
type CreateBookRequest struct {
	Title       string `json:"title" minLength:"1" doc:"Title"`
	Author      string `json:"author" minLength:"1" doc:"Author"`
	ISBN        string `json:"isbn,omitempty" doc:"ISBN"`
	Genre       string `json:"genre,omitempty" doc:"Genre label"`
	Description string `json:"description,omitempty" doc:"Catalog description"`
	PublishYear string `json:"publish_year,omitempty" doc:"Publish year"`
	Language    string `json:"language,omitempty" doc:"Language"`
	TotalCopies int    `json:"total_copies,omitempty" minimum:"0" doc:"Copies owned, defaults to 1"`
}

// CreateBookInput wraps the create book request for huma.
type CreateBookInput struct {
	UserID string `header:"X-User-ID" doc:"Caller identity"`
	Body   CreateBookRequest
}

// BookOutput wraps a book response for huma.
type BookOutput struct {
	Body BookResponse
}

// ListBooksInput contains parameters for listing books.
type ListBooksInput struct {
	UserID string `header:"X-User-ID" doc:"Caller identity"`
	Genre  string `query:"genre" doc:"Exact genre filter"`
	Limit  int    `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Items per page"`
	Cursor string `query:"cursor" doc:"Opaque cursor from a previous page"`
}

// ListBooksResponse contains one page of the catalog.
type ListBooksResponse struct {
	Books      []BookResponse `json:"books" doc:"Catalog page"`
	NextCursor string         `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool           `json:"has_more" doc:"Whether more pages exist"`
}

// ListBooksOutput wraps the list books response for huma.
type ListBooksOutput struct {
	Body ListBooksResponse
}

// SearchBooksInput contains full-text search parameters.
type SearchBooksInput struct {
	UserID    string `header:"X-User-ID" doc:"Caller identity"`
	Query     string `query:"q" doc:"Search query"`
	Genre     string `query:"genre" doc:"Exact genre filter"`
	Language  string `query:"language" doc:"Exact language filter"`
	MinYear   int    `query:"min_year" doc:"Minimum publish year"`
	MaxYear   int    `query:"max_year" doc:"Maximum publish year"`
	Limit     int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Maximum hits"`
	Offset    int    `query:"offset" minimum:"0" doc:"Hits to skip"`
	SortBy    string `query:"sort_by" default:"relevance" enum:"relevance,title,author,recent" doc:"Sort field"`
	SortOrder string `query:"sort_order" default:"desc" enum:"asc,desc" doc:"Sort direction"`
}

// SearchBooksOutput wraps the search result for huma.
type SearchBooksOutput struct {
	Body search.Result
}

// GetBookInput contains parameters for getting a book.
type GetBookInput struct {
	UserID string `header:"X-User-ID" doc:"Caller identity"`
	ID     string `path:"id" doc:"Book ID"`
}

// UpdateBookRequest contains fields that can be updated on a book.
// Only non-nil fields are applied (true PATCH semantics), so omitempty is
// intentionally absent: a pointer to "" clears a field, nil leaves it alone.
type UpdateBookRequest struct {
	Title       *string `json:"title" required:"false" doc:"Title"`
	Author      *string `json:"author" required:"false" doc:"Author"`
	ISBN        *string `json:"isbn" required:"false" doc:"ISBN"`
	Genre       *string `json:"genre" required:"false" doc:"Genre label"`
	Description *string `json:"description" required:"false" doc:"Catalog description"`
	PublishYear *string `json:"publish_year" required:"false" doc:"Publish year"`
	Language    *string `json:"language" required:"false" doc:"Language"`
	TotalCopies *int    `json:"total_copies" required:"false" doc:"Copies owned; availability shifts by the same delta"`
}

// UpdateBookInput wraps the update book request for huma.
type UpdateBookInput struct {
	UserID string `header:"X-User-ID" doc:"Caller identity"`
	ID     string `path:"id" doc:"Book ID"`
	Body   UpdateBookRequest
}

// DeleteBookInput contains parameters for deleting a book.
type DeleteBookInput struct {
	UserID string `header:"X-User-ID" doc:"Caller identity"`
	ID     string `path:"id" doc:"Book ID"`
}

// AnalyzeBookReviewsInput contains parameters for review analysis.
type AnalyzeBookReviewsInput struct {
	UserID string `header:"X-User-ID" doc:"Caller identity"`
	ID     string `path:"id" doc:"Book ID"`
}

// ReviewAnalysisOutput wraps the review analysis for huma.
type ReviewAnalysisOutput struct {
	Body service.ReviewAnalysis
}

// ReindexCatalogInput identifies the caller for the admin reindex.
type ReindexCatalogInput struct {
	UserID string `header:"X-User-ID" doc:"Caller identity"`
}

// ReindexCatalogResponse reports how many books were reindexed.
type ReindexCatalogResponse struct {
	Indexed int `json:"indexed" doc:"Books written to the index"`
}

// ReindexCatalogOutput wraps the reindex response for huma.
type ReindexCatalogOutput struct {
	Body ReindexCatalogResponse
}

// === Handlers ===

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.UserID); err != nil {
		return nil, err
	}

	book, err := s.services.Book.CreateBook(ctx, service.CreateBookInput{
		Title:       input.Body.Title,
		Author:      input.Body.Author,
		ISBN:        input.Body.ISBN,
		Genre:       input.Body.Genre,
		Description: input.Body.Description,
		PublishYear: input.Body.PublishYear,
		Language:    input.Body.Language,
		TotalCopies: input.Body.TotalCopies,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*ListBooksOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.UserID); err != nil {
		return nil, err
	}

	page, err := s.services.Book.ListBooks(ctx, input.Genre, store.PaginationParams{
		Limit:  input.Limit,
		Cursor: input.Cursor,
	})
	if err != nil {
		return nil, err
	}

	books := make([]BookResponse, len(page.Items))
	for i, b := range page.Items {
		books[i] = toBookResponse(b)
	}

	return &ListBooksOutput{Body: ListBooksResponse{
		Books:      books,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}}, nil
}

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchBooksInput) (*SearchBooksOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.UserID); err != nil {
		return nil, err
	}

	result, err := s.services.Book.Search(ctx, search.Params{
		Query:     input.Query,
		Genre:     input.Genre,
		Language:  input.Language,
		MinYear:   input.MinYear,
		MaxYear:   input.MaxYear,
		Limit:     input.Limit,
		Offset:    input.Offset,
		SortBy:    input.SortBy,
		SortOrder: input.SortOrder,
	})
	if err != nil {
		return nil, err
	}

	return &SearchBooksOutput{Body: *result}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.UserID); err != nil {
		return nil, err
	}

	book, err := s.services.Book.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.UserID); err != nil {
		return nil, err
	}

	book, err := s.services.Book.UpdateBook(ctx, input.ID, service.UpdateBookInput{
		Title:       input.Body.Title,
		Author:      input.Body.Author,
		ISBN:        input.Body.ISBN,
		Genre:       input.Body.Genre,
		Description: input.Body.Description,
		PublishYear: input.Body.PublishYear,
		Language:    input.Body.Language,
		TotalCopies: input.Body.TotalCopies,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *DeleteBookInput) (*dto.MessageOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.UserID); err != nil {
		return nil, err
	}

	if err := s.services.Book.DeleteBook(ctx, input.ID); err != nil {
		return nil, err
	}

	return &dto.MessageOutput{Body: dto.MessageResponse{Message: "Book deleted"}}, nil
}

func (s *Server) handleAnalyzeBookReviews(ctx context.Context, input *AnalyzeBookReviewsInput) (*ReviewAnalysisOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.UserID); err != nil {
		return nil, err
	}

	analysis, err := s.services.Book.AnalyzeReviews(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &ReviewAnalysisOutput{Body: *analysis}, nil
}

func (s *Server) handleReindexCatalog(ctx context.Context, input *ReindexCatalogInput) (*ReindexCatalogOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.UserID); err != nil {
		return nil, err
	}

	indexed, err := s.services.Book.ReindexCatalog(ctx)
	if err != nil {
		return nil, err
	}

	return &ReindexCatalogOutput{Body: ReindexCatalogResponse{Indexed: indexed}}, nil
}

// handleUploadDocument accepts the book's text as a multipart upload.
// PUT /api/v1/books/{id}/document with a "file" field.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bookID := chi.URLParam(r, "id")

	user, err := s.store.GetUser(ctx, r.Header.Get("X-User-ID"))
	if err != nil {
		response.Unauthorized(w, "Unknown user", s.logger)
		return
	}
	if !user.IsAdmin() {
		response.Error(w, http.StatusForbidden, "Admin access required", s.logger)
		return
	}

	const maxUploadSize = 10 << 20 // 10MB
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.BadRequest(w, "Failed to parse form data", s.logger)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file uploaded. Use 'file' field in multipart form", s.logger)
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		response.BadRequest(w, "File too large. Maximum size is 10MB", s.logger)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("Failed to read uploaded file", "error", err, "book_id", bookID)
		response.InternalError(w, "Failed to read uploaded file", s.logger)
		return
	}

	book, err := s.services.Book.AttachDocument(ctx, bookID, header.Filename, data)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.logger.Info("document uploaded",
		"book_id", bookID,
		"filename", header.Filename,
		"size", header.Size,
	)

	response.Success(w, toBookResponse(book), s.logger)
}
