package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/librisapp/libris-server/internal/domain"
	apperrors "github.com/librisapp/libris-server/internal/errors"
	"github.com/librisapp/libris-server/internal/extract"
	"github.com/librisapp/libris-server/internal/id"
	"github.com/librisapp/libris-server/internal/search"
	"github.com/librisapp/libris-server/internal/storage"
	"github.com/librisapp/libris-server/internal/store"
	"github.com/librisapp/libris-server/internal/validation"
)

// BookService orchestrates catalog operations: CRUD, document uploads,
// full-text search, and summary enrichment scheduling.
type BookService struct {
	store     *store.Store
	files     storage.Storage
	index     *search.Index
	validator *validation.Validator
	logger    *slog.Logger

	// Set via SetScheduler once the enrichment orchestrator exists; the
	// orchestrator reads book text back through this service.
	scheduler Scheduler
}

// NewBookService creates a new book service.
func NewBookService(st *store.Store, files storage.Storage, index *search.Index, logger *slog.Logger) *BookService {
	return &BookService{
		store:     st,
		files:     files,
		index:     index,
		validator: validation.New(),
		logger:    logger,
	}
}

// SetScheduler wires the enrichment scheduler after construction.
func (s *BookService) SetScheduler(scheduler Scheduler) {
	s.scheduler = scheduler
}

// CreateBookInput carries the fields for a new catalog entry, plus an
// optional uploaded document.
type CreateBookInput struct {
	Title       string `validate:"required,max=500"`
	Author      string `validate:"required,max=255"`
	ISBN        string `validate:"omitempty,max=32"`
	Genre       string `validate:"max=100"`
	Description string
	PublishYear string `validate:"max=8"`
	Language    string `validate:"max=50"`
	TotalCopies int    `validate:"gte=0"`

	FileName string
	FileData []byte
}

// CreateBook adds a book to the catalog. An uploaded document is stored
// first and summary enrichment is scheduled once the catalog write commits.
func (s *BookService) CreateBook(ctx context.Context, input CreateBookInput) (*domain.Book, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Author = strings.TrimSpace(input.Author)
	input.Genre = strings.TrimSpace(input.Genre)
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}
	if input.TotalCopies == 0 {
		input.TotalCopies = 1
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, fmt.Errorf("generate book id: %w", err)
	}

	book := &domain.Book{
		Title:           input.Title,
		Author:          input.Author,
		ISBN:            input.ISBN,
		Genre:           input.Genre,
		Description:     input.Description,
		PublishYear:     input.PublishYear,
		Language:        input.Language,
		TotalCopies:     input.TotalCopies,
		AvailableCopies: input.TotalCopies,
	}
	book.ID = bookID
	book.InitTimestamps()

	if len(input.FileData) > 0 {
		ext := strings.ToLower(filepath.Ext(input.FileName))
		if ext == "" {
			ext = ".txt"
		}
		book.FileKey = bookID + ext
		if err := s.files.Save(book.FileKey, input.FileData); err != nil {
			return nil, fmt.Errorf("store document: %w", err)
		}
	}

	if err := s.store.CreateBook(ctx, book); err != nil {
		if book.FileKey != "" {
			if cleanupErr := s.files.Delete(book.FileKey); cleanupErr != nil {
				s.logger.Warn("orphaned upload after failed create", "key", book.FileKey, "error", cleanupErr)
			}
		}
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.logger.Info("book created", "book_id", book.ID, "title", book.Title, "has_document", book.FileKey != "")

	if s.scheduler != nil && (book.FileKey != "" || book.Description != "") {
		s.scheduler.Schedule(domain.EnrichBookSummary, book.ID)
	}

	return book, nil
}

// GetBook retrieves a single book by ID.
func (s *BookService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	return s.store.GetBook(ctx, bookID)
}

// ListBooks returns a paginated catalog listing with an optional genre filter.
func (s *BookService) ListBooks(ctx context.Context, genre string, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	return s.store.ListBooks(ctx, genre, params)
}

// Search runs a full-text query against the catalog index.
func (s *BookService) Search(ctx context.Context, params search.Params) (*search.Result, error) {
	return s.index.Search(ctx, params)
}

// UpdateBookInput carries partial updates; nil fields are left unchanged.
type UpdateBookInput struct {
	Title       *string
	Author      *string
	ISBN        *string
	Genre       *string
	Description *string
	PublishYear *string
	Language    *string
	TotalCopies *int
}

// UpdateBook applies a partial update. Changing the total copy count shifts
// the available count by the same delta, clamped to [0, total], so copies
// currently on loan stay accounted for.
func (s *BookService) UpdateBook(ctx context.Context, bookID string, input UpdateBookInput) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperrors.Validation("title cannot be empty")
		}
		book.Title = strings.TrimSpace(*input.Title)
	}
	if input.Author != nil {
		if strings.TrimSpace(*input.Author) == "" {
			return nil, apperrors.Validation("author cannot be empty")
		}
		book.Author = strings.TrimSpace(*input.Author)
	}
	if input.ISBN != nil {
		book.ISBN = *input.ISBN
	}
	if input.Genre != nil {
		book.Genre = strings.TrimSpace(*input.Genre)
	}
	if input.Description != nil {
		book.Description = *input.Description
	}
	if input.PublishYear != nil {
		book.PublishYear = *input.PublishYear
	}
	if input.Language != nil {
		book.Language = *input.Language
	}
	if input.TotalCopies != nil {
		if *input.TotalCopies < 1 {
			return nil, apperrors.Validation("total_copies must be at least 1")
		}
		delta := *input.TotalCopies - book.TotalCopies
		book.TotalCopies = *input.TotalCopies
		book.AvailableCopies += delta
		if book.AvailableCopies < 0 {
			book.AvailableCopies = 0
		}
		if book.AvailableCopies > book.TotalCopies {
			book.AvailableCopies = book.TotalCopies
		}
	}

	book.Touch()
	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	return book, nil
}

// AttachDocument stores an uploaded text for an existing book and schedules
// a fresh summary. A new upload replaces the previous one.
func (s *BookService) AttachDocument(ctx context.Context, bookID, fileName string, data []byte) (*domain.Book, error) {
	if len(data) == 0 {
		return nil, apperrors.Validation("document is empty")
	}

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		ext = ".txt"
	}

	oldKey := book.FileKey
	book.FileKey = bookID + ext
	if err := s.files.Save(book.FileKey, data); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	book.Touch()
	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}

	if oldKey != "" && oldKey != book.FileKey {
		if err := s.files.Delete(oldKey); err != nil {
			s.logger.Warn("stale document left behind", "key", oldKey, "error", err)
		}
	}

	s.logger.Info("document attached", "book_id", bookID, "key", book.FileKey)

	if s.scheduler != nil {
		s.scheduler.Schedule(domain.EnrichBookSummary, book.ID)
	}

	return book, nil
}

// DeleteBook removes a book, its stored document, and its index entry.
// Borrow and review history cascade away with the row.
func (s *BookService) DeleteBook(ctx context.Context, bookID string) error {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	if book.FileKey != "" {
		if err := s.files.Delete(book.FileKey); err != nil {
			s.logger.Warn("failed to delete stored document", "key", book.FileKey, "error", err)
		}
	}

	s.logger.Info("book deleted", "book_id", bookID)
	return nil
}

// ReviewAnalysis summarizes a book's review state: the rating average and
// the distribution of captured sentiment labels.
type ReviewAnalysis struct {
	BookID        string         `json:"book_id"`
	ReviewCount   int            `json:"review_count"`
	AnalyzedCount int            `json:"analyzed_count"`
	AverageRating float64        `json:"average_rating"`
	Sentiments    map[string]int `json:"sentiments"`
}

// AnalyzeReviews aggregates ratings and sentiment labels for a book.
// Reviews whose sentiment has not been captured yet count toward the rating
// average but not the sentiment distribution.
func (s *BookService) AnalyzeReviews(ctx context.Context, bookID string) (*ReviewAnalysis, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, err
	}

	reviews, err := s.store.ListReviewsByBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	analysis := &ReviewAnalysis{
		BookID:      bookID,
		ReviewCount: len(reviews),
		Sentiments:  make(map[string]int),
	}

	var ratingSum int
	for _, review := range reviews {
		ratingSum += review.Rating
		if review.Sentiment != nil {
			analysis.AnalyzedCount++
			analysis.Sentiments[string(review.Sentiment.Label)]++
		}
	}
	if len(reviews) > 0 {
		analysis.AverageRating = float64(ratingSum) / float64(len(reviews))
	}

	return analysis, nil
}

// BookText returns the text the summarizer should read for a book: the
// extracted uploaded document when one exists, the catalog description
// otherwise. An empty result means there is nothing to summarize.
func (s *BookService) BookText(ctx context.Context, bookID string) (string, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return "", err
	}

	if book.FileKey == "" {
		return strings.TrimSpace(book.Description), nil
	}

	data, err := s.files.Read(book.FileKey)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return extract.Text(book.FileKey, data)
}

// ReindexCatalog rebuilds the search index from the catalog. Used at startup
// recovery and by the admin reindex operation.
func (s *BookService) ReindexCatalog(ctx context.Context) (int, error) {
	books, err := s.store.ListAllBooks(ctx)
	if err != nil {
		return 0, fmt.Errorf("list catalog: %w", err)
	}
	if err := s.index.Rebuild(); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}
	if err := s.index.IndexBooks(books); err != nil {
		return 0, fmt.Errorf("reindex catalog: %w", err)
	}
	s.logger.Info("catalog reindexed", "books", len(books))
	return len(books), nil
}
