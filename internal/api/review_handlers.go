package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/librisapp/libris-server/internal/api/dto"
	"github.com/librisapp/libris-server/internal/domain"
)

func (s *Server) registerReviewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createReview",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/reviews",
		Summary:     "Create review",
		Description: "Rates a book the current user has borrowed",
		Tags:        []string{"Reviews"},
	}, s.handleCreateReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBookReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/reviews",
		Summary:     "List book reviews",
		Description: "Returns all reviews of a book, newest first",
		Tags:        []string{"Reviews"},
	}, s.handleListBookReviews)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMyReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/reviews",
		Summary:     "List my reviews",
		Description: "Returns the current user's reviews, newest first",
		Tags:        []string{"Reviews"},
	}, s.handleListMyReviews)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteReview",
		Method:      http.MethodDelete,
		Path:        "/api/v1/reviews/{id}",
		Summary:     "Delete review",
		Description: "Deletes one of the current user's reviews",
		Tags:        []string{"Reviews"},
	}, s.handleDeleteReview)
}

// === DTOs ===

// SentimentResponse contains a review's analyzed tone.
type SentimentResponse struct {
	Label      string  `json:"label" doc:"positive, negative or neutral"`
	Confidence float64 `json:"confidence" doc:"Confidence in [0,1]"`
}

// ReviewResponse contains review data in API responses.
type ReviewResponse struct {
	ID        string             `json:"id" doc:"Review ID"`
	UserID    string             `json:"user_id" doc:"Reviewer"`
	BookID    string             `json:"book_id" doc:"Reviewed book"`
	Rating    int                `json:"rating" doc:"Star rating, 1-5"`
	Text      string             `json:"text,omitempty" doc:"Written opinion"`
	Sentiment *SentimentResponse `json:"sentiment,omitempty" doc:"Analyzed tone, null until enrichment completes"`
	CreatedAt time.Time          `json:"created_at" doc:"Creation time"`
}

func toReviewResponse(r *domain.Review) ReviewResponse {
	resp := ReviewResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		BookID:    r.BookID,
		Rating:    r.Rating,
		Text:      r.Text,
		CreatedAt: r.CreatedAt,
	}
	if r.Sentiment != nil {
		resp.Sentiment = &SentimentResponse{
			Label:      string(r.Sentiment.Label),
			Confidence: r.Sentiment.Confidence,
		}
	}
	return resp
}

// CreateReviewRequest is the request body for reviewing a book.
type CreateReviewRequest struct {
	Rating int    `json:"rating" minimum:"1" maximum:"5" doc:"Star rating"`
	Text   string `json:"text,omitempty" doc:"Written opinion, optional"`
}

// CreateReviewInput wraps the create review request for huma.
type CreateReviewInput struct {
	UserID string `header:"X-User-ID" doc:"Caller identity"`
	ID     string `path:"id" doc:"Book ID"`
	Body   CreateReviewRequest
}

// ReviewOutput wraps a review response for huma.
type ReviewOutput struct {
	Body ReviewResponse
}

// ListBookReviewsInput contains parameters for listing a book's reviews.
type ListBookReviewsInput struct {
	UserID string `header:"X-User-ID" doc:"Caller identity"`
	ID     string `path:"id" doc:"Book ID"`
}

// ListMyReviewsInput identifies the caller.
type ListMyReviewsInput struct {
	UserID string `header:"X-User-ID" doc:"Caller identity"`
}

// ListReviewsResponse contains a set of reviews.
type ListReviewsResponse struct {
	Reviews []ReviewResponse `json:"reviews" doc:"Reviews, newest first"`
}

// ListReviewsOutput wraps a review listing for huma.
type ListReviewsOutput struct {
	Body ListReviewsResponse
}

// DeleteReviewInput contains parameters for deleting a review.
type DeleteReviewInput struct {
	UserID string `header:"X-User-ID" doc:"Caller identity"`
	ID     string `path:"id" doc:"Review ID"`
}

// === Handlers ===

func (s *Server) handleCreateReview(ctx context.Context, input *CreateReviewInput) (*ReviewOutput, error) {
	user, err := s.authenticateRequest(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	review, err := s.services.Review.CreateReview(ctx, user.ID, input.ID, input.Body.Rating, input.Body.Text)
	if err != nil {
		return nil, err
	}

	return &ReviewOutput{Body: toReviewResponse(review)}, nil
}

func (s *Server) handleListBookReviews(ctx context.Context, input *ListBookReviewsInput) (*ListReviewsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.UserID); err != nil {
		return nil, err
	}

	reviews, err := s.services.Review.ListBookReviews(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]ReviewResponse, len(reviews))
	for i, r := range reviews {
		resp[i] = toReviewResponse(r)
	}

	return &ListReviewsOutput{Body: ListReviewsResponse{Reviews: resp}}, nil
}

func (s *Server) handleListMyReviews(ctx context.Context, input *ListMyReviewsInput) (*ListReviewsOutput, error) {
	user, err := s.authenticateRequest(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	reviews, err := s.services.Review.ListUserReviews(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]ReviewResponse, len(reviews))
	for i, r := range reviews {
		resp[i] = toReviewResponse(r)
	}

	return &ListReviewsOutput{Body: ListReviewsResponse{Reviews: resp}}, nil
}

func (s *Server) handleDeleteReview(ctx context.Context, input *DeleteReviewInput) (*dto.MessageOutput, error) {
	user, err := s.authenticateRequest(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Review.DeleteReview(ctx, user.ID, input.ID); err != nil {
		return nil, err
	}

	return &dto.MessageOutput{Body: dto.MessageResponse{Message: "Review deleted"}}, nil
}
