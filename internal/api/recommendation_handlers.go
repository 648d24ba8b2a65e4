package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/librisapp/libris-server/internal/service"
)

func (s *Server) registerRecommendationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getRecommendations",
		Method:      http.MethodGet,
		Path:        "/api/v1/recommendations",
		Summary:     "Get recommendations",
		Description: "Returns personalized book recommendations for the current user",
		Tags:        []string{"Recommendations"},
	}, s.handleGetRecommendations)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSimilarBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/similar",
		Summary:     "Get similar books",
		Description: "Returns books similar to the given one by genre affinity",
		Tags:        []string{"Recommendations"},
	}, s.handleGetSimilarBooks)
}

// === DTOs ===

// RecommendationResponse pairs a book with its blended score.
type RecommendationResponse struct {
	Book  BookResponse `json:"book" doc:"Recommended book"`
	Score float64      `json:"score" doc:"Blended ranking score"`
}

func toRecommendationResponses(recs []service.Recommendation) []RecommendationResponse {
	resp := make([]RecommendationResponse, len(recs))
	for i, rec := range recs {
		resp[i] = RecommendationResponse{
			Book:  toBookResponse(rec.Book),
			Score: rec.Score,
		}
	}
	return resp
}

// GetRecommendationsInput contains parameters for personalized recommendations.
type GetRecommendationsInput struct {
	UserID string `header:"X-User-ID" doc:"Caller identity"`
	Limit  int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Maximum recommendations"`
}

// RecommendationsResponse contains a ranked recommendation list.
type RecommendationsResponse struct {
	Recommendations []RecommendationResponse `json:"recommendations" doc:"Ranked best first"`
}

// RecommendationsOutput wraps the recommendation list for huma.
type RecommendationsOutput struct {
	Body RecommendationsResponse
}

// GetSimilarBooksInput contains parameters for the similar-books listing.
type GetSimilarBooksInput struct {
	UserID string `header:"X-User-ID" doc:"Caller identity"`
	ID     string `path:"id" doc:"Book ID"`
	Limit  int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Maximum results"`
}

// === Handlers ===

func (s *Server) handleGetRecommendations(ctx context.Context, input *GetRecommendationsInput) (*RecommendationsOutput, error) {
	user, err := s.authenticateRequest(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	recs, err := s.services.Recommendation.GetRecommendations(ctx, user.ID, input.Limit)
	if err != nil {
		return nil, err
	}

	return &RecommendationsOutput{Body: RecommendationsResponse{
		Recommendations: toRecommendationResponses(recs),
	}}, nil
}

func (s *Server) handleGetSimilarBooks(ctx context.Context, input *GetSimilarBooksInput) (*RecommendationsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.UserID); err != nil {
		return nil, err
	}

	recs, err := s.services.Recommendation.GetSimilar(ctx, input.ID, input.Limit)
	if err != nil {
		return nil, err
	}

	return &RecommendationsOutput{Body: RecommendationsResponse{
		Recommendations: toRecommendationResponses(recs),
	}}, nil
}
