package api

import "github.com/librisapp/libris-server/internal/service"

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	User           *service.UserService
	Book           *service.BookService
	Borrow         *service.BorrowService
	Review         *service.ReviewService
	Recommendation *service.RecommendationService
}
