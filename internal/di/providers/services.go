package providers

import (
	"github.com/samber/do/v2"

	"github.com/librisapp/libris-server/internal/logger"
	"github.com/librisapp/libris-server/internal/rank"
	"github.com/librisapp/libris-server/internal/service"
	"github.com/librisapp/libris-server/internal/storage"
)

// ProvideRankEngine provides the recommendation engine.
func ProvideRankEngine(i do.Injector) (*rank.Engine, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return rank.NewEngine(storeHandle.Store, log.Logger), nil
}

// ProvideUserService provides the user service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return service.NewUserService(storeHandle.Store, log.Logger), nil
}

// ProvideBookService provides the book service. Its enrichment scheduler is
// wired later by the orchestrator provider.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	files := do.MustInvoke[*storage.Local](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	return service.NewBookService(storeHandle.Store, files, indexHandle.Index, log.Logger), nil
}

// ProvideBorrowService provides the borrow service.
func ProvideBorrowService(i do.Injector) (*service.BorrowService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	engine := do.MustInvoke[*rank.Engine](i)

	return service.NewBorrowService(storeHandle.Store, engine, log.Logger), nil
}

// ProvideReviewService provides the review service. Its enrichment scheduler
// is wired later by the orchestrator provider.
func ProvideReviewService(i do.Injector) (*service.ReviewService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	engine := do.MustInvoke[*rank.Engine](i)

	return service.NewReviewService(storeHandle.Store, engine, log.Logger), nil
}

// ProvideRecommendationService provides the recommendation service.
func ProvideRecommendationService(i do.Injector) (*service.RecommendationService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	engine := do.MustInvoke[*rank.Engine](i)

	return service.NewRecommendationService(storeHandle.Store, engine, log.Logger), nil
}
