package providers

import (
	"github.com/samber/do/v2"

	"github.com/librisapp/libris-server/internal/config"
	"github.com/librisapp/libris-server/internal/enrich"
	"github.com/librisapp/libris-server/internal/genai"
	"github.com/librisapp/libris-server/internal/logger"
	"github.com/librisapp/libris-server/internal/service"
)

// OrchestratorHandle wraps the enrichment orchestrator with shutdown capability.
type OrchestratorHandle struct {
	*enrich.Orchestrator
}

// Shutdown implements do.Shutdownable.
func (h *OrchestratorHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideOrchestrator provides the running enrichment orchestrator and wires
// it back into the services that schedule jobs. The back-wiring runs here
// because the orchestrator reads book text through the book service.
func ProvideOrchestrator(i do.Injector) (*OrchestratorHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	provider := do.MustInvoke[genai.Provider](i)
	bookService := do.MustInvoke[*service.BookService](i)
	reviewService := do.MustInvoke[*service.ReviewService](i)

	orchestrator := enrich.New(cfg.Enrich, storeHandle.Store, bookService, provider, enrich.NewRegistry(), log.Logger)
	orchestrator.Start()

	bookService.SetScheduler(orchestrator)
	reviewService.SetScheduler(orchestrator)

	return &OrchestratorHandle{Orchestrator: orchestrator}, nil
}
