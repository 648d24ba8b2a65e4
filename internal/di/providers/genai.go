package providers

import (
	"github.com/samber/do/v2"

	"github.com/librisapp/libris-server/internal/config"
	"github.com/librisapp/libris-server/internal/genai"
	"github.com/librisapp/libris-server/internal/logger"
)

// ProvideGenAIProvider provides the text-generation backend adapter.
func ProvideGenAIProvider(i do.Injector) (genai.Provider, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	provider, err := genai.New(cfg.GenAI, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Generation backend configured", "provider", provider.Name())

	return provider, nil
}
