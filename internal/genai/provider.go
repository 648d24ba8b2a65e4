// Package genai adapts external text-generation backends behind a narrow
// interface. Implementations perform a single attempt per call and surface
// failures verbatim; all retry and backoff policy lives with the caller.
package genai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/librisapp/libris-server/internal/config"
	"github.com/librisapp/libris-server/internal/domain"
	"github.com/librisapp/libris-server/internal/ratelimit"
)

// maxInputChars bounds the text sent to a backend in one call.
// Longer inputs are truncated, not split.
const maxInputChars = 4000

// Provider is the capability set of a text-generation backend.
type Provider interface {
	// Name identifies the backend for logging.
	Name() string

	// Summarize produces a short summary of the given text.
	// Fails with errors.ErrBackendUnavailable or errors.ErrBackendTimeout.
	Summarize(ctx context.Context, text string) (string, error)

	// AnalyzeSentiment classifies the tone of the given text.
	// Fails with the same error kinds as Summarize.
	AnalyzeSentiment(ctx context.Context, text string) (domain.Sentiment, error)
}

// New selects a provider implementation from configuration.
// All providers share one outbound rate limiter keyed by backend name.
func New(cfg config.GenAIConfig, logger *slog.Logger) (Provider, error) {
	limiter := ratelimit.New(cfg.RequestsPerSecond, cfg.Burst)

	switch cfg.Provider {
	case "mock":
		return NewMock(), nil
	case "openai":
		return NewOpenAI(cfg, logger, limiter), nil
	case "ollama":
		return NewOllama(cfg, logger, limiter), nil
	default:
		return nil, fmt.Errorf("unknown genai provider %q", cfg.Provider)
	}
}

// truncate clips text to the backend input budget without splitting a rune.
func truncate(text string) string {
	if len(text) <= maxInputChars {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxInputChars {
		return text
	}
	return string(runes[:maxInputChars])
}

// clampSentiment coerces an untrusted backend classification into the
// accepted label set and confidence range.
func clampSentiment(s domain.Sentiment) domain.Sentiment {
	if !domain.ValidSentimentLabel(s.Label) {
		s.Label = domain.SentimentNeutral
	}
	if s.Confidence < 0 {
		s.Confidence = 0
	}
	if s.Confidence > 1 {
		s.Confidence = 1
	}
	return s
}
