package genai

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/librisapp/libris-server/internal/config"
	"github.com/librisapp/libris-server/internal/domain"
	apperrors "github.com/librisapp/libris-server/internal/errors"
	"github.com/librisapp/libris-server/internal/ratelimit"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "llama3.2"
)

// Ollama calls a local Ollama instance via its generate API.
type Ollama struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
	baseURL string
	model   string
}

// NewOllama creates an Ollama-backed provider.
func NewOllama(cfg config.GenAIConfig, logger *slog.Logger, limiter *ratelimit.KeyedRateLimiter) *Ollama {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}
	return &Ollama{
		http: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		limiter: limiter,
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
	}
}

// Name identifies the backend for logging.
func (o *Ollama) Name() string { return "ollama" }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Summarize asks the local model for a short summary of the text.
func (o *Ollama) Summarize(ctx context.Context, text string) (string, error) {
	prompt := "Summarize the following book text in 2-3 sentences:\n\n" + truncate(text)
	out, err := o.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// AnalyzeSentiment asks the local model to classify the text's tone as JSON.
func (o *Ollama) AnalyzeSentiment(ctx context.Context, text string) (domain.Sentiment, error) {
	prompt := `Classify the sentiment of the following review. Reply with only a JSON object ` +
		`of the form {"label": "positive"|"neutral"|"negative", "confidence": 0.0-1.0}.` +
		"\n\n" + truncate(text)
	out, err := o.generate(ctx, prompt)
	if err != nil {
		return domain.Sentiment{}, err
	}

	var sentiment domain.Sentiment
	if err := json.Unmarshal([]byte(extractJSON(out)), &sentiment); err != nil {
		return domain.Sentiment{}, apperrors.BackendUnavailable("malformed sentiment response").WithCause(err)
	}
	return clampSentiment(sentiment), nil
}

// generate performs a single non-streaming generate call.
func (o *Ollama) generate(ctx context.Context, prompt string) (string, error) {
	if err := o.limiter.Wait(ctx, o.Name()); err != nil {
		return "", classifyTransportErr(err)
	}

	payload, err := json.Marshal(generateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	o.logger.Debug("genai request", "provider", o.Name(), "model", o.model)

	resp, err := o.http.Do(req)
	if err != nil {
		return "", classifyTransportErr(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransportErr(err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, body)
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", apperrors.BackendUnavailable("malformed generate response").WithCause(err)
	}
	return parsed.Response, nil
}
