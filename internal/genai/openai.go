package genai

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/librisapp/libris-server/internal/config"
	"github.com/librisapp/libris-server/internal/domain"
	apperrors "github.com/librisapp/libris-server/internal/errors"
	"github.com/librisapp/libris-server/internal/ratelimit"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
)

// OpenAI calls the OpenAI chat completions API.
type OpenAI struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
	baseURL string
	model   string
	apiKey  string
}

// NewOpenAI creates an OpenAI-backed provider.
func NewOpenAI(cfg config.GenAIConfig, logger *slog.Logger, limiter *ratelimit.KeyedRateLimiter) *OpenAI {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{
		http: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		limiter: limiter,
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  cfg.APIKey,
	}
}

// Name identifies the backend for logging.
func (o *OpenAI) Name() string { return "openai" }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize asks the chat model for a short summary of the text.
func (o *OpenAI) Summarize(ctx context.Context, text string) (string, error) {
	content, err := o.complete(ctx,
		"You summarize books for a library catalog. Reply with a concise 2-3 sentence summary.",
		truncate(text))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// AnalyzeSentiment asks the chat model to classify the text's tone as JSON.
func (o *OpenAI) AnalyzeSentiment(ctx context.Context, text string) (domain.Sentiment, error) {
	content, err := o.complete(ctx,
		`You classify review sentiment. Reply with only a JSON object of the form `+
			`{"label": "positive"|"neutral"|"negative", "confidence": 0.0-1.0}.`,
		truncate(text))
	if err != nil {
		return domain.Sentiment{}, err
	}

	var sentiment domain.Sentiment
	if err := json.Unmarshal([]byte(extractJSON(content)), &sentiment); err != nil {
		// A malformed classification is a backend fault, not a caller fault.
		return domain.Sentiment{}, apperrors.BackendUnavailable("malformed sentiment response").WithCause(err)
	}
	return clampSentiment(sentiment), nil
}

// complete performs a single chat completion call.
func (o *OpenAI) complete(ctx context.Context, system, user string) (string, error) {
	if err := o.limiter.Wait(ctx, o.Name()); err != nil {
		return "", classifyTransportErr(err)
	}

	payload, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

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

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", apperrors.BackendUnavailable("malformed completion response").WithCause(err)
	}
	if len(parsed.Choices) == 0 {
		return "", apperrors.BackendUnavailable("completion response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// extractJSON strips markdown code fences some models wrap around JSON replies.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			return s[start : end+1]
		}
	}
	return s
}

// classifyTransportErr maps transport failures to the backend error taxonomy.
func classifyTransportErr(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.BackendTimeout("generation backend timed out").WithCause(err)
	}
	return apperrors.BackendUnavailable("generation backend unreachable").WithCause(err)
}

// classifyStatus maps non-200 responses to the backend error taxonomy.
func classifyStatus(status int, body []byte) error {
	msg := fmt.Sprintf("generation backend returned status %d", status)
	if status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout {
		return apperrors.BackendTimeout(msg)
	}
	return apperrors.BackendUnavailable(msg).WithDetails(strings.TrimSpace(string(body)))
}
