package genai

import (
	"context"
	"strings"

	"github.com/librisapp/libris-server/internal/domain"
)

var positiveWords = []string{"excellent", "amazing", "love", "great", "wonderful", "fantastic"}

var negativeWords = []string{"terrible", "awful", "hate", "bad", "horrible", "disappointing"}

// Mock is a deterministic in-process backend for development and tests.
// It never fails and needs no network access or credentials.
type Mock struct{}

// NewMock creates a mock provider.
func NewMock() *Mock {
	return &Mock{}
}

// Name identifies the backend for logging.
func (m *Mock) Name() string { return "mock" }

// Summarize returns the opening of the text as a stand-in summary.
func (m *Mock) Summarize(_ context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "No text available to summarize.", nil
	}

	const head = 200
	runes := []rune(text)
	if len(runes) <= head {
		return text, nil
	}
	return string(runes[:head]) + "...", nil
}

// AnalyzeSentiment classifies text by counting opinion keywords.
func (m *Mock) AnalyzeSentiment(_ context.Context, text string) (domain.Sentiment, error) {
	lower := strings.ToLower(text)

	var score int
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			score++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			score--
		}
	}

	sentiment := domain.Sentiment{Label: domain.SentimentNeutral, Confidence: 0.5}
	switch {
	case score > 0:
		sentiment.Label = domain.SentimentPositive
	case score < 0:
		sentiment.Label = domain.SentimentNegative
	}
	if score != 0 {
		sentiment.Confidence = 0.5 + 0.1*float64(abs(score))
		if sentiment.Confidence > 0.95 {
			sentiment.Confidence = 0.95
		}
	}
	return sentiment, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
