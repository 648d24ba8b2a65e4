package genai

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librisapp/libris-server/internal/config"
	"github.com/librisapp/libris-server/internal/domain"
	apperrors "github.com/librisapp/libris-server/internal/errors"
	"github.com/librisapp/libris-server/internal/ratelimit"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testLimiter() *ratelimit.KeyedRateLimiter {
	return ratelimit.New(1000, 1000)
}

func TestNew_SelectsProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantName string
		wantErr  bool
	}{
		{"mock", "mock", false},
		{"openai", "openai", false},
		{"ollama", "ollama", false},
		{"gemini", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := New(config.GenAIConfig{
				Provider:          tt.provider,
				APIKey:            "sk-test",
				RequestTimeout:    time.Second,
				RequestsPerSecond: 10,
				Burst:             10,
			}, testLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestOpenAI_Summarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":" A summary. "}}]}`)
	}))
	defer srv.Close()

	p := NewOpenAI(config.GenAIConfig{
		APIKey:         "sk-test",
		BaseURL:        srv.URL,
		RequestTimeout: time.Second,
	}, testLogger(), testLimiter())

	got, err := p.Summarize(context.Background(), "Some book text")
	require.NoError(t, err)
	assert.Equal(t, "A summary.", got)
}

func TestOpenAI_AnalyzeSentiment_FencedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Models often wrap JSON in code fences; the client must cope.
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant",`+
			`"content":"`+"```json\\n"+`{\"label\": \"positive\", \"confidence\": 0.9}`+"\\n```"+`"}}]}`)
	}))
	defer srv.Close()

	p := NewOpenAI(config.GenAIConfig{
		APIKey:         "sk-test",
		BaseURL:        srv.URL,
		RequestTimeout: time.Second,
	}, testLogger(), testLimiter())

	got, err := p.AnalyzeSentiment(context.Background(), "excellent")
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentPositive, got.Label)
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)
}

func TestOpenAI_AnalyzeSentiment_ClampsUntrustedValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant",`+
			`"content":"{\"label\": \"ecstatic\", \"confidence\": 3.5}"}}]}`)
	}))
	defer srv.Close()

	p := NewOpenAI(config.GenAIConfig{
		APIKey:         "sk-test",
		BaseURL:        srv.URL,
		RequestTimeout: time.Second,
	}, testLogger(), testLimiter())

	got, err := p.AnalyzeSentiment(context.Background(), "whatever")
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentNeutral, got.Label)
	assert.Equal(t, 1.0, got.Confidence)
}

func TestOpenAI_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewOpenAI(config.GenAIConfig{
		APIKey:         "sk-test",
		BaseURL:        srv.URL,
		RequestTimeout: time.Second,
	}, testLogger(), testLimiter())

	_, err := p.Summarize(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrBackendUnavailable)
	assert.True(t, apperrors.IsTransient(err))
}

func TestOpenAI_SlowBackendIsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	p := NewOpenAI(config.GenAIConfig{
		APIKey:         "sk-test",
		BaseURL:        srv.URL,
		RequestTimeout: 20 * time.Millisecond,
	}, testLogger(), testLimiter())

	_, err := p.Summarize(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrBackendTimeout)
	assert.True(t, apperrors.IsTransient(err))
}

func TestOpenAI_UnreachableHost(t *testing.T) {
	p := NewOpenAI(config.GenAIConfig{
		APIKey:         "sk-test",
		BaseURL:        "http://127.0.0.1:1", // nothing listens here
		RequestTimeout: time.Second,
	}, testLogger(), testLimiter())

	_, err := p.Summarize(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
}

func TestOllama_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"model":"llama3.2","response":"A local summary.","done":true}`)
	}))
	defer srv.Close()

	p := NewOllama(config.GenAIConfig{
		BaseURL:        srv.URL,
		RequestTimeout: time.Second,
	}, testLogger(), testLimiter())

	got, err := p.Summarize(context.Background(), "Some book text")
	require.NoError(t, err)
	assert.Equal(t, "A local summary.", got)
}

func TestOllama_Sentiment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"response":"{\"label\": \"negative\", \"confidence\": 0.8}","done":true}`)
	}))
	defer srv.Close()

	p := NewOllama(config.GenAIConfig{
		BaseURL:        srv.URL,
		RequestTimeout: time.Second,
	}, testLogger(), testLimiter())

	got, err := p.AnalyzeSentiment(context.Background(), "awful")
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentNegative, got.Label)
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))

	long := make([]rune, maxInputChars+100)
	for i := range long {
		long[i] = 'a'
	}
	got := truncate(string(long))
	assert.Len(t, []rune(got), maxInputChars)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, extractJSON(`{"a":1}`))
	assert.Equal(t, "no braces", extractJSON("no braces"))
}
