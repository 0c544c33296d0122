package llm_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailtriage/internal/llm"
	"mailtriage/internal/llm/llmtest"
	"mailtriage/pkg/circuitbreaker"
	"mailtriage/pkg/config"
	"mailtriage/pkg/metrics"
)

func TestWithBreakerOpensAfterFailures(t *testing.T) {
	backend := llmtest.Failing(llm.ErrServiceTimeout)
	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{FailureThreshold: 2, Timeout: time.Hour})
	g := llm.WithBreaker(backend, cb)

	for i := 0; i < 2; i++ {
		_, err := g.Generate(context.Background(), "p")
		assert.ErrorIs(t, err, llm.ErrServiceTimeout)
	}

	_, err := g.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, llm.ErrServiceUnavailable)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, 2, backend.Calls())
}

func TestWithBreakerPassesThrough(t *testing.T) {
	backend := llmtest.NewScripted(llmtest.Rule{Reply: "ok"})
	g := llm.WithBreaker(backend, circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()))

	out, err := g.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

type memStore struct {
	mu     sync.Mutex
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	s.ttls[key] = ttl
	return nil
}

func TestWithCache(t *testing.T) {
	backend := llmtest.NewScripted(llmtest.Rule{Reply: "high"})
	store := newMemStore()
	g := llm.WithCache(backend, store, llm.CacheOptions{Namespace: "ollama/llama3.2", TTL: time.Minute}, zap.NewNop())

	hits := testutil.ToFloat64(metrics.CacheLookupCount.WithLabelValues("hit"))

	for i := 0; i < 3; i++ {
		out, err := g.Generate(context.Background(), "urgency?")
		require.NoError(t, err)
		assert.Equal(t, "high", out)
	}

	assert.Equal(t, 1, backend.Calls())
	assert.Equal(t, hits+2, testutil.ToFloat64(metrics.CacheLookupCount.WithLabelValues("hit")))

	key := llm.CacheKey("mailtriage:prompt:", "ollama/llama3.2", "urgency?")
	assert.Equal(t, "high", store.data[key])
	assert.Equal(t, time.Minute, store.ttls[key])
}

func TestWithCacheSkipsErrorsAndEmpty(t *testing.T) {
	backend := llmtest.NewScripted(llmtest.Rule{Reply: ""},
		llmtest.Rule{Match: "fail", Err: llm.ErrServiceFailure},
	)
	store := newMemStore()
	g := llm.WithCache(backend, store, llm.CacheOptions{}, zap.NewNop())

	_, err := g.Generate(context.Background(), "fail please")
	assert.ErrorIs(t, err, llm.ErrServiceFailure)
	_, err = g.Generate(context.Background(), "fail please")
	assert.ErrorIs(t, err, llm.ErrServiceFailure)

	out, err := g.Generate(context.Background(), "empty")
	require.NoError(t, err)
	assert.Equal(t, "", out)

	assert.Empty(t, store.data)
	assert.Equal(t, 3, backend.Calls())
}

func TestWithCacheFailsOpen(t *testing.T) {
	backend := llmtest.NewScripted(llmtest.Rule{Reply: "billing"})
	store := newMemStore()
	store.getErr = errors.New("redis down")
	store.setErr = errors.New("redis down")
	g := llm.WithCache(backend, store, llm.CacheOptions{}, zap.NewNop())

	out, err := g.Generate(context.Background(), "type?")
	require.NoError(t, err)
	assert.Equal(t, "billing", out)
	assert.Equal(t, 1, backend.Calls())
}

func TestCacheKeyNamespaces(t *testing.T) {
	a := llm.CacheKey("p:", "ollama/a", "prompt")
	b := llm.CacheKey("p:", "ollama/b", "prompt")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, llm.CacheKey("p:", "ollama/a", "prompt"))
	assert.Len(t, a, len("p:")+64)
}

func TestWithMetrics(t *testing.T) {
	failedBefore := histogramCount(t, "mailtriage_llm_call_latency_ms", "metrics-test", "unavailable")
	okBefore := histogramCount(t, "mailtriage_llm_call_latency_ms", "metrics-test", "success")

	g := llm.WithMetrics(llmtest.Failing(llm.ErrServiceUnavailable), "metrics-test")
	_, err := g.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, llm.ErrServiceUnavailable)

	g = llm.WithMetrics(llmtest.NewScripted(llmtest.Rule{Reply: "x"}), "metrics-test")
	_, err = g.Generate(context.Background(), "p")
	require.NoError(t, err)

	assert.Equal(t, failedBefore+1, histogramCount(t, "mailtriage_llm_call_latency_ms", "metrics-test", "unavailable"))
	assert.Equal(t, okBefore+1, histogramCount(t, "mailtriage_llm_call_latency_ms", "metrics-test", "success"))
}

func TestNewSelectsBackend(t *testing.T) {
	g, err := llm.New(context.Background(), llmConfig("ollama"))
	require.NoError(t, err)
	assert.IsType(t, &llm.OllamaGenerator{}, g)

	g, err = llm.New(context.Background(), llmConfig(""))
	require.NoError(t, err)
	assert.IsType(t, &llm.OllamaGenerator{}, g)

	g, err = llm.New(context.Background(), llmConfig("anthropic"))
	require.NoError(t, err)
	assert.IsType(t, &llm.AnthropicGenerator{}, g)

	_, err = llm.New(context.Background(), llmConfig("openai"))
	assert.Error(t, err)
}

func TestModelName(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LLMConfig
		want string
	}{
		{name: "ollama default", cfg: config.LLMConfig{}, want: llm.DefaultOllamaModel},
		{name: "anthropic default", cfg: config.LLMConfig{Provider: "anthropic"}, want: llm.DefaultAnthropicModel},
		{name: "gemini default", cfg: config.LLMConfig{Provider: "gemini"}, want: llm.DefaultGeminiModel},
		{
			name: "section model",
			cfg: config.LLMConfig{
				Provider:  "anthropic",
				Ollama:    config.LLMBackendConfig{Model: "llama2"},
				Anthropic: config.LLMBackendConfig{Model: "claude-haiku-4-5"},
			},
			want: "claude-haiku-4-5",
		},
		{
			name: "other sections ignored",
			cfg: config.LLMConfig{
				Provider: "gemini",
				Ollama:   config.LLMBackendConfig{Model: "llama2"},
			},
			want: llm.DefaultGeminiModel,
		},
		{name: "unknown provider", cfg: config.LLMConfig{Provider: "openai"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llm.ModelName(tt.cfg))
		})
	}
}
