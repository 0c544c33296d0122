package llm_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"mailtriage/pkg/config"
)

func llmConfig(provider string) config.LLMConfig {
	backend := config.LLMBackendConfig{
		BaseURL: "http://127.0.0.1:1",
		Model:   "test-model",
		APIKey:  "test-key",
	}
	return config.LLMConfig{
		Provider:  provider,
		Timeout:   time.Second,
		Ollama:    backend,
		Anthropic: backend,
		Gemini:    backend,
	}
}

// histogramCount returns the sample count of the provider/status series of
// the named histogram in the default registry.
func histogramCount(t *testing.T, name, provider, status string) uint64 {
	t.Helper()
	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["provider"] == provider && labels["status"] == status {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}
