package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadConfigLayers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
llm:
  provider: ollama
  timeout: 30s
  ollama:
    base_url: http://localhost:11434
    model: llama2
  anthropic:
    api_key: ${LLM_KEY}
server:
  port: ":8080"
`)
	writeFile(t, dir, "staging.yaml", `
llm:
  ollama:
    model: llama3.2
`)
	writeFile(t, dir, "secrets.env", `
# comment
LLM_KEY="s3cret"
`)

	cfgMap, err := LoadConfig("staging", dir)
	require.NoError(t, err)

	var cfg struct {
		LLM    LLMConfig    `yaml:"llm"`
		Server ServerConfig `yaml:"server"`
	}
	require.NoError(t, Decode(cfgMap, &cfg))

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.Ollama.BaseURL)
	assert.Equal(t, "llama3.2", cfg.LLM.Ollama.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "s3cret", cfg.LLM.Anthropic.APIKey)
	assert.Equal(t, ":8080", cfg.Server.Port)
}

func TestLoadConfigMissingBase(t *testing.T) {
	_, err := LoadConfig("local", t.TempDir())
	assert.Error(t, err)
}

func TestLoadConfigUnknownEnvFallsBackToBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "mq:\n  url: amqp://base\n")

	cfgMap, err := LoadConfig("nope", dir)
	require.NoError(t, err)

	var cfg struct {
		MQ MQConfig `yaml:"mq"`
	}
	require.NoError(t, Decode(cfgMap, &cfg))
	assert.Equal(t, "amqp://base", cfg.MQ.URL)
}

func TestMergeMaps(t *testing.T) {
	dst := map[string]interface{}{
		"a": map[string]interface{}{"x": 1, "y": 2},
		"b": "keep",
	}
	src := map[string]interface{}{
		"a": map[string]interface{}{"y": 3},
		"c": true,
	}

	got := mergeMaps(dst, src)
	assert.Equal(t, map[string]interface{}{
		"a": map[string]interface{}{"x": 1, "y": 3},
		"b": "keep",
		"c": true,
	}, got)
}

func TestOverrideLLMFromEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("LLM_MODEL", "claude-haiku-4-5")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("GEMINI_API_KEY", "")

	cfg := LLMConfig{
		Provider: "ollama",
		Timeout:  time.Second,
		Ollama:   LLMBackendConfig{BaseURL: "http://localhost:11434", Model: "llama2"},
	}
	OverrideLLMFromEnv(&cfg)

	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, LLMBackendConfig{Model: "claude-haiku-4-5", APIKey: "sk-ant"}, cfg.Anthropic)
	assert.Equal(t, LLMBackendConfig{BaseURL: "http://localhost:11434", Model: "llama2"}, cfg.Ollama)
}

func TestLLMConfigActive(t *testing.T) {
	cfg := LLMConfig{}
	assert.Same(t, &cfg.Ollama, cfg.Active())

	cfg.Provider = "gemini"
	assert.Same(t, &cfg.Gemini, cfg.Active())

	cfg.Provider = "openai"
	assert.Nil(t, cfg.Active())
}

func TestSubstituteString(t *testing.T) {
	t.Setenv("MAILTRIAGE_TEST_HOST", "from-env")

	tests := []struct {
		name string
		in   string
		env  map[string]string
		want string
	}{
		{name: "no placeholder", in: "plain", want: "plain"},
		{name: "secrets first", in: "${MAILTRIAGE_TEST_HOST}", env: map[string]string{"MAILTRIAGE_TEST_HOST": "from-secrets"}, want: "from-secrets"},
		{name: "process env", in: "amqp://${MAILTRIAGE_TEST_HOST}:5672/", want: "amqp://from-env:5672/"},
		{name: "unknown kept", in: "${MAILTRIAGE_TEST_MISSING}", want: "${MAILTRIAGE_TEST_MISSING}"},
		{name: "dollar without braces", in: "pa$$word", want: "pa$$word"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, substituteString(tt.in, tt.env))
		})
	}
}

func TestOverrideOtelFromEnv(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.1")

	cfg := OtelConfig{SampleRatio: 1}
	OverrideOtelFromEnv(&cfg)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "collector:4317", cfg.Endpoint)
	assert.InDelta(t, 0.1, cfg.SampleRatio, 1e-9)
}
