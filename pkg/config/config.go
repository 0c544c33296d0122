package config

import (
	"os"
	"strconv"
	"time"
)

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LLMConfig selects the text-generation backend. Each backend keeps its own
// section so switching provider never inherits another backend's endpoint
// or model.
type LLMConfig struct {
	Provider  string           `yaml:"provider"`
	Timeout   time.Duration    `yaml:"timeout"`
	Ollama    LLMBackendConfig `yaml:"ollama"`
	Anthropic LLMBackendConfig `yaml:"anthropic"`
	Gemini    LLMBackendConfig `yaml:"gemini"`
}

// LLMBackendConfig configures one backend. Empty fields use the backend's
// own defaults.
type LLMBackendConfig struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	MaxTokens int    `yaml:"max_tokens"`
}

// Active returns the section of the selected provider, or nil for an
// unknown one. An empty provider means ollama.
func (c *LLMConfig) Active() *LLMBackendConfig {
	switch c.Provider {
	case "", "ollama":
		return &c.Ollama
	case "anthropic":
		return &c.Anthropic
	case "gemini":
		return &c.Gemini
	default:
		return nil
	}
}

// BreakerConfig configures the circuit breaker around the generation backend.
type BreakerConfig struct {
	Enabled             bool          `yaml:"enabled"`
	FailureThreshold    int           `yaml:"failure_threshold"`
	SuccessThreshold    int           `yaml:"success_threshold"`
	OpenTimeout         time.Duration `yaml:"open_timeout"`
	HalfOpenMaxRequests int           `yaml:"half_open_max_requests"`
}

// RedisConfig Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CacheConfig configures the prompt cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	Prefix  string        `yaml:"prefix"`
}

// MQConfig message queue settings.
type MQConfig struct {
	URL            string `yaml:"url"`
	Exchange       string `yaml:"exchange"`
	ConnectionName string `yaml:"connection_name"`
}

// ServerConfig HTTP server settings.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// OtelConfig tracing exporter settings.
type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// OverrideLogFromEnv overrides log settings from the environment.
func OverrideLogFromEnv(cfg *LogConfig) {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Format = format
	}
}

// OverrideLLMFromEnv overrides generation backend settings from the environment.
// LLM_BASE_URL, LLM_MODEL and LLM_API_KEY apply to the selected provider's
// section. Provider specific API keys only fill an empty api_key.
func OverrideLLMFromEnv(cfg *LLMConfig) {
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		cfg.Provider = provider
	}
	if timeout := os.Getenv("LLM_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.Timeout = d
		}
	}
	if active := cfg.Active(); active != nil {
		if url := os.Getenv("LLM_BASE_URL"); url != "" {
			active.BaseURL = url
		}
		if model := os.Getenv("LLM_MODEL"); model != "" {
			active.Model = model
		}
		if key := os.Getenv("LLM_API_KEY"); key != "" {
			active.APIKey = key
		}
	}
	if cfg.Anthropic.APIKey == "" {
		cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

// OverrideRedisFromEnv overrides Redis settings from the environment.
func OverrideRedisFromEnv(cfg *RedisConfig) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			cfg.DB = n
		}
	}
}

// OverrideMQFromEnv overrides MQ settings from the environment.
func OverrideMQFromEnv(cfg *MQConfig) {
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.URL = url
	}
}

// OverrideServerFromEnv overrides server settings from the environment.
func OverrideServerFromEnv(cfg *ServerConfig) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
}

// OverrideOtelFromEnv overrides tracing settings from the environment.
func OverrideOtelFromEnv(cfg *OtelConfig) {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		cfg.Endpoint = endpoint
		cfg.Enabled = true
	}
	if arg := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); arg != "" {
		if ratio, err := strconv.ParseFloat(arg, 64); err == nil {
			cfg.SampleRatio = ratio
		}
	}
}
