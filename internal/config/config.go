package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"mailtriage/internal/llm"
	"mailtriage/pkg/config"
)

type Config struct {
	Log     config.LogConfig     `yaml:"log"`
	LLM     config.LLMConfig     `yaml:"llm"`
	Breaker config.BreakerConfig `yaml:"breaker"`
	Redis   config.RedisConfig   `yaml:"redis"`
	Cache   config.CacheConfig   `yaml:"cache"`
	MQ      config.MQConfig      `yaml:"mq"`
	Server  config.ServerConfig  `yaml:"server"`
	Otel    config.OtelConfig    `yaml:"otel"`
}

// Default returns the settings used for keys missing from every layer.
func Default() Config {
	return Config{
		Log: config.LogConfig{Level: "info", Format: "json"},
		LLM: config.LLMConfig{
			Provider: llm.ProviderOllama,
			Timeout:  llm.DefaultTimeout,
			Ollama: config.LLMBackendConfig{
				BaseURL: llm.DefaultOllamaURL,
				Model:   llm.DefaultOllamaModel,
			},
		},
		Breaker: config.BreakerConfig{
			Enabled:             true,
			FailureThreshold:    3,
			SuccessThreshold:    2,
			OpenTimeout:         30 * time.Second,
			HalfOpenMaxRequests: 1,
		},
		Cache:  config.CacheConfig{TTL: time.Hour, Prefix: "mailtriage:prompt:"},
		Server: config.ServerConfig{Port: ":8080"},
		Otel:   config.OtelConfig{ServiceName: "mailtriage"},
	}
}

// Load reads the layered config for env from dir and applies environment
// overrides. An empty env uses CONFIG_ENV, an empty dir uses CONFIG_DIR.
func Load(env, dir string) (*Config, error) {
	if env == "" {
		env = config.GetConfigEnv()
	}
	if dir == "" {
		dir = config.GetEnv("CONFIG_DIR", "config")
	}

	cfgMap, err := config.LoadConfig(env, dir)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := config.Decode(cfgMap, &cfg); err != nil {
		return nil, err
	}

	config.OverrideLogFromEnv(&cfg.Log)
	config.OverrideLLMFromEnv(&cfg.LLM)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideOtelFromEnv(&cfg.Otel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the process cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(llm.Providers, c.LLM.Provider) {
		errs = append(errs, fmt.Errorf("llm.provider: unknown provider %q (want one of %v)", c.LLM.Provider, llm.Providers))
	}
	if active := c.LLM.Active(); active != nil && c.LLM.Provider != llm.ProviderOllama && c.LLM.Provider != "" &&
		strings.TrimRight(active.BaseURL, "/") == llm.DefaultOllamaURL {
		errs = append(errs, fmt.Errorf("llm.%s.base_url: points at the local Ollama server", c.LLM.Provider))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("llm.timeout: must be positive, got %s", c.LLM.Timeout))
	}
	if c.Cache.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("cache.enabled requires redis.addr"))
	}
	if c.Breaker.Enabled && c.Breaker.FailureThreshold <= 0 {
		errs = append(errs, errors.New("breaker.failure_threshold: must be positive"))
	}
	return errors.Join(errs...)
}
