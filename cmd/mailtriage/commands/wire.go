package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mailtriage/internal/config"
	"mailtriage/internal/llm"
	"mailtriage/internal/pipeline"
	"mailtriage/internal/service"
	"mailtriage/pkg/circuitbreaker"
	"mailtriage/pkg/mq"
	"mailtriage/pkg/otel"
	"mailtriage/pkg/redis"
)

// app holds the wired dependencies and the cleanup funcs to run on exit.
type app struct {
	triage  *service.TriageService
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{}

	shutdownTracing, err := otel.Init(ctx, otel.Config{
		ServiceName:    cfg.Otel.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Otel.Endpoint,
		Enabled:        cfg.Otel.Enabled,
		SampleRatio:    cfg.Otel.SampleRatio,
	}, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, shutdownTracing)

	generator, err := buildGenerator(ctx, cfg, logger, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	var publisher mq.Publisher = mq.NopPublisher{}
	if cfg.MQ.URL != "" {
		p, err := mq.NewPublisher(cfg.MQ)
		if err != nil {
			a.Close()
			return nil, err
		}
		publisher = p
		a.closers = append(a.closers, p.Close)
		logger.Info("Publishing triage events", zap.String("exchange", p.Exchange()))
	}

	processor := pipeline.NewProcessor(generator, logger)
	a.triage = service.NewTriageService(processor, publisher, logger)
	return a, nil
}

// buildGenerator creates the configured backend and layers, innermost first:
// metrics, circuit breaker, prompt cache.
func buildGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger, a *app) (llm.Generator, error) {
	backend, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	model := llm.ModelName(cfg.LLM)
	logger.Info("Generation backend ready",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", model),
		zap.Duration("timeout", cfg.LLM.Timeout),
	)

	generator := llm.WithMetrics(backend, cfg.LLM.Provider)

	if cfg.Breaker.Enabled {
		cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{
			FailureThreshold:    cfg.Breaker.FailureThreshold,
			SuccessThreshold:    cfg.Breaker.SuccessThreshold,
			Timeout:             cfg.Breaker.OpenTimeout,
			HalfOpenMaxRequests: cfg.Breaker.HalfOpenMaxRequests,
		}, circuitbreaker.WithStateChangeHook(func(from, to circuitbreaker.State) {
			logger.Warn("Generation circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		}))
		generator = llm.WithBreaker(generator, cb)
	}

	if cfg.Cache.Enabled {
		rdb, err := redis.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		generator = llm.WithCache(generator, llm.NewRedisStore(rdb), llm.CacheOptions{
			Namespace: fmt.Sprintf("%s/%s", cfg.LLM.Provider, model),
			Prefix:    cfg.Cache.Prefix,
			TTL:       cfg.Cache.TTL,
		}, logger)
		logger.Info("Prompt cache enabled", zap.String("redis", cfg.Redis.Addr), zap.Duration("ttl", cfg.Cache.TTL))
	}

	return generator, nil
}
