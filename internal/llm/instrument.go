package llm

import (
	"context"
	"time"

	"mailtriage/pkg/metrics"
)

// WithMetrics records the latency and outcome of every call to next.
func WithMetrics(next Generator, provider string) Generator {
	return GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		start := time.Now()
		out, err := next.Generate(ctx, prompt)

		status := "success"
		if err != nil {
			status = string(Classify(err))
		}
		metrics.RecordLLMCallLatency(provider, status, time.Since(start))
		return out, err
	})
}
