// Package llm wraps the text-generation backends used by the triage pipeline.
//
// Every backend satisfies Generator and reports failures as one of the
// service error kinds in errors.go, so callers can tell a timeout from an
// unreachable service without knowing which backend is configured.
package llm

import (
	"context"
	"time"
)

// DefaultTimeout bounds a single generation call when none is configured.
const DefaultTimeout = 30 * time.Second

// Generator turns a prompt into a whitespace-trimmed completion.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
