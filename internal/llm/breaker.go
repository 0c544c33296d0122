package llm

import (
	"context"
	"errors"
	"fmt"

	"mailtriage/pkg/circuitbreaker"
)

type breakerGenerator struct {
	next Generator
	cb   *circuitbreaker.CircuitBreaker
}

// WithBreaker guards next with cb. While the breaker is open calls fail
// immediately with ErrServiceUnavailable.
func WithBreaker(next Generator, cb *circuitbreaker.CircuitBreaker) Generator {
	return &breakerGenerator{next: next, cb: cb}
}

func (g *breakerGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var out string
	err := g.cb.Execute(func() error {
		var err error
		out, err = g.next.Generate(ctx, prompt)
		return err
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return "", fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	return out, err
}
