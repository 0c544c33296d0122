// Package llmtest provides scripted llm.Generator implementations for tests
// and offline runs.
package llmtest

import (
	"context"
	"strings"
	"sync"
)

// Rule answers prompts containing Match with Reply, or fails with Err.
type Rule struct {
	Match string
	Reply string
	Err   error
}

// Scripted is a Generator that answers from an ordered rule list and records
// every prompt it receives. It is safe for concurrent use.
type Scripted struct {
	rules    []Rule
	fallback Rule

	mu      sync.Mutex
	prompts []string
}

// NewScripted returns a Scripted generator. Prompts matching no rule get
// fallback's Reply/Err.
func NewScripted(fallback Rule, rules ...Rule) *Scripted {
	return &Scripted{rules: rules, fallback: fallback}
}

// Failing returns a generator whose every call fails with err.
func Failing(err error) *Scripted {
	return NewScripted(Rule{Err: err})
}

func (s *Scripted) Generate(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	for _, r := range s.rules {
		if strings.Contains(prompt, r.Match) {
			return r.Reply, r.Err
		}
	}
	return s.fallback.Reply, s.fallback.Err
}

// Calls returns the number of prompts received.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// Prompts returns a copy of the received prompts in call order.
func (s *Scripted) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}
