package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"mailtriage/pkg/circuitbreaker"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	refused := &net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: os.NewSyscallError("connect", syscall.ECONNREFUSED),
	}

	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"sentinel timeout", ErrServiceTimeout, KindTimeout},
		{"wrapped unavailable", fmt.Errorf("x: %w", ErrServiceUnavailable), KindUnavailable},
		{"sentinel failure", ErrServiceFailure, KindFailure},
		{"context deadline", context.DeadlineExceeded, KindTimeout},
		{"url timeout", &url.Error{Op: "Post", URL: "http://x", Err: timeoutErr{}}, KindTimeout},
		{"connection refused", &url.Error{Op: "Post", URL: "http://x", Err: refused}, KindUnavailable},
		{"dns", &net.DNSError{Err: "no such host", Name: "ollama"}, KindUnavailable},
		{"breaker open", circuitbreaker.ErrOpen, KindUnavailable},
		{"json", &json.SyntaxError{Offset: 1}, KindFailure},
		{"other", errors.New("boom"), KindFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestWrapError(t *testing.T) {
	cause := &url.Error{Op: "Post", URL: "http://x", Err: timeoutErr{}}
	err := wrapError("ollama", cause)

	assert.ErrorIs(t, err, ErrServiceTimeout)
	var urlErr *url.Error
	assert.ErrorAs(t, err, &urlErr)
	assert.Contains(t, err.Error(), "ollama")

	already := fmt.Errorf("%w: bad status", ErrServiceFailure)
	err = wrapError("ollama", already)
	assert.ErrorIs(t, err, ErrServiceFailure)
	assert.Equal(t, "ollama: generation service failure: bad status", err.Error())

	assert.NoError(t, wrapError("ollama", nil))
}
