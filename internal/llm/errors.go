package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"mailtriage/pkg/circuitbreaker"
)

var (
	// ErrServiceTimeout the service did not answer within the configured timeout.
	ErrServiceTimeout = errors.New("generation service timeout")
	// ErrServiceUnavailable the service could not be reached.
	ErrServiceUnavailable = errors.New("generation service unavailable")
	// ErrServiceFailure any other failure: non-success status, malformed body.
	ErrServiceFailure = errors.New("generation service failure")
)

// Kind is the coarse classification of a generation error.
type Kind string

const (
	KindNone        Kind = ""
	KindTimeout     Kind = "timeout"
	KindUnavailable Kind = "unavailable"
	KindFailure     Kind = "failure"
)

// Classify maps err onto a Kind. Errors already wrapping one of the service
// sentinels keep that kind; transport errors are inspected for timeouts and
// connection failures; everything else is KindFailure.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	switch {
	case errors.Is(err, ErrServiceTimeout):
		return KindTimeout
	case errors.Is(err, ErrServiceUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrServiceFailure):
		return KindFailure
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	if errors.Is(err, circuitbreaker.ErrOpen) || errors.Is(err, syscall.ECONNREFUSED) {
		return KindUnavailable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindUnavailable
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindUnavailable
	}

	return KindFailure
}

// Sentinel returns the sentinel error for k.
func (k Kind) Sentinel() error {
	switch k {
	case KindTimeout:
		return ErrServiceTimeout
	case KindUnavailable:
		return ErrServiceUnavailable
	case KindFailure:
		return ErrServiceFailure
	}
	return nil
}

// wrapError tags err with its service sentinel and the backend name, so that
// errors.Is works against both the sentinel and the original cause.
func wrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	kind := Classify(err)
	if errors.Is(err, kind.Sentinel()) {
		return fmt.Errorf("%s: %w", provider, err)
	}
	return fmt.Errorf("%s: %w: %w", provider, kind.Sentinel(), err)
}
