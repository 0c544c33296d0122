package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(clock *fakeClock, transitions *[]string) *CircuitBreaker {
	return NewCircuitBreaker(Config{
		FailureThreshold:    2,
		SuccessThreshold:    2,
		Timeout:             10 * time.Second,
		HalfOpenMaxRequests: 1,
	},
		WithClock(clock.Now),
		WithStateChangeHook(func(from, to State) {
			*transitions = append(*transitions, from.String()+"->"+to.String())
		}),
	)
}

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)

	assert.ErrorIs(t, cb.Execute(fail), errBoom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(fail), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)

	require.Error(t, cb.Execute(fail))
	require.NoError(t, cb.Execute(succeed))
	require.Error(t, cb.Execute(fail))
	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenRecovery(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)

	require.Error(t, cb.Execute(fail))
	require.Error(t, cb.Execute(fail))
	clock.Advance(10 * time.Second)
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(succeed))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Execute(succeed))
	assert.Equal(t, StateClosed, cb.State())

	assert.Equal(t, []string{"closed->open", "open->half_open", "half_open->closed"}, transitions)
}

func TestHalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)

	require.Error(t, cb.Execute(fail))
	require.Error(t, cb.Execute(fail))
	clock.Advance(11 * time.Second)

	assert.ErrorIs(t, cb.Execute(fail), errBoom)
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(succeed), ErrOpen)
}

func TestHalfOpenTrialLimit(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)

	require.Error(t, cb.Execute(fail))
	require.Error(t, cb.Execute(fail))
	clock.Advance(10 * time.Second)

	err := cb.Execute(func() error {
		// a second caller while the only trial call is in flight
		assert.ErrorIs(t, cb.Execute(succeed), ErrOpen)
		return nil
	})
	assert.NoError(t, err)
}

func TestReset(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)

	require.Error(t, cb.Execute(fail))
	require.Error(t, cb.Execute(fail))
	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.NoError(t, cb.Execute(succeed))
}

func TestDefaultsFillZeroConfig(t *testing.T) {
	cb := NewCircuitBreaker(Config{})
	assert.Equal(t, DefaultConfig(), cb.config)
}

// startSlowCall admits a call and returns a func that finishes it with
// result and waits for Execute to return.
func startSlowCall(t *testing.T, cb *CircuitBreaker, result error) func() {
	t.Helper()
	started, release, done := make(chan struct{}), make(chan struct{}), make(chan struct{})
	go func() {
		defer close(done)
		_ = cb.Execute(func() error {
			close(started)
			<-release
			return result
		})
	}()
	<-started
	return func() {
		close(release)
		<-done
	}
}

func TestResultFromEarlierStateIgnored(t *testing.T) {
	for _, result := range []error{nil, errBoom} {
		name := "success"
		if result != nil {
			name = "failure"
		}
		t.Run(name, func(t *testing.T) {
			clock := &fakeClock{t: time.Unix(0, 0)}
			var transitions []string
			cb := newTestBreaker(clock, &transitions)

			finish := startSlowCall(t, cb, result)

			require.Error(t, cb.Execute(fail))
			require.Error(t, cb.Execute(fail))
			clock.Advance(11 * time.Second)
			require.Equal(t, StateHalfOpen, cb.State())

			finish()
			assert.Equal(t, StateHalfOpen, cb.State())

			require.NoError(t, cb.Execute(succeed))
			assert.Equal(t, StateHalfOpen, cb.State())
			require.NoError(t, cb.Execute(succeed))
			assert.Equal(t, StateClosed, cb.State())
			assert.Equal(t, []string{"closed->open", "open->half_open", "half_open->closed"}, transitions)
		})
	}
}
