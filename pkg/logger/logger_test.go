package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"mailtriage/pkg/trace"
)

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("debug", "console")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = NewLogger("warn", "json")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))

	_, err = NewLogger("loud", "json")
	assert.Error(t, err)

	_, err = NewLogger("info", "xml")
	assert.Error(t, err)
}

func TestWithTrace(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	WithTrace(trace.WithContext(context.Background(), "t-1"), base).Info("with")
	WithTrace(context.Background(), base).Info("without")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "t-1", entries[0].ContextMap()[trace.TraceIDKey])
	assert.NotContains(t, entries[1].ContextMap(), trace.TraceIDKey)
}
