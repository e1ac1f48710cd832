package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/davidbz/tokenmeter/internal/config"
	"github.com/davidbz/tokenmeter/internal/observability"
)

func TestInitLogger(t *testing.T) {
	logger, err := observability.InitLogger(&config.LogConfig{Level: "debug"})
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = observability.InitLogger(&config.LogConfig{Level: "verbose"})
	require.Error(t, err)
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	observability.SetLogger(zap.New(core))
	t.Cleanup(func() { observability.SetLogger(nil) })

	ctx := context.Background()
	ctx = observability.WithTraceID(ctx, "trace-1")
	ctx = observability.WithRequestID(ctx, "req-1")
	ctx = observability.WithUserID(ctx, "u1")
	ctx = observability.WithModel(ctx, "gpt-4o")

	observability.FromContext(ctx).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	require.Equal(t, "trace-1", fields["trace_id"])
	require.Equal(t, "req-1", fields["request_id"])
	require.Equal(t, "u1", fields["user_id"])
	require.Equal(t, "gpt-4o", fields["model"])
	require.NotContains(t, fields, "span_id")
}

func TestGenerateIDs(t *testing.T) {
	require.Len(t, observability.GenerateTraceID(), 32)
	require.Len(t, observability.GenerateSpanID(), 16)
	require.NotEqual(t, observability.GenerateRequestID(), observability.GenerateRequestID())
}
