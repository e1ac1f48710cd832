package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/tokenmeter/internal/config"
	"github.com/davidbz/tokenmeter/internal/telemetry"
)

func TestInitTracer(t *testing.T) {
	t.Run("none exporter yields a usable no-op tracer", func(t *testing.T) {
		tracing, err := telemetry.InitTracer(&config.TelemetryConfig{
			ServiceName:  "tokenmeter",
			ExporterType: telemetry.ExporterNone,
		})
		require.NoError(t, err)

		_, span := tracing.Tracer().Start(context.Background(), "test")
		span.End()
		require.False(t, span.SpanContext().IsValid())

		require.NoError(t, tracing.Shutdown(context.Background()))
	})

	t.Run("stdout exporter records spans", func(t *testing.T) {
		tracing, err := telemetry.InitTracer(&config.TelemetryConfig{
			ServiceName:  "tokenmeter",
			ExporterType: telemetry.ExporterStdout,
		})
		require.NoError(t, err)

		_, span := tracing.Tracer().Start(context.Background(), "test")
		require.True(t, span.SpanContext().IsValid())
		span.End()

		require.NoError(t, tracing.Shutdown(context.Background()))
	})

	t.Run("unknown exporter", func(t *testing.T) {
		_, err := telemetry.InitTracer(&config.TelemetryConfig{ExporterType: "zipkin"})
		require.Error(t, err)
	})
}
