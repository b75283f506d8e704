package otelcol

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"workshop-backend/internal/config"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestRegisterDisabledLeavesGlobalUntouched(t *testing.T) {
	prev := otel.GetTracerProvider()

	lc := fxtest.NewLifecycle(t)
	require.NoError(t, Register(lc, &config.Config{}))
	require.Same(t, prev, otel.GetTracerProvider())
}

func TestRegisterInstallsProvider(t *testing.T) {
	cfg := &config.Config{AppName: "workshop-backend"}
	cfg.Otel.Enable = true
	cfg.Otel.Protocol = "http"
	cfg.Otel.Endpoint = "127.0.0.1:4318"

	lc := fxtest.NewLifecycle(t)
	require.NoError(t, Register(lc, cfg))

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	require.True(t, ok)

	// Spans from the global tracer now carry real ids.
	_, span := otel.Tracer("workshop").Start(context.Background(), "schedule")
	require.True(t, span.SpanContext().TraceID().IsValid())
	span.End()

	lc.RequireStart()
	// Shutdown flushes to the configured endpoint; no collector is listening
	// here, so the error is expected and only cleanup matters.
	_ = lc.Stop(context.Background())
}
