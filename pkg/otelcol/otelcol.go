package otelcol

import (
	"context"
	"time"

	"workshop-backend/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("otelcol",
	fx.Invoke(Register),
)

// Register installs the OTLP trace pipeline as the global tracer provider.
// When disabled the global stays noop and span-derived log fields are simply
// omitted, so a workshop running without a collector loses tracing and
// nothing else.
func Register(lc fx.Lifecycle, cfg *config.Config) error {
	if !cfg.Otel.Enable {
		return nil
	}

	exporter, err := newExporter(cfg)
	if err != nil {
		zap.L().Error("[Otel] Failed to create trace exporter", zap.Error(err))
		return err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(newResource(cfg)),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	zap.L().Info("[Otel] Trace pipeline registered",
		zap.String("protocol", cfg.Otel.Protocol),
		zap.String("endpoint", cfg.Otel.Endpoint),
	)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})

	return nil
}

func newResource(cfg *config.Config) *resource.Resource {
	return resource.NewSchemaless(
		attribute.String("service.name", cfg.AppName),
		attribute.String("service.version", cfg.AppVersion),
		attribute.String("deployment.environment", cfg.AppEnv),
	)
}

func newExporter(cfg *config.Config) (sdktrace.SpanExporter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cfg.Otel.Protocol == "grpc" {
		client := otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(cfg.Otel.Endpoint),
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithCompressor("gzip"),
		)
		return otlptrace.New(ctx, client)
	}

	client := otlptracehttp.NewClient(
		otlptracehttp.WithEndpoint(cfg.Otel.Endpoint),
		otlptracehttp.WithInsecure(),
		otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
	)
	return otlptrace.New(ctx, client)
}
