// Package telemetry sets up structured logging and OpenTelemetry tracing for
// the storefront processes.
//
//	shutdown, err := telemetry.SetupTracer(ctx, telemetry.TracerConfigFromEnv("storefront-gateway"))
//	if err != nil { ... }
//	defer shutdown(context.Background())
package telemetry

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ShutdownFunc flushes buffered spans and closes the exporter.
type ShutdownFunc func(ctx context.Context) error

// TracerConfig describes where spans go and how many are kept.
type TracerConfig struct {
	ServiceName string
	Environment string
	// Endpoint is the collector's host:port; an http(s) scheme is tolerated.
	Endpoint    string
	SampleRatio float64
	// Disabled installs the propagators only, so request ids and trace
	// headers still flow between processes.
	Disabled bool
}

// TracerConfigFromEnv reads the standard OTEL_* variables plus DEPLOY_ENV.
func TracerConfigFromEnv(serviceName string) TracerConfig {
	disabled, _ := strconv.ParseBool(os.Getenv("OTEL_SDK_DISABLED"))
	return TracerConfig{
		ServiceName: serviceName,
		Environment: getEnv("DEPLOY_ENV", "local"),
		Endpoint:    stripScheme(getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")),
		SampleRatio: sampleRatio(os.Getenv("OTEL_TRACES_SAMPLER_ARG")),
		Disabled:    disabled,
	}
}

// SetupTracer installs the global propagators and, unless cfg.Disabled, a
// TracerProvider exporting over OTLP/gRPC.
func SetupTracer(ctx context.Context, cfg TracerConfig) (ShutdownFunc, error) {
	// the REST adapter and otelgrpc both read the global propagator
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if cfg.Disabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(stripScheme(cfg.Endpoint)),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: otlp exporter for %s: %w", cfg.Endpoint, err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes("",
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			return fmt.Errorf("telemetry: shutdown tracer provider: %w", err)
		}
		return nil
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// sampleRatio parses a ratio in [0, 1]. Anything else samples everything.
func sampleRatio(raw string) float64 {
	r, err := strconv.ParseFloat(raw, 64)
	if err != nil || r < 0 || r > 1 {
		return 1
	}
	return r
}

// stripScheme turns an http(s) URL into a bare host:port.
func stripScheme(endpoint string) string {
	for _, prefix := range []string{"http://", "https://"} {
		if rest, ok := strings.CutPrefix(endpoint, prefix); ok && rest != "" {
			return rest
		}
	}
	return endpoint
}
