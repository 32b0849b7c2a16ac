package otelx

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/fieldcrew/opsuite/libs/config"
)

type Config struct {
	Enabled     bool
	ServiceName string
	Environment string
	Endpoint    string // OTLP gRPC collector, host:port
	Insecure    bool
	SampleRatio float64
}

// ConfigFromEnv reads the OTEL_* variables. Tracing is on when an endpoint
// is configured unless OTEL_ENABLED says otherwise.
func ConfigFromEnv(serviceName string) Config {
	endpoint := config.String("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	cfg := Config{
		Enabled:     config.Bool("OTEL_ENABLED", endpoint != ""),
		ServiceName: serviceName,
		Environment: config.String("DEPLOY_ENV", "local"),
		Endpoint:    endpoint,
		Insecure:    config.Bool("OTEL_EXPORTER_OTLP_INSECURE", true),
		SampleRatio: 1,
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if f, err := strconv.ParseFloat(config.String("OTEL_SAMPLING_RATIO", ""), 64); err == nil && f >= 0 && f <= 1 {
		cfg.SampleRatio = f
	}
	return cfg
}

// Setup installs the W3C propagators and, when enabled, a batching OTLP
// tracer provider. The returned func flushes and stops it.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop, nil
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithTimeout(3 * time.Second),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return noop, fmt.Errorf("otlp exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			attribute.String("deployment.environment", cfg.Environment),
		),
		resource.WithHost(),
	)
	if err != nil {
		return noop, fmt.Errorf("otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Tracer returns a named tracer from the global provider. Before Setup runs,
// or when tracing is disabled, spans are no-ops.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
