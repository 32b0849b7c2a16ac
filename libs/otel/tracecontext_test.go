package otelx

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestTraceContextRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	const parent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	ctx := TraceContext{Parent: parent}.Resume(context.Background())
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() || sc.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("expected remote span context, got %+v", sc)
	}

	if tc := CurrentTraceContext(ctx); tc.Parent != parent {
		t.Fatalf("expected %q, got %q", parent, tc.Parent)
	}
	if tc := CurrentTraceContext(context.Background()); tc.Parent != "" {
		t.Fatalf("expected empty trace context, got %+v", tc)
	}
}

func TestConfigFromEnvDisabled(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "FALSE")
	t.Setenv("OTEL_SAMPLING_RATIO", "2")
	cfg := ConfigFromEnv("scheduling-service")
	if cfg.Enabled {
		t.Fatal("expected tracing disabled")
	}
	if cfg.SampleRatio != 1 {
		t.Fatalf("out-of-range ratio should fall back to 1, got %v", cfg.SampleRatio)
	}
}

func TestConfigFromEnvEnabledByEndpoint(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.25")
	cfg := ConfigFromEnv("scheduling-service")
	if !cfg.Enabled || cfg.Endpoint != "collector:4317" || cfg.SampleRatio != 0.25 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
