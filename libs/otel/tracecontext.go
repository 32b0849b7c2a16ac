package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TraceContext is the W3C trace context in its header form, suitable for
// storing next to a row and resuming the trace later.
type TraceContext struct {
	Parent string
	State  string
}

// CurrentTraceContext captures the span context of ctx. Both fields are
// empty when ctx carries no span or no propagator is installed.
func CurrentTraceContext(ctx context.Context) TraceContext {
	c := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, c)
	return TraceContext{Parent: c.Get("traceparent"), State: c.Get("tracestate")}
}

// Resume returns ctx with tc installed as the remote parent.
func (tc TraceContext) Resume(ctx context.Context) context.Context {
	if tc.Parent == "" {
		return ctx
	}
	c := propagation.MapCarrier{"traceparent": tc.Parent}
	if tc.State != "" {
		c["tracestate"] = tc.State
	}
	return otel.GetTextMapPropagator().Extract(ctx, c)
}
