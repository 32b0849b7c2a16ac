package outbox

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/fieldcrew/opsuite/libs/kafkax"
)

func TestBuildMessageCarriesMetaAndTrace(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	const parent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

	msg := BuildMessage(context.Background(), Record{
		ID:          7,
		EventID:     "3e1b4c2a-0000-4000-8000-000000000007",
		BusinessID:  "biz-1",
		AggregateID: "job-1",
		EventType:   JobRescheduled,
		Payload:     []byte(`{"job_id":"job-1"}`),
		Traceparent: parent,
	})

	if msg.Topic != JobRescheduled || string(msg.Key) != "job-1" {
		t.Fatalf("unexpected routing topic=%q key=%q", msg.Topic, msg.Key)
	}
	meta := kafkax.ExtractEventMeta(msg)
	if meta.EventID != "3e1b4c2a-0000-4000-8000-000000000007" || meta.EventType != JobRescheduled || meta.BusinessID != "biz-1" {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if got := kafkax.HeaderValue(msg.Headers, "traceparent"); got != parent {
		t.Fatalf("expected traceparent %q, got %q", parent, got)
	}
}
