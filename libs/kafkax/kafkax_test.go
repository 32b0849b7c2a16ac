package kafkax

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestExtractEventMetaFallsBackToKeyAndTopic(t *testing.T) {
	meta := ExtractEventMeta(kafka.Message{Topic: "jobs.status.changed.v1", Key: []byte("evt-1")})
	if meta.EventID != "evt-1" || meta.EventType != "jobs.status.changed.v1" {
		t.Fatalf("unexpected meta %+v", meta)
	}
}

func TestNewMessageCarriesMetaHeaders(t *testing.T) {
	msg := NewMessage(context.Background(), "schedule.events", "job-1",
		EventMeta{EventID: "e1", EventType: "schedule.job.rescheduled.v1"}, []byte(`{}`))
	meta := ExtractEventMeta(msg)
	if meta.EventID != "e1" || meta.EventType != "schedule.job.rescheduled.v1" {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if string(msg.Key) != "job-1" {
		t.Fatalf("unexpected key %q", msg.Key)
	}
}

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka-1:9092, ,kafka-2:9092")
	if len(got) != 2 || got[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", got)
	}
}

func TestInjectTraceHeadersAppendsAndOverwrites(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	const parent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), propagation.MapCarrier{"traceparent": parent})

	stale := []kafka.Header{{Key: "traceparent", Value: []byte("stale")}}
	got := InjectTraceHeaders(ctx, stale)
	if len(got) != 1 || HeaderValue(got, "traceparent") != parent {
		t.Fatalf("expected overwritten traceparent, got %v", got)
	}

	msg := NewMessage(ctx, "t", "k", EventMeta{EventID: "e", EventType: "t", BusinessID: "b"}, nil)
	if HeaderValue(msg.Headers, "traceparent") != parent {
		t.Fatal("expected traceparent appended to new message")
	}
	if meta := ExtractEventMeta(msg); meta.BusinessID != "b" {
		t.Fatalf("unexpected meta %+v", meta)
	}
}
