package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fieldcrew/opsuite/libs/kafkax"
	otelx "github.com/fieldcrew/opsuite/libs/otel"
)

type Handler func(ctx context.Context, msg kafka.Message) error

// Inbox de-duplicates deliveries by event id.
type Inbox interface {
	Record(ctx context.Context, eventID string, eventType string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

type Consumer struct {
	reader  *kafka.Reader
	logger  *slog.Logger
	inbox   Inbox
	handler Handler
	tracer  trace.Tracer
}

type Config struct {
	Brokers string
	GroupID string
	Topic   string
}

func New(logger *slog.Logger, inbox Inbox, cfg Config, handler Handler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  kafkax.SplitBrokers(cfg.Brokers),
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{
		reader:  reader,
		logger:  logger,
		inbox:   inbox,
		handler: handler,
		tracer:  otelx.Tracer("kafka"),
	}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka read error", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		c.Handle(ctx, msg)
	}
}

// Handle processes one message: de-duplicate, run the handler inside a span,
// and release the inbox record when the handler fails so a redelivery is
// not mistaken for a duplicate.
func (c *Consumer) Handle(ctx context.Context, msg kafka.Message) {
	ctxMsg := kafkax.ExtractTraceContext(ctx, msg)
	ctxSpan, span := c.tracer.Start(ctxMsg, "kafka.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
		),
	)
	defer span.End()

	meta := kafkax.ExtractEventMeta(msg)
	span.SetAttributes(attribute.String("messaging.message_id", meta.EventID))

	ok, err := c.inbox.Record(ctxSpan, meta.EventID, meta.EventType)
	if err != nil {
		c.logger.Error("inbox record failed", "err", err, "event_id", meta.EventID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "inbox")
		return
	}
	if !ok {
		c.logger.Info("duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
		return
	}

	if err := c.handler(ctxSpan, msg); err != nil {
		c.logger.Error("handler error", "err", err, "event_id", meta.EventID, "business_id", meta.BusinessID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "handler")
		if ferr := c.inbox.Forget(ctxSpan, meta.EventID); ferr != nil {
			c.logger.Warn("inbox release failed", "err", ferr, "event_id", meta.EventID)
		}
	}
}
