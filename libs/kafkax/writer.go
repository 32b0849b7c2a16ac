package kafkax

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// NewWriter builds a synchronous writer that routes by message key, so all
// events for one aggregate land on the same partition in order.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// NewMessage stamps event metadata and the current trace context onto a message.
func NewMessage(ctx context.Context, topic string, key string, meta EventMeta, value []byte) kafka.Message {
	return kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   value,
		Headers: InjectTraceHeaders(ctx, meta.headers()),
		Time:    time.Now().UTC(),
	}
}
