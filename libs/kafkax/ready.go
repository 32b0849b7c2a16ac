package kafkax

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// ReadyCheck dials the first reachable broker and, when topics are given,
// confirms each of them has partitions.
func ReadyCheck(brokers string, topics ...string) func(context.Context) error {
	list := SplitBrokers(brokers)
	return func(ctx context.Context) error {
		if len(list) == 0 {
			return errors.New("kafka brokers not configured")
		}
		dialer := kafka.Dialer{Timeout: 2 * time.Second}

		var conn *kafka.Conn
		var err error
		for _, addr := range list {
			if conn, err = dialer.DialContext(ctx, "tcp", addr); err == nil {
				break
			}
		}
		if err != nil {
			return err
		}
		defer conn.Close()

		for _, topic := range topics {
			parts, err := conn.ReadPartitions(topic)
			if err != nil {
				return fmt.Errorf("topic %s: %w", topic, err)
			}
			if len(parts) == 0 {
				return fmt.Errorf("topic %s has no partitions", topic)
			}
		}
		return nil
	}
}
