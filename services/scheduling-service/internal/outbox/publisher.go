package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fieldcrew/opsuite/libs/db"
	"github.com/fieldcrew/opsuite/libs/kafkax"
	otelx "github.com/fieldcrew/opsuite/libs/otel"
)

// MessageWriter is the slice of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Publisher struct {
	pool      *db.Pool
	repo      *Repository
	logger    *slog.Logger
	brokers   []string
	pollEvery time.Duration
	batchSize int
	retention time.Duration
}

type PublisherConfig struct {
	Brokers   string
	PollEvery time.Duration
	BatchSize int
	// Retention is how long published rows are kept. Zero keeps them forever.
	Retention time.Duration
}

func NewPublisher(pool *db.Pool, repo *Repository, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{
		pool:      pool,
		repo:      repo,
		logger:    logger,
		brokers:   kafkax.SplitBrokers(cfg.Brokers),
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
		retention: cfg.Retention,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	if len(p.brokers) == 0 {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}

	writer := kafkax.NewWriter(p.brokers)
	defer writer.Close()

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	lastPurge := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.publishBatch(ctx, writer)
			if err != nil {
				p.logger.Error("outbox publish failed", "err", err)
				continue
			}
			if n > 0 {
				p.logger.Debug("outbox batch published", "count", n)
			}
			if p.retention > 0 && time.Since(lastPurge) > time.Hour {
				lastPurge = time.Now()
				if purged, err := p.repo.PurgePublished(ctx, time.Now().Add(-p.retention)); err != nil {
					p.logger.Warn("outbox purge failed", "err", err)
				} else if purged > 0 {
					p.logger.Info("outbox purged", "count", purged)
				}
			}
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context, writer MessageWriter) (int, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	records, err := p.repo.FetchUnpublished(ctx, tx, p.batchSize)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, tx.Commit(ctx)
	}

	msgs := make([]kafka.Message, 0, len(records))
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		msgs = append(msgs, BuildMessage(ctx, r))
		ids = append(ids, r.ID)
	}
	if err := writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, err
	}
	if err := p.repo.MarkPublished(ctx, tx, ids); err != nil {
		return 0, err
	}
	return len(records), tx.Commit(ctx)
}

// BuildMessage turns an outbox row into a Kafka message on the topic named
// after its event type, keyed by aggregate id, continuing the row's trace.
func BuildMessage(ctx context.Context, r Record) kafka.Message {
	msgCtx := otelx.TraceContext{Parent: r.Traceparent, State: r.Tracestate}.Resume(ctx)
	return kafkax.NewMessage(msgCtx, r.EventType, r.AggregateID, kafkax.EventMeta{
		EventID:    r.EventID,
		EventType:  r.EventType,
		BusinessID: r.BusinessID,
	}, r.Payload)
}
