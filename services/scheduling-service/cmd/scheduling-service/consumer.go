package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldcrew/opsuite/libs/config"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/consumer"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/inbox"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/schedule"
)

// startConsumer runs the job status consumer when brokers are configured.
// The returned func waits for it to stop.
func startConsumer(ctx context.Context, logger *slog.Logger, inboxRepo *inbox.Repository, brokers string, svc *schedule.Service) func() {
	if brokers == "" {
		logger.Warn("job status consumer disabled (no kafka brokers configured)")
		return func() {}
	}
	c := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: config.String("KAFKA_GROUP_ID", "scheduling-service"),
		Topic:   config.String("KAFKA_JOB_STATUS_TOPIC", "jobs.status.changed.v1"),
	}, consumer.JobStatusHandler(svc, logger))

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()
	return func() { <-done }
}

func purgeInbox(ctx context.Context, logger *slog.Logger, repo *inbox.Repository, retention time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.Purge(ctx, time.Now().Add(-retention))
			if err != nil {
				logger.Warn("inbox purge failed", "err", err)
				continue
			}
			if n > 0 {
				logger.Info("inbox purged", "count", n)
			}
		}
	}
}
