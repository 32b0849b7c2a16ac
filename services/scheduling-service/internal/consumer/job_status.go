package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/model"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/schedule"
)

// StatusApplier is the part of schedule.Service the status handler drives.
type StatusApplier interface {
	TransitionJobStatus(ctx context.Context, businessID, jobID string, to model.JobStatus) (model.Job, error)
}

type jobStatusPayload struct {
	BusinessID string `json:"business_id"`
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
}

// JobStatusHandler applies job status changes published by the jobs
// workflow. Malformed or rejected events are logged and dropped; only
// storage failures are returned.
func JobStatusHandler(svc StatusApplier, logger *slog.Logger) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var p jobStatusPayload
		if err := json.Unmarshal(msg.Value, &p); err != nil {
			logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		p.BusinessID = strings.TrimSpace(p.BusinessID)
		p.JobID = strings.TrimSpace(p.JobID)
		if p.BusinessID == "" || p.JobID == "" || p.Status == "" {
			logger.Error("missing required event fields", "topic", msg.Topic)
			return nil
		}

		_, err := svc.TransitionJobStatus(ctx, p.BusinessID, p.JobID, model.JobStatus(strings.ToLower(p.Status)))
		switch {
		case err == nil:
			return nil
		case errors.Is(err, schedule.ErrJobNotFound),
			errors.Is(err, schedule.ErrInvalidTransition),
			errors.Is(err, schedule.ErrInvalidStatus):
			logger.Warn("job status event rejected", "err", err, "business_id", p.BusinessID, "job_id", p.JobID)
			return nil
		default:
			return err
		}
	}
}
