package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/model"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/outbox"
)

const jobColumns = `id::text, business_id::text, title, customer_name, scheduled_at, duration_minutes,
	status, date_only, created_at, updated_at`

func scanJob(row rowScanner) (model.Job, error) {
	var (
		j      model.Job
		status string
	)
	err := row.Scan(&j.ID, &j.BusinessID, &j.Title, &j.CustomerName, &j.ScheduledAt, &j.DurationMinutes,
		&status, &j.DateOnly, &j.CreatedAt, &j.UpdatedAt)
	j.Status = model.JobStatus(status)
	return j, err
}

func scheduledEnd(j model.Job) *time.Time {
	if j.ScheduledAt == nil {
		return nil
	}
	end := j.ScheduledAt.Add(j.Duration())
	return &end
}

// ListActiveJobs returns scheduled and in-progress jobs whose interval
// overlaps [from, to), date-only placeholders included.
func (r *Repository) ListActiveJobs(ctx context.Context, businessID string, from, to time.Time) ([]model.Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE business_id = $1
			AND status IN ('scheduled', 'in_progress')
			AND scheduled_at IS NOT NULL
			AND scheduled_at < $3
			AND scheduled_end > $2
		ORDER BY scheduled_at, id
	`, businessID, from, to)
	if err != nil {
		return nil, translate("list active jobs", err)
	}
	defer rows.Close()

	var out []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list active jobs", err)
	}
	return out, nil
}

func (r *Repository) GetJob(ctx context.Context, businessID, jobID string) (model.Job, error) {
	j, err := scanJob(r.pool.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE business_id = $1 AND id = $2
	`, businessID, jobID))
	if err != nil {
		return model.Job{}, translate("get job", err)
	}
	return j, nil
}

// InsertJob fails with model.ErrOverlap when the job would overlap another
// active job of the business.
func (r *Repository) InsertJob(ctx context.Context, j model.Job, evt outbox.Event) (model.Job, error) {
	if j.DurationMinutes <= 0 {
		j.DurationMinutes = int(model.DefaultJobDuration / time.Minute)
	}
	err := r.write(ctx, evt, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `
			INSERT INTO jobs
				(id, business_id, title, customer_name, scheduled_at, scheduled_end, duration_minutes, status, date_only)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at, updated_at
		`, j.ID, j.BusinessID, j.Title, j.CustomerName, j.ScheduledAt, scheduledEnd(j),
			j.DurationMinutes, string(j.Status), j.DateOnly).Scan(&j.CreatedAt, &j.UpdatedAt)
	})
	if err != nil {
		return model.Job{}, translate("insert job", err)
	}
	return j, nil
}

// UpdateJobSchedule moves a job, or clears its date when at is nil. The row
// is locked first so the duration used for scheduled_end cannot change
// underneath.
func (r *Repository) UpdateJobSchedule(ctx context.Context, businessID, jobID string, at *time.Time, dateOnly bool, evt outbox.Event) (model.Job, error) {
	var updated model.Job
	err := r.write(ctx, evt, func(tx pgx.Tx) error {
		current, err := scanJob(tx.QueryRow(ctx, `
			SELECT `+jobColumns+`
			FROM jobs
			WHERE business_id = $1 AND id = $2
			FOR UPDATE
		`, businessID, jobID))
		if err != nil {
			return err
		}
		current.ScheduledAt = at
		current.DateOnly = at != nil && dateOnly
		updated, err = scanJob(tx.QueryRow(ctx, `
			UPDATE jobs
			SET scheduled_at = $3, scheduled_end = $4, date_only = $5, updated_at = now()
			WHERE business_id = $1 AND id = $2
			RETURNING `+jobColumns,
			businessID, jobID, current.ScheduledAt, scheduledEnd(current), current.DateOnly))
		return err
	})
	if err != nil {
		return model.Job{}, translate("update job schedule", err)
	}
	return updated, nil
}

// UpdateJobStatus moves a job from one status to another. It reports
// model.ErrNotFound when the job is missing or no longer in status from.
func (r *Repository) UpdateJobStatus(ctx context.Context, businessID, jobID string, from, to model.JobStatus, evt outbox.Event) (model.Job, error) {
	var updated model.Job
	err := r.write(ctx, evt, func(tx pgx.Tx) error {
		var err error
		updated, err = scanJob(tx.QueryRow(ctx, `
			UPDATE jobs
			SET status = $4, updated_at = now()
			WHERE business_id = $1 AND id = $2 AND status = $3
			RETURNING `+jobColumns,
			businessID, jobID, string(from), string(to)))
		return err
	})
	if err != nil {
		return model.Job{}, translate("update job status", err)
	}
	return updated, nil
}
