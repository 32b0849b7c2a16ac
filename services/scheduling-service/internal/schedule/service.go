// Package schedule holds the write side of scheduling: time blocks, job
// dates, bookings and job status.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/availability"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/hours"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/model"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/outbox"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/recurrence"
)

// Store is implemented by storage.Repository and memstore.Store. Each write
// records its outbox event atomically with the change.
type Store interface {
	availability.Store

	UpsertBusinessProfile(ctx context.Context, p model.BusinessProfile, evt outbox.Event) (model.BusinessProfile, error)

	GetTimeBlock(ctx context.Context, businessID, id string) (model.TimeBlock, error)
	InsertTimeBlock(ctx context.Context, b model.TimeBlock, evt outbox.Event) (model.TimeBlock, error)
	DeleteTimeBlock(ctx context.Context, businessID, id string, evt outbox.Event) error

	GetJob(ctx context.Context, businessID, jobID string) (model.Job, error)
	InsertJob(ctx context.Context, j model.Job, evt outbox.Event) (model.Job, error)
	UpdateJobSchedule(ctx context.Context, businessID, jobID string, at *time.Time, dateOnly bool, evt outbox.Event) (model.Job, error)
	UpdateJobStatus(ctx context.Context, businessID, jobID string, from, to model.JobStatus, evt outbox.Event) (model.Job, error)
}

type Service struct {
	store     Store
	engine    *availability.Engine
	validator *availability.Validator
	logger    *slog.Logger
	newID     func() string
}

func NewService(store Store, engine *availability.Engine, validator *availability.Validator, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		engine:    engine,
		validator: validator,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// CreateTimeBlock validates and stores a new block template.
func (s *Service) CreateTimeBlock(ctx context.Context, b model.TimeBlock) (model.TimeBlock, error) {
	b = b.Normalize()
	b.BusinessID = strings.TrimSpace(b.BusinessID)
	if err := b.Validate(); err != nil {
		return model.TimeBlock{}, err
	}
	b.ID = s.newID()

	payload, err := json.Marshal(map[string]any{
		"time_block_id": b.ID,
		"business_id":   b.BusinessID,
		"kind":          b.Kind,
		"start":         b.Start.UTC(),
		"end":           b.End.UTC(),
		"is_recurring":  b.Recurring,
		"pattern":       b.Pattern,
	})
	if err != nil {
		return model.TimeBlock{}, err
	}
	created, err := s.store.InsertTimeBlock(ctx, b, outbox.Event{
		AggregateType: outbox.AggregateTimeBlock,
		BusinessID:    b.BusinessID,
		AggregateID:   b.ID,
		EventType:     outbox.TimeBlockCreated,
		Payload:       payload,
	})
	if err != nil {
		return model.TimeBlock{}, fmt.Errorf("create time block: %w", err)
	}
	s.logger.Info("time block created", "business_id", b.BusinessID, "time_block_id", b.ID, "recurring", b.Recurring)
	return created, nil
}

// DeleteTimeBlock removes a template or one-off block. Synthesized
// occurrence ids are rejected with a DerivedInstanceError.
func (s *Service) DeleteTimeBlock(ctx context.Context, businessID, id string) error {
	businessID = strings.TrimSpace(businessID)
	id = strings.TrimSpace(id)
	if businessID == "" {
		return availability.ErrMissingBusinessID
	}
	if tpl, _, ok := recurrence.ParseInstanceID(id); ok {
		return &DerivedInstanceError{ID: id, TemplateID: tpl}
	}

	payload, err := json.Marshal(map[string]any{
		"time_block_id": id,
		"business_id":   businessID,
	})
	if err != nil {
		return err
	}
	err = s.store.DeleteTimeBlock(ctx, businessID, id, outbox.Event{
		AggregateType: outbox.AggregateTimeBlock,
		BusinessID:    businessID,
		AggregateID:   id,
		EventType:     outbox.TimeBlockDeleted,
		Payload:       payload,
	})
	if errors.Is(err, model.ErrNotFound) {
		return ErrTimeBlockNotFound
	}
	if err != nil {
		return fmt.Errorf("delete time block: %w", err)
	}
	s.logger.Info("time block deleted", "business_id", businessID, "time_block_id", id)
	return nil
}

// ListTimeBlocks expands every template of the business over [from, to).
func (s *Service) ListTimeBlocks(ctx context.Context, businessID string, from, to time.Time) ([]recurrence.Instance, error) {
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return nil, availability.ErrMissingBusinessID
	}
	loc, err := s.engine.Location(ctx, businessID)
	if err != nil {
		return nil, err
	}
	blocks, err := s.store.ListTimeBlocks(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("%w: load time blocks: %w", availability.ErrUnavailable, err)
	}
	return recurrence.Expand(blocks, from, to, loc), nil
}

// UpdateJobDate moves a job to at, or clears its date when at is nil. The
// job must belong to businessID. Timed moves of active jobs are re-validated
// against time blocks and other active jobs before the write; the storage
// overlap constraint settles races between concurrent writers.
func (s *Service) UpdateJobDate(ctx context.Context, businessID, jobID string, at *time.Time) (model.Job, error) {
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return model.Job{}, availability.ErrMissingBusinessID
	}
	job, err := s.store.GetJob(ctx, businessID, jobID)
	if errors.Is(err, model.ErrNotFound) {
		s.logger.Warn("job not visible to business", "business_id", businessID, "job_id", jobID)
		return model.Job{}, ErrJobNotFound
	}
	if err != nil {
		return model.Job{}, fmt.Errorf("%w: load job: %w", availability.ErrUnavailable, err)
	}

	dateOnly := false
	if at != nil {
		loc, err := s.engine.Location(ctx, businessID)
		if err != nil {
			return model.Job{}, err
		}
		dateOnly = model.IsLocalMidnight(*at, loc)
		if !dateOnly && job.Status.Occupies() {
			conflicts, err := s.engine.Conflicts(ctx, businessID, *at, job.Duration(), job.ID)
			if err != nil {
				return model.Job{}, err
			}
			if len(conflicts) > 0 {
				return model.Job{}, &ConflictError{Conflicts: conflicts}
			}
		}
	}

	payload, err := json.Marshal(map[string]any{
		"job_id":         job.ID,
		"business_id":    businessID,
		"previous_date":  job.ScheduledAt,
		"scheduled_date": at,
		"date_only":      dateOnly,
	})
	if err != nil {
		return model.Job{}, err
	}
	updated, err := s.store.UpdateJobSchedule(ctx, businessID, job.ID, at, dateOnly, outbox.Event{
		AggregateType: outbox.AggregateJob,
		BusinessID:    businessID,
		AggregateID:   job.ID,
		EventType:     outbox.JobRescheduled,
		Payload:       payload,
	})
	switch {
	case errors.Is(err, model.ErrOverlap):
		return model.Job{}, &ConflictError{}
	case errors.Is(err, model.ErrNotFound):
		return model.Job{}, ErrJobNotFound
	case err != nil:
		return model.Job{}, fmt.Errorf("update job date: %w", err)
	}
	s.logger.Info("job rescheduled", "business_id", businessID, "job_id", job.ID, "date_only", dateOnly)
	return updated, nil
}

// BookingRequest is a public booking of a displayed slot.
type BookingRequest struct {
	BusinessID      string
	Date            string
	Time            string
	DurationMinutes int
	// GranularityMinutes is the step the slot list was shown with; zero
	// uses the engine default.
	GranularityMinutes int
	Title              string
	CustomerName       string
}

// BookSlot re-validates the slot, snaps to the matched slot start and
// creates a scheduled job. A taken slot yields availability.ErrSlotUnavailable.
func (s *Service) BookSlot(ctx context.Context, req BookingRequest) (model.Job, error) {
	if req.DurationMinutes <= 0 {
		req.DurationMinutes = int(model.DefaultJobDuration / time.Minute)
	}
	m, err := s.validator.Check(ctx, availability.CheckQuery{
		BusinessID:  req.BusinessID,
		Date:        req.Date,
		Time:        req.Time,
		Duration:    time.Duration(req.DurationMinutes) * time.Minute,
		Granularity: time.Duration(req.GranularityMinutes) * time.Minute,
	})
	if err != nil {
		return model.Job{}, err
	}
	if !m.Available {
		return model.Job{}, availability.ErrSlotUnavailable
	}

	slot := m.Slot.UTC()
	job := model.Job{
		ID:              s.newID(),
		BusinessID:      strings.TrimSpace(req.BusinessID),
		Title:           strings.TrimSpace(req.Title),
		CustomerName:    strings.TrimSpace(req.CustomerName),
		ScheduledAt:     &slot,
		DurationMinutes: req.DurationMinutes,
		Status:          model.JobScheduled,
	}
	payload, err := json.Marshal(map[string]any{
		"job_id":                     job.ID,
		"business_id":                job.BusinessID,
		"scheduled_date":             slot,
		"estimated_duration_minutes": job.DurationMinutes,
		"customer_name":              job.CustomerName,
	})
	if err != nil {
		return model.Job{}, err
	}
	created, err := s.store.InsertJob(ctx, job, outbox.Event{
		AggregateType: outbox.AggregateJob,
		BusinessID:    job.BusinessID,
		AggregateID:   job.ID,
		EventType:     outbox.JobBooked,
		Payload:       payload,
	})
	if errors.Is(err, model.ErrOverlap) {
		s.logger.Info("booking lost race for slot", "business_id", job.BusinessID, "slot", m.Label)
		return model.Job{}, availability.ErrSlotUnavailable
	}
	if err != nil {
		return model.Job{}, fmt.Errorf("book slot: %w", err)
	}
	s.logger.Info("slot booked", "business_id", job.BusinessID, "job_id", job.ID, "slot", m.Label)
	return created, nil
}

// TransitionJobStatus applies the job state machine. Re-applying the current
// status returns the job unchanged.
func (s *Service) TransitionJobStatus(ctx context.Context, businessID, jobID string, to model.JobStatus) (model.Job, error) {
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return model.Job{}, availability.ErrMissingBusinessID
	}
	if !to.Valid() {
		return model.Job{}, fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	job, err := s.store.GetJob(ctx, businessID, jobID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Job{}, ErrJobNotFound
	}
	if err != nil {
		return model.Job{}, fmt.Errorf("load job: %w", err)
	}
	if job.Status == to {
		return job, nil
	}
	if !job.Status.CanTransition(to) {
		return model.Job{}, fmt.Errorf("%w: %w", ErrInvalidTransition, &model.StatusTransitionError{From: job.Status, To: to})
	}

	payload, err := json.Marshal(map[string]any{
		"job_id":      job.ID,
		"business_id": businessID,
		"from":        job.Status,
		"to":          to,
	})
	if err != nil {
		return model.Job{}, err
	}
	updated, err := s.store.UpdateJobStatus(ctx, businessID, job.ID, job.Status, to, outbox.Event{
		AggregateType: outbox.AggregateJob,
		BusinessID:    businessID,
		AggregateID:   job.ID,
		EventType:     outbox.JobStatusChanged,
		Payload:       payload,
	})
	if errors.Is(err, model.ErrNotFound) {
		// Someone else moved the job first.
		return model.Job{}, fmt.Errorf("%w: job %s changed concurrently", ErrInvalidTransition, job.ID)
	}
	if err != nil {
		return model.Job{}, fmt.Errorf("update job status: %w", err)
	}
	s.logger.Info("job status changed", "business_id", businessID, "job_id", job.ID, "from", job.Status, "to", to)
	return updated, nil
}

// BusinessHours returns the effective weekly hours: stored entries where
// usable, the default template elsewhere.
func (s *Service) BusinessHours(ctx context.Context, businessID string) (model.BusinessProfile, error) {
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return model.BusinessProfile{}, availability.ErrMissingBusinessID
	}
	p, found, err := s.store.GetBusinessProfile(ctx, businessID)
	if err != nil {
		return model.BusinessProfile{}, fmt.Errorf("%w: load business profile: %w", availability.ErrUnavailable, err)
	}
	if !found {
		p = model.BusinessProfile{BusinessID: businessID, Timezone: "UTC"}
	}
	p.Hours = effectiveHours(p.Hours)
	return p, nil
}

func effectiveHours(cfg model.WeeklyHours) model.WeeklyHours {
	out := hours.DefaultWeek()
	for key, entry := range cfg {
		if _, ok := out[key]; !ok {
			continue
		}
		if hours.Validate(model.WeeklyHours{key: entry}) == nil {
			out[key] = entry
		}
	}
	return out
}

// UpdateBusinessHours replaces the business's zone and weekly hours. Unlike
// reads, writes reject malformed entries.
func (s *Service) UpdateBusinessHours(ctx context.Context, businessID, timezone string, weekly model.WeeklyHours) (model.BusinessProfile, error) {
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return model.BusinessProfile{}, availability.ErrMissingBusinessID
	}
	timezone = strings.TrimSpace(timezone)
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return model.BusinessProfile{}, fmt.Errorf("%w: %q", ErrInvalidTimezone, timezone)
	}
	if err := hours.Validate(weekly); err != nil {
		return model.BusinessProfile{}, fmt.Errorf("%w: %w", ErrInvalidHours, err)
	}

	payload, err := json.Marshal(map[string]any{
		"business_id":    businessID,
		"timezone":       timezone,
		"business_hours": weekly,
	})
	if err != nil {
		return model.BusinessProfile{}, err
	}
	p, err := s.store.UpsertBusinessProfile(ctx, model.BusinessProfile{
		BusinessID: businessID,
		Timezone:   timezone,
		Hours:      weekly,
	}, outbox.Event{
		AggregateType: outbox.AggregateBusiness,
		BusinessID:    businessID,
		AggregateID:   businessID,
		EventType:     outbox.BusinessHoursUpdated,
		Payload:       payload,
	})
	if err != nil {
		return model.BusinessProfile{}, fmt.Errorf("update business hours: %w", err)
	}
	s.logger.Info("business hours updated", "business_id", businessID, "timezone", timezone)
	return p, nil
}
