package model

import (
	"fmt"
	"time"
)

type JobStatus string

const (
	JobScheduled  JobStatus = "scheduled"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobCancelled  JobStatus = "cancelled"
)

// DefaultJobDuration applies when a job carries no estimate.
const DefaultJobDuration = 60 * time.Minute

func (s JobStatus) Valid() bool {
	switch s {
	case JobScheduled, JobInProgress, JobCompleted, JobCancelled:
		return true
	}
	return false
}

// Occupies reports whether a job in this status holds its calendar interval.
func (s JobStatus) Occupies() bool {
	return s == JobScheduled || s == JobInProgress
}

var jobTransitions = map[JobStatus][]JobStatus{
	JobScheduled:  {JobInProgress, JobCancelled},
	JobInProgress: {JobCompleted},
}

// CanTransition reports whether s may move to next. Staying put is allowed.
func (s JobStatus) CanTransition(next JobStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range jobTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Job struct {
	ID              string     `json:"id"`
	BusinessID      string     `json:"business_id"`
	Title           string     `json:"title"`
	CustomerName    string     `json:"customer_name,omitempty"`
	ScheduledAt     *time.Time `json:"scheduled_date"`
	DurationMinutes int        `json:"estimated_duration_minutes"`
	Status          JobStatus  `json:"status"`

	// DateOnly is stamped on write when ScheduledAt falls on local midnight
	// in the business zone; storage excludes such jobs from overlap checks.
	DateOnly bool `json:"date_only"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (j Job) Duration() time.Duration {
	if j.DurationMinutes <= 0 {
		return DefaultJobDuration
	}
	return time.Duration(j.DurationMinutes) * time.Minute
}

// Interval returns the half-open interval the job occupies, if any, in loc.
// It follows the stamped DateOnly flag, the same one the storage overlap
// constraint filters on, so a real booking at 00:00 still occupies time.
func (j Job) Interval(loc *time.Location) (start, end time.Time, ok bool) {
	if !j.Status.Occupies() || j.ScheduledAt == nil || j.DateOnly {
		return time.Time{}, time.Time{}, false
	}
	start = j.ScheduledAt.In(loc)
	return start, start.Add(j.Duration()), true
}

func IsLocalMidnight(t time.Time, loc *time.Location) bool {
	l := t.In(loc)
	return l.Hour() == 0 && l.Minute() == 0 && l.Second() == 0 && l.Nanosecond() == 0
}

// StatusTransitionError names the rejected move.
type StatusTransitionError struct {
	From, To JobStatus
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("job cannot move from %s to %s", e.From, e.To)
}
