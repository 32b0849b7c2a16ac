// Package memstore is an in-process implementation of the scheduling store.
// It mirrors the PostgreSQL repository's semantics, including the overlap
// constraint on active jobs, and backs local runs without DATABASE_URL.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/model"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/outbox"
)

type Store struct {
	mu       sync.RWMutex
	profiles map[string]model.BusinessProfile
	blocks   map[string]model.TimeBlock
	jobs     map[string]model.Job
	events   []outbox.Event
	now      func() time.Time
	// failWith makes every call fail, to exercise storage outages.
	failWith error
}

func New() *Store {
	return &Store{
		profiles: map[string]model.BusinessProfile{},
		blocks:   map[string]model.TimeBlock{},
		jobs:     map[string]model.Job{},
		now:      time.Now,
	}
}

// FailWith makes subsequent calls return err. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	s.failWith = err
	s.mu.Unlock()
}

// Events returns a copy of the outbox events written so far.
func (s *Store) Events() []outbox.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]outbox.Event(nil), s.events...)
}

// PutJob seeds a job without constraint checks or events.
func (s *Store) PutJob(j model.Job) {
	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()
}

func (s *Store) GetBusinessProfile(_ context.Context, businessID string) (model.BusinessProfile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return model.BusinessProfile{}, false, s.failWith
	}
	p, ok := s.profiles[businessID]
	return p, ok, nil
}

func (s *Store) UpsertBusinessProfile(_ context.Context, p model.BusinessProfile, evt outbox.Event) (model.BusinessProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return model.BusinessProfile{}, s.failWith
	}
	p.UpdatedAt = s.now()
	s.profiles[p.BusinessID] = p
	s.events = append(s.events, evt)
	return p, nil
}

func (s *Store) ListTimeBlocks(_ context.Context, businessID string) ([]model.TimeBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	var out []model.TimeBlock
	for _, b := range s.blocks {
		if b.BusinessID == businessID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

func (s *Store) GetTimeBlock(_ context.Context, businessID, id string) (model.TimeBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return model.TimeBlock{}, s.failWith
	}
	b, ok := s.blocks[id]
	if !ok || b.BusinessID != businessID {
		return model.TimeBlock{}, fmt.Errorf("get time block: %w", model.ErrNotFound)
	}
	return b, nil
}

func (s *Store) InsertTimeBlock(_ context.Context, b model.TimeBlock, evt outbox.Event) (model.TimeBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return model.TimeBlock{}, s.failWith
	}
	b.CreatedAt = s.now()
	s.blocks[b.ID] = b
	s.events = append(s.events, evt)
	return b, nil
}

func (s *Store) DeleteTimeBlock(_ context.Context, businessID, id string, evt outbox.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	b, ok := s.blocks[id]
	if !ok || b.BusinessID != businessID {
		return fmt.Errorf("delete time block: %w", model.ErrNotFound)
	}
	delete(s.blocks, id)
	s.events = append(s.events, evt)
	return nil
}

func (s *Store) ListActiveJobs(_ context.Context, businessID string, from, to time.Time) ([]model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	var out []model.Job
	for _, j := range s.jobs {
		if j.BusinessID != businessID || !j.Status.Occupies() || j.ScheduledAt == nil {
			continue
		}
		end := j.ScheduledAt.Add(j.Duration())
		if j.ScheduledAt.Before(to) && end.After(from) {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ScheduledAt.Before(*out[k].ScheduledAt) })
	return out, nil
}

func (s *Store) GetJob(_ context.Context, businessID, jobID string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return model.Job{}, s.failWith
	}
	j, ok := s.jobs[jobID]
	if !ok || j.BusinessID != businessID {
		return model.Job{}, fmt.Errorf("get job: %w", model.ErrNotFound)
	}
	return j, nil
}

func (s *Store) InsertJob(_ context.Context, j model.Job, evt outbox.Event) (model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return model.Job{}, s.failWith
	}
	if j.DurationMinutes <= 0 {
		j.DurationMinutes = int(model.DefaultJobDuration / time.Minute)
	}
	if s.overlapsLocked(j) {
		return model.Job{}, fmt.Errorf("insert job: %w", model.ErrOverlap)
	}
	j.CreatedAt = s.now()
	j.UpdatedAt = j.CreatedAt
	s.jobs[j.ID] = j
	s.events = append(s.events, evt)
	return j, nil
}

func (s *Store) UpdateJobSchedule(_ context.Context, businessID, jobID string, at *time.Time, dateOnly bool, evt outbox.Event) (model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return model.Job{}, s.failWith
	}
	j, ok := s.jobs[jobID]
	if !ok || j.BusinessID != businessID {
		return model.Job{}, fmt.Errorf("update job schedule: %w", model.ErrNotFound)
	}
	j.ScheduledAt = at
	j.DateOnly = at != nil && dateOnly
	if s.overlapsLocked(j) {
		return model.Job{}, fmt.Errorf("update job schedule: %w", model.ErrOverlap)
	}
	j.UpdatedAt = s.now()
	s.jobs[jobID] = j
	s.events = append(s.events, evt)
	return j, nil
}

func (s *Store) UpdateJobStatus(_ context.Context, businessID, jobID string, from, to model.JobStatus, evt outbox.Event) (model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return model.Job{}, s.failWith
	}
	j, ok := s.jobs[jobID]
	if !ok || j.BusinessID != businessID || j.Status != from {
		return model.Job{}, fmt.Errorf("update job status: %w", model.ErrNotFound)
	}
	j.Status = to
	if s.overlapsLocked(j) {
		return model.Job{}, fmt.Errorf("update job status: %w", model.ErrOverlap)
	}
	j.UpdatedAt = s.now()
	s.jobs[jobID] = j
	s.events = append(s.events, evt)
	return j, nil
}

// overlapsLocked emulates the jobs_no_overlap exclusion constraint.
func (s *Store) overlapsLocked(j model.Job) bool {
	if !constrained(j) {
		return false
	}
	start := *j.ScheduledAt
	end := start.Add(j.Duration())
	for id, other := range s.jobs {
		if id == j.ID || other.BusinessID != j.BusinessID || !constrained(other) {
			continue
		}
		os := *other.ScheduledAt
		if start.Before(os.Add(other.Duration())) && os.Before(end) {
			return true
		}
	}
	return false
}

func constrained(j model.Job) bool {
	return j.ScheduledAt != nil && !j.DateOnly && j.Status.Occupies()
}
