package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/model"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/outbox"
)

func TestInsertJobRejectsOverlapLikeTheExclusionConstraint(t *testing.T) {
	s := New()
	ctx := context.Background()
	nine := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	nineThirty := nine.Add(30 * time.Minute)
	ten := nine.Add(time.Hour)

	if _, err := s.InsertJob(ctx, model.Job{ID: "a", BusinessID: "b1", ScheduledAt: &nine, DurationMinutes: 60, Status: model.JobScheduled}, outbox.Event{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.InsertJob(ctx, model.Job{ID: "b", BusinessID: "b1", ScheduledAt: &nineThirty, Status: model.JobScheduled}, outbox.Event{}); !errors.Is(err, model.ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}
	// Back-to-back is fine, as are other tenants and date-only rows.
	if _, err := s.InsertJob(ctx, model.Job{ID: "c", BusinessID: "b1", ScheduledAt: &ten, Status: model.JobScheduled}, outbox.Event{}); err != nil {
		t.Fatalf("adjacent job rejected: %v", err)
	}
	if _, err := s.InsertJob(ctx, model.Job{ID: "d", BusinessID: "b2", ScheduledAt: &nine, Status: model.JobScheduled}, outbox.Event{}); err != nil {
		t.Fatalf("other tenant rejected: %v", err)
	}
	if len(s.Events()) != 3 {
		t.Fatalf("expected 3 events, got %d", len(s.Events()))
	}
}

func TestConcurrentInsertsOfOneSlotAdmitOne(t *testing.T) {
	s := New()
	nine := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	const writers = 16
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			at := nine.Add(time.Duration(i%4) * 15 * time.Minute)
			_, errs[i] = s.InsertJob(context.Background(), model.Job{
				ID: fmt.Sprintf("job-%d", i), BusinessID: "b1", ScheduledAt: &at, DurationMinutes: 60, Status: model.JobScheduled,
			}, outbox.Event{})
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, err := range errs {
		switch {
		case err == nil:
			admitted++
		case !errors.Is(err, model.ErrOverlap):
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if admitted != 1 || len(s.Events()) != 1 {
		t.Fatalf("expected exactly one job in 09:00-10:00, got %d (events %d)", admitted, len(s.Events()))
	}
}

func TestTenantScoping(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.PutJob(model.Job{ID: "j", BusinessID: "b1", Status: model.JobScheduled})

	if _, err := s.GetJob(ctx, "b2", "j"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound across tenants, got %v", err)
	}
	if _, err := s.UpdateJobSchedule(ctx, "b2", "j", nil, false, outbox.Event{}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound across tenants, got %v", err)
	}
}
