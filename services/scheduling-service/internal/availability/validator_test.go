package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/model"
)

// Open slots for 60 minutes: 09:00, 09:30 and 16:00.
func fragmentedDay() *fakeStore {
	return &fakeStore{
		profile: mondayProfile("UTC"),
		blocks: []model.TimeBlock{{
			ID: "site-visit", BusinessID: bizID, Kind: model.BlockUnavailable,
			Start: *at(time.UTC, 10, 30), End: *at(time.UTC, 16, 0),
		}},
	}
}

func TestValidator_ToleranceAroundOpenSlot(t *testing.T) {
	v := NewValidator(NewEngine(fragmentedDay()), 0)
	ctx := context.Background()

	ok, err := v.IsAvailable(ctx, CheckQuery{BusinessID: bizID, Date: monday, Time: "09:10", Duration: time.Hour})
	if err != nil || !ok {
		t.Fatalf("10 minutes off 09:00 should be accepted, ok=%v err=%v", ok, err)
	}

	// 45 minutes after the last morning slot (09:30).
	ok, err = v.IsAvailable(ctx, CheckQuery{BusinessID: bizID, Date: monday, Time: "10:15", Duration: time.Hour})
	if err != nil || ok {
		t.Fatalf("45 minutes off should be rejected, ok=%v err=%v", ok, err)
	}
}

func TestValidator_SnapsToNearestSlot(t *testing.T) {
	v := NewValidator(NewEngine(fragmentedDay()), 0)
	m, err := v.Check(context.Background(), CheckQuery{BusinessID: bizID, Date: monday, Time: "09:20", Duration: time.Hour})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Available || m.Label != "09:30" {
		t.Fatalf("expected snap to 09:30, got %+v", m)
	}
}

func TestValidator_ClosedDayIsAResultNotAnError(t *testing.T) {
	v := NewValidator(NewEngine(fragmentedDay()), 0)
	m, err := v.Check(context.Background(), CheckQuery{BusinessID: bizID, Date: "2024-03-10", Time: "10:00", Duration: time.Hour})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Available || m.Message != "slot no longer available" {
		t.Fatalf("unexpected match %+v", m)
	}
}

func TestValidator_BadInputAndStorageErrors(t *testing.T) {
	v := NewValidator(NewEngine(fragmentedDay()), 0)
	if _, err := v.Check(context.Background(), CheckQuery{BusinessID: bizID, Date: monday, Time: "ten", Duration: time.Hour}); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}

	broken := NewValidator(NewEngine(&fakeStore{err: errors.New("timeout")}), 0)
	if _, err := broken.IsAvailable(context.Background(), CheckQuery{BusinessID: bizID, Date: monday, Time: "09:00", Duration: time.Hour}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestValidator_CustomTolerance(t *testing.T) {
	v := NewValidator(NewEngine(fragmentedDay()), 5*time.Minute)
	if v.Tolerance(0) != 5*time.Minute || v.Tolerance(time.Hour) != 5*time.Minute {
		t.Fatalf("unexpected tolerance %s", v.Tolerance(0))
	}
	ok, _ := v.IsAvailable(context.Background(), CheckQuery{BusinessID: bizID, Date: monday, Time: "09:10", Duration: time.Hour})
	if ok {
		t.Fatal("10 minutes off is outside a 5 minute tolerance")
	}
}

func TestValidator_UsesRequestedGranularity(t *testing.T) {
	v := NewValidator(NewEngine(fragmentedDay()), 0)
	ctx := context.Background()

	m, err := v.Check(ctx, CheckQuery{BusinessID: bizID, Date: monday, Time: "09:15", Duration: time.Hour, Granularity: 15 * time.Minute})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Available || m.Label != "09:15" {
		t.Fatalf("expected 09:15 on the 15 minute grid, got %+v", m)
	}

	m, _ = v.Check(ctx, CheckQuery{BusinessID: bizID, Date: monday, Time: "09:08", Duration: time.Hour, Granularity: 15 * time.Minute})
	if !m.Available || m.Label != "09:15" {
		t.Fatalf("expected snap to 09:15, got %+v", m)
	}

	// Halfway between 09:00 and 09:30 on the default grid matches neither.
	if ok, _ := v.IsAvailable(ctx, CheckQuery{BusinessID: bizID, Date: monday, Time: "09:15", Duration: time.Hour}); ok {
		t.Fatal("09:15 must not snap onto the 30 minute grid")
	}
	if v.Tolerance(15*time.Minute) != 7*time.Minute+30*time.Second || v.Tolerance(0) != 15*time.Minute {
		t.Fatalf("unexpected default tolerances %s and %s", v.Tolerance(15*time.Minute), v.Tolerance(0))
	}
}
