package model

import (
	"errors"
	"testing"
	"time"
)

func TestTimeBlockValidate(t *testing.T) {
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	base := TimeBlock{BusinessID: "b1", Title: "Lunch", Start: start, End: start.Add(time.Hour), Kind: BlockPersonal}

	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid block, got %v", err)
	}

	inverted := base
	inverted.End = start
	if err := inverted.Validate(); !errors.Is(err, ErrInvalidTimeBlock) {
		t.Fatalf("expected ErrInvalidTimeBlock for empty interval, got %v", err)
	}

	noPattern := base
	noPattern.Recurring = true
	if err := noPattern.Validate(); !errors.Is(err, ErrInvalidTimeBlock) {
		t.Fatalf("expected error for recurring block without pattern, got %v", err)
	}

	badKind := base
	badKind.Kind = "vacation"
	if err := badKind.Validate(); !errors.Is(err, ErrInvalidTimeBlock) {
		t.Fatalf("expected error for unknown kind, got %v", err)
	}

	zero := 0
	badCount := base
	badCount.Recurring = true
	badCount.Pattern = RepeatWeekly
	badCount.OccurrenceCount = &zero
	if err := badCount.Validate(); !errors.Is(err, ErrInvalidTimeBlock) {
		t.Fatalf("expected error for zero count, got %v", err)
	}
}

func TestNormalizeDropsRecurrenceOnOneOffBlocks(t *testing.T) {
	end := time.Now()
	n := 3
	b := TimeBlock{Title: "  Dentist ", Pattern: RepeatDaily, RecurrenceEnd: &end, OccurrenceCount: &n}.Normalize()
	if b.Title != "Dentist" || b.Pattern != "" || b.RecurrenceEnd != nil || b.OccurrenceCount != nil {
		t.Fatalf("unexpected normalized block %+v", b)
	}
}

func TestJobStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to JobStatus
		ok       bool
	}{
		{JobScheduled, JobInProgress, true},
		{JobScheduled, JobCancelled, true},
		{JobInProgress, JobCompleted, true},
		{JobScheduled, JobScheduled, true},
		{JobCompleted, JobScheduled, false},
		{JobCancelled, JobInProgress, false},
		{JobInProgress, JobCancelled, false},
		{JobScheduled, JobCompleted, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestJobIntervalSkipsPlaceholders(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	midnight := time.Date(2024, 3, 4, 0, 0, 0, 0, loc)
	j := Job{Status: JobScheduled, ScheduledAt: &midnight, DateOnly: true}
	if _, _, ok := j.Interval(loc); ok {
		t.Fatal("date-only job must not occupy time")
	}
	// A timed booking that starts at midnight is a real job.
	j.DateOnly = false
	start, end, ok := j.Interval(loc)
	if !ok || !start.Equal(midnight) || end.Sub(start) != DefaultJobDuration {
		t.Fatalf("expected midnight booking to occupy time, got %s-%s ok=%v", start, end, ok)
	}
	if !IsLocalMidnight(midnight, loc) || IsLocalMidnight(midnight, time.UTC) {
		t.Fatal("local midnight must be judged in the given zone")
	}

	ten := time.Date(2024, 3, 4, 10, 0, 0, 0, loc)
	j = Job{Status: JobInProgress, ScheduledAt: &ten}
	start, end, ok = j.Interval(loc)
	if !ok || end.Sub(start) != DefaultJobDuration {
		t.Fatalf("expected default duration interval, got %s-%s ok=%v", start, end, ok)
	}

	j.Status = JobCancelled
	if _, _, ok := j.Interval(loc); ok {
		t.Fatal("cancelled jobs do not occupy time")
	}
}

func TestLoadLocationFallsBackToUTC(t *testing.T) {
	if LoadLocation("Not/AZone") != time.UTC {
		t.Fatal("expected UTC fallback")
	}
	if LoadLocation("") != time.UTC {
		t.Fatal("expected UTC for empty zone")
	}
}
