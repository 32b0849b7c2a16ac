package availability

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrSlotUnavailable is the normal outcome of booking a slot that was taken
// or closed since it was displayed.
var ErrSlotUnavailable = errors.New("slot no longer available")

// CheckQuery names a single slot to re-validate.
type CheckQuery struct {
	BusinessID string
	Date       string
	// Time is the local start, "HH:MM" or "HH:MM:SS".
	Time     string
	Duration time.Duration
	// Granularity must match the step the slot was displayed with; zero uses
	// the engine default.
	Granularity time.Duration
}

// Match is the validator's verdict. When Available, Slot is the generated
// slot the request matched; commit paths book that instant.
type Match struct {
	Available bool
	Slot      time.Time
	Label     string
	Message   string
}

// Validator re-derives availability from fresh reads right before a booking
// is written. It takes no locks; the storage exclusion constraint is the
// final arbiter.
type Validator struct {
	engine    *Engine
	tolerance time.Duration
}

// NewValidator matches requests strictly within tolerance of a generated
// slot. A non-positive tolerance means half of the step in use, so a request
// can only ever snap to its own slot.
func NewValidator(engine *Engine, tolerance time.Duration) *Validator {
	if tolerance < 0 {
		tolerance = 0
	}
	return &Validator{engine: engine, tolerance: tolerance}
}

// Tolerance returns the match window for slots generated every step.
func (v *Validator) Tolerance(step time.Duration) time.Duration {
	if v.tolerance > 0 {
		return v.tolerance
	}
	if step <= 0 {
		step = v.engine.Granularity()
	}
	return step / 2
}

// IsAvailable reports whether the requested slot can still be booked.
func (v *Validator) IsAvailable(ctx context.Context, q CheckQuery) (bool, error) {
	m, err := v.Check(ctx, q)
	if err != nil {
		return false, err
	}
	return m.Available, nil
}

// Check matches q against freshly generated slots. A taken or closed slot is
// reported through Match, not as an error; errors mean bad input or storage
// failure.
func (v *Validator) Check(ctx context.Context, q CheckQuery) (Match, error) {
	clock, err := parseSlotTime(q.Time)
	if err != nil {
		return Match{}, err
	}
	day, err := v.engine.Compute(ctx, Query{
		BusinessID:  q.BusinessID,
		Date:        q.Date,
		Duration:    q.Duration,
		Granularity: q.Granularity,
	})
	if err != nil {
		return Match{}, err
	}

	start := day.Open
	if day.Closed || start.IsZero() {
		return Match{Message: ErrSlotUnavailable.Error()}, nil
	}
	y, mo, d := start.Date()
	requested := time.Date(y, mo, d, clock.Hour(), clock.Minute(), clock.Second(), 0, day.Location)

	tolerance := v.Tolerance(q.Granularity)
	var (
		best  time.Time
		found bool
		gap   time.Duration
	)
	for _, s := range day.Slots {
		diff := s.Sub(requested)
		if diff < 0 {
			diff = -diff
		}
		if diff >= tolerance {
			continue
		}
		if !found || diff < gap {
			best, gap, found = s, diff, true
		}
	}
	if !found {
		return Match{Message: ErrSlotUnavailable.Error()}, nil
	}
	return Match{
		Available: true,
		Slot:      best,
		Label:     best.In(day.Location).Format(slotLayout),
	}, nil
}

func parseSlotTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidTime
}
