// Package availability computes the bookable slots of a business day and
// re-checks individual slots before a booking is committed.
package availability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	otelx "github.com/fieldcrew/opsuite/libs/otel"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/hours"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/model"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/recurrence"
)

const (
	DefaultGranularity = 30 * time.Minute
	dateLayout         = "2006-01-02"
	slotLayout         = "15:04"

	// Offsets of the widest zones from UTC, used to query jobs before the
	// business zone is known.
	maxZoneAhead  = 14 * time.Hour
	maxZoneBehind = 12 * time.Hour
)

var (
	ErrMissingBusinessID = errors.New("business id is required")
	ErrInvalidDate       = errors.New("date must be YYYY-MM-DD")
	ErrInvalidDuration   = errors.New("duration must be positive")
	ErrInvalidTime       = errors.New("time must be HH:MM")
	// ErrUnavailable marks failures to read scheduling data. Callers must not
	// treat it as an open day.
	ErrUnavailable = errors.New("unable to load times, try again")
)

// Store is the read side the engine needs.
type Store interface {
	// GetBusinessProfile returns found=false for unknown businesses.
	GetBusinessProfile(ctx context.Context, businessID string) (model.BusinessProfile, bool, error)
	ListTimeBlocks(ctx context.Context, businessID string) ([]model.TimeBlock, error)
	// ListActiveJobs returns scheduled and in-progress jobs overlapping [from, to).
	ListActiveJobs(ctx context.Context, businessID string, from, to time.Time) ([]model.Job, error)
}

type Engine struct {
	store       Store
	granularity time.Duration
	now         func() time.Time
	tracer      trace.Tracer
}

type Option func(*Engine)

// WithGranularity sets the default step between candidate slots.
func WithGranularity(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.granularity = d
		}
	}
}

// WithClock hides slots that start before now(). Without it every slot of
// the day is offered, past or not.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		granularity: DefaultGranularity,
		tracer:      otelx.Tracer("scheduling-service/availability"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Granularity() time.Duration { return e.granularity }

// Query asks for the free slots of one calendar day.
type Query struct {
	BusinessID string
	// Date is a calendar day, YYYY-MM-DD, interpreted in the business zone.
	Date        string
	Duration    time.Duration
	Granularity time.Duration
}

// Day is the computed availability of one business day.
type Day struct {
	Location *time.Location
	Open     time.Time
	Close    time.Time
	Closed   bool
	Slots    []time.Time
}

// Labels formats the slots as "HH:MM" in the business zone.
func (d Day) Labels() []string {
	out := make([]string, 0, len(d.Slots))
	for _, s := range d.Slots {
		out = append(out, s.In(d.Location).Format(slotLayout))
	}
	return out
}

// AvailableSlots returns the free slot labels for q, ascending. A closed day
// yields an empty list, not an error.
func (e *Engine) AvailableSlots(ctx context.Context, q Query) ([]string, error) {
	day, err := e.Compute(ctx, q)
	if err != nil {
		return nil, err
	}
	return day.Labels(), nil
}

// Compute runs the full availability pass for one day.
func (e *Engine) Compute(ctx context.Context, q Query) (Day, error) {
	businessID := strings.TrimSpace(q.BusinessID)
	if businessID == "" {
		return Day{}, ErrMissingBusinessID
	}
	date, err := time.Parse(dateLayout, strings.TrimSpace(q.Date))
	if err != nil {
		return Day{}, ErrInvalidDate
	}
	if q.Duration <= 0 {
		return Day{}, ErrInvalidDuration
	}
	step := q.Granularity
	if step <= 0 {
		step = e.granularity
	}

	ctx, span := e.tracer.Start(ctx, "availability.compute", trace.WithAttributes(
		attribute.String("business.id", businessID),
		attribute.String("availability.date", q.Date),
		attribute.Int64("availability.duration_minutes", int64(q.Duration/time.Minute)),
	))
	defer span.End()

	// Jobs are fetched for a UTC range wide enough to cover the calendar
	// date in any zone and narrowed once the zone is known.
	from := date.Add(-maxZoneAhead)
	to := date.AddDate(0, 0, 1).Add(maxZoneBehind)
	snap, err := e.load(ctx, businessID, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return Day{}, err
	}

	day := snap.day(date, q.Duration, step, e.notBefore())
	span.SetAttributes(attribute.Int("availability.slots", len(day.Slots)), attribute.Bool("availability.closed", day.Closed))
	return day, nil
}

func (e *Engine) notBefore() time.Time {
	if e.now == nil {
		return time.Time{}
	}
	return e.now()
}

// snapshot is everything read from the store for one computation.
type snapshot struct {
	profile model.BusinessProfile
	loc     *time.Location
	blocks  []model.TimeBlock
	jobs    []model.Job
}

// load issues the three reads concurrently; all must succeed.
func (e *Engine) load(ctx context.Context, businessID string, from, to time.Time) (snapshot, error) {
	var (
		snap  snapshot
		found bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, ok, err := e.store.GetBusinessProfile(gctx, businessID)
		if err != nil {
			return fmt.Errorf("load business profile: %w", err)
		}
		snap.profile, found = p, ok
		return nil
	})
	g.Go(func() error {
		blocks, err := e.store.ListTimeBlocks(gctx, businessID)
		if err != nil {
			return fmt.Errorf("load time blocks: %w", err)
		}
		snap.blocks = blocks
		return nil
	})
	g.Go(func() error {
		jobs, err := e.store.ListActiveJobs(gctx, businessID, from, to)
		if err != nil {
			return fmt.Errorf("load jobs: %w", err)
		}
		snap.jobs = jobs
		return nil
	})
	if err := g.Wait(); err != nil {
		return snapshot{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if !found {
		snap.profile = model.BusinessProfile{BusinessID: businessID, Timezone: "UTC"}
	}
	snap.loc = snap.profile.Location()
	return snap, nil
}

func (s snapshot) day(date time.Time, duration, step time.Duration, notBefore time.Time) Day {
	y, m, d := date.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	dayEnd := time.Date(y, m, d+1, 0, 0, 0, 0, s.loc)

	out := Day{Location: s.loc}
	w := hours.Resolve(s.profile.Hours, dayStart)
	if w.Closed {
		out.Closed = true
		return out
	}
	out.Open, out.Close = w.Bounds(dayStart, s.loc)
	busy := s.busy(dayStart, dayEnd, "")
	out.Slots = Slots(out.Open, out.Close, duration, step, busy, notBefore)
	return out
}

// busy collects block occurrences and job intervals overlapping
// [from, to), leaving out the job with id skipJobID.
func (s snapshot) busy(from, to time.Time, skipJobID string) []Interval {
	var out []Interval
	for _, inst := range recurrence.Expand(s.blocks, from, to, s.loc) {
		out = append(out, Interval{Start: inst.Start, End: inst.End})
	}
	for _, j := range s.jobs {
		if skipJobID != "" && j.ID == skipJobID {
			continue
		}
		start, end, ok := j.Interval(s.loc)
		if !ok {
			continue
		}
		if (Interval{Start: start, End: end}).Overlaps(Interval{Start: from, End: to}) {
			out = append(out, Interval{Start: start, End: end})
		}
	}
	return out
}

// Location returns the business's zone, UTC for unknown businesses.
func (e *Engine) Location(ctx context.Context, businessID string) (*time.Location, error) {
	p, found, err := e.store.GetBusinessProfile(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("%w: load business profile: %w", ErrUnavailable, err)
	}
	if !found {
		return time.UTC, nil
	}
	return p.Location(), nil
}

// ConflictKind names what a proposed interval collided with.
type ConflictKind string

const (
	ConflictTimeBlock ConflictKind = "time_block"
	ConflictJob       ConflictKind = "job"
)

type Conflict struct {
	Kind  ConflictKind
	ID    string
	Start time.Time
	End   time.Time
}

// Conflicts lists the block occurrences and active jobs, other than
// skipJobID, that overlap [start, start+duration). Business hours are not
// checked: staff may place work outside them deliberately.
func (e *Engine) Conflicts(ctx context.Context, businessID string, start time.Time, duration time.Duration, skipJobID string) ([]Conflict, error) {
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return nil, ErrMissingBusinessID
	}
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}
	end := start.Add(duration)

	ctx, span := e.tracer.Start(ctx, "availability.conflicts", trace.WithAttributes(
		attribute.String("business.id", businessID),
	))
	defer span.End()

	snap, err := e.load(ctx, businessID, start, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, err
	}

	var out []Conflict
	for _, inst := range recurrence.Expand(snap.blocks, start, end, snap.loc) {
		out = append(out, Conflict{Kind: ConflictTimeBlock, ID: inst.ID, Start: inst.Start, End: inst.End})
	}
	window := Interval{Start: start, End: end}
	for _, j := range snap.jobs {
		if j.ID == skipJobID {
			continue
		}
		js, je, ok := j.Interval(snap.loc)
		if ok && window.Overlaps(Interval{Start: js, End: je}) {
			out = append(out, Conflict{Kind: ConflictJob, ID: j.ID, Start: js, End: je})
		}
	}
	span.SetAttributes(attribute.Int("availability.conflicts", len(out)))
	return out, nil
}
