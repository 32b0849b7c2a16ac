// Package recurrence turns stored time block templates into the concrete
// occurrences that fall inside a time window.
package recurrence

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/model"
)

// MaxIterations bounds the stepping loop of a single template expansion.
const MaxIterations = 999

const idSeparator = "::"

// Instance is one concrete occurrence of a block.
type Instance struct {
	ID         string
	TemplateID string
	// Index is the occurrence number counted from the template start.
	Index   int
	Derived bool
	Start   time.Time
	End     time.Time
	Block   model.TimeBlock
}

// InstanceID builds the stable id of the index-th occurrence of a template.
func InstanceID(templateID string, index int) string {
	return templateID + idSeparator + strconv.Itoa(index)
}

// ParseInstanceID splits a synthesized occurrence id. ok is false for plain
// template ids.
func ParseInstanceID(id string) (templateID string, index int, ok bool) {
	i := strings.LastIndex(id, idSeparator)
	if i <= 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(id[i+len(idSeparator):])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return id[:i], n, true
}

// Expand returns every occurrence of blocks overlapping [windowStart, windowEnd),
// ordered by start time. Recurring templates step in loc so that the local
// time of day survives DST changes.
func Expand(blocks []model.TimeBlock, windowStart, windowEnd time.Time, loc *time.Location) []Instance {
	if loc == nil {
		loc = time.UTC
	}
	if !windowEnd.After(windowStart) {
		return nil
	}

	var out []Instance
	for _, b := range blocks {
		if !b.End.After(b.Start) {
			continue
		}
		if !b.Recurring || !b.Pattern.Valid() {
			if overlaps(b.Start, b.End, windowStart, windowEnd) {
				out = append(out, Instance{
					ID:         b.ID,
					TemplateID: b.ID,
					Start:      b.Start.In(loc),
					End:        b.End.In(loc),
					Block:      b,
				})
			}
			continue
		}
		out = append(out, expandTemplate(b, windowStart, windowEnd, loc)...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

func expandTemplate(b model.TimeBlock, windowStart, windowEnd time.Time, loc *time.Location) []Instance {
	dur := b.Duration()
	first := b.Start.In(loc)

	var out []Instance
	n := skipTo(b.Pattern, first, windowStart.Add(-dur).In(loc))
	for iter := 0; iter < MaxIterations; iter, n = iter+1, n+1 {
		if b.OccurrenceCount != nil && n >= *b.OccurrenceCount {
			break
		}
		start := occurrence(b.Pattern, first, n, loc)
		if start.After(windowEnd) {
			break
		}
		if b.RecurrenceEnd != nil && start.After(*b.RecurrenceEnd) {
			break
		}
		end := start.Add(dur)
		if overlaps(start, end, windowStart, windowEnd) {
			out = append(out, Instance{
				ID:         InstanceID(b.ID, n),
				TemplateID: b.ID,
				Index:      n,
				Derived:    true,
				Start:      start,
				End:        end,
				Block:      b,
			})
		}
	}
	return out
}

// skipTo returns an occurrence index that starts no later than lo, so that
// the loop in expandTemplate does not walk years of history one step at a time.
func skipTo(p model.RecurrencePattern, first, lo time.Time) int {
	if !lo.After(first) {
		return 0
	}
	var n int
	switch p {
	case model.RepeatDaily:
		n = civilDays(first, lo) - 1
	case model.RepeatWeekly:
		n = civilDays(first, lo)/7 - 1
	case model.RepeatMonthly:
		n = (lo.Year()-first.Year())*12 + int(lo.Month()-first.Month()) - 1
	case model.RepeatYearly:
		n = lo.Year() - first.Year() - 1
	}
	if n < 0 {
		return 0
	}
	return n
}

// occurrence computes the n-th start directly from the template start rather
// than from the previous occurrence, so month-end clamping never drifts
// (Jan 31 -> Feb 29 -> Mar 31).
func occurrence(p model.RecurrencePattern, first time.Time, n int, loc *time.Location) time.Time {
	y, m, d := first.Date()
	hh, mm, ss := first.Clock()
	ns := first.Nanosecond()

	switch p {
	case model.RepeatDaily:
		return time.Date(y, m, d+n, hh, mm, ss, ns, loc)
	case model.RepeatWeekly:
		return time.Date(y, m, d+7*n, hh, mm, ss, ns, loc)
	case model.RepeatMonthly:
		months := int(m) - 1 + n
		ty := y + months/12
		tm := time.Month(months%12 + 1)
		return time.Date(ty, tm, clampDay(ty, tm, d), hh, mm, ss, ns, loc)
	case model.RepeatYearly:
		ty := y + n
		return time.Date(ty, m, clampDay(ty, m, d), hh, mm, ss, ns, loc)
	}
	return first
}

func clampDay(y int, m time.Month, d int) int {
	last := daysIn(y, m)
	if d > last {
		return last
	}
	return d
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// civilDays counts calendar days between the local dates of a and b.
func civilDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// Half-open intervals: [aStart,aEnd) overlaps [bStart,bEnd) iff aStart < bEnd && bStart < aEnd.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
