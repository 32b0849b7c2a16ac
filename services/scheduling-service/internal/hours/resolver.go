// Package hours resolves a business's configured weekly hours into the open
// window of a concrete day.
package hours

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/model"
)

const minutesPerDay = 24 * 60

// Window is the open interval of one day, in minutes after local midnight.
// Close may be 1440 for a business open until midnight.
type Window struct {
	Closed bool
	Open   int
	Close  int
}

// Bounds anchors the window on day's calendar date in loc.
func (w Window) Bounds(day time.Time, loc *time.Location) (open, close time.Time) {
	y, m, d := day.In(loc).Date()
	open = time.Date(y, m, d, w.Open/60, w.Open%60, 0, 0, loc)
	close = time.Date(y, m, d, w.Close/60, w.Close%60, 0, 0, loc)
	return open, close
}

// Default is the template used for days without a usable entry:
// 09:00-17:00 on weekdays, closed at weekends.
func Default(wd time.Weekday) Window {
	if wd == time.Saturday || wd == time.Sunday {
		return Window{Closed: true}
	}
	return Window{Open: 9 * 60, Close: 17 * 60}
}

// DefaultWeek renders Default for all seven days, for display and seeding.
func DefaultWeek() model.WeeklyHours {
	out := make(model.WeeklyHours, 7)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		w := Default(wd)
		if w.Closed {
			out[model.WeekdayKey(wd)] = model.DayHours{Closed: true}
			continue
		}
		out[model.WeekdayKey(wd)] = model.DayHours{Open: FormatClock(w.Open), Close: FormatClock(w.Close)}
	}
	return out
}

// Resolve returns the window for date's weekday. A missing or malformed entry
// falls back to Default for that weekday; Resolve never fails.
func Resolve(cfg model.WeeklyHours, date time.Time) Window {
	wd := date.Weekday()
	entry, ok := cfg[model.WeekdayKey(wd)]
	if !ok {
		return Default(wd)
	}
	w, err := parseDay(entry)
	if err != nil {
		return Default(wd)
	}
	return w
}

// Validate reports the first malformed entry, for write paths that should
// reject bad input instead of silently falling back.
func Validate(cfg model.WeeklyHours) error {
	for key, entry := range cfg {
		if !knownDay(key) {
			return fmt.Errorf("unknown weekday %q", key)
		}
		if _, err := parseDay(entry); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func parseDay(entry model.DayHours) (Window, error) {
	if entry.Closed {
		return Window{Closed: true}, nil
	}
	open, err := ParseClock(entry.Open)
	if err != nil {
		return Window{}, fmt.Errorf("open: %w", err)
	}
	close, err := ParseClock(entry.Close)
	if err != nil {
		return Window{}, fmt.Errorf("close: %w", err)
	}
	if open >= close {
		return Window{}, fmt.Errorf("open %s is not before close %s", entry.Open, entry.Close)
	}
	return Window{Open: open, Close: close}, nil
}

// ParseClock parses "HH:MM" (24h) into minutes after midnight. "24:00" is
// accepted as end of day.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	total := h*60 + m
	if h < 0 || m < 0 || m > 59 || total > minutesPerDay {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return total, nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func knownDay(key string) bool {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if model.WeekdayKey(wd) == key {
			return true
		}
	}
	return false
}
