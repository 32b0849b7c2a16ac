package hours

import (
	"testing"
	"time"

	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/model"
)

// 2024-03-04 is a Monday.
var monday = time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

func TestResolve_DefaultsWhenUnconfigured(t *testing.T) {
	w := Resolve(nil, monday)
	if w.Closed || w.Open != 9*60 || w.Close != 17*60 {
		t.Fatalf("expected 09:00-17:00, got %+v", w)
	}
	if w := Resolve(nil, monday.AddDate(0, 0, 5)); !w.Closed {
		t.Fatalf("expected Saturday closed by default, got %+v", w)
	}
}

func TestResolve_ConfiguredDay(t *testing.T) {
	cfg := model.WeeklyHours{
		"monday":   {Open: "08:00", Close: "12:30"},
		"saturday": {Open: "10:00", Close: "14:00"},
		"tuesday":  {Closed: true},
	}
	if w := Resolve(cfg, monday); w.Open != 8*60 || w.Close != 12*60+30 {
		t.Fatalf("unexpected monday window %+v", w)
	}
	if w := Resolve(cfg, monday.AddDate(0, 0, 1)); !w.Closed {
		t.Fatalf("expected tuesday closed, got %+v", w)
	}
	if w := Resolve(cfg, monday.AddDate(0, 0, 5)); w.Closed || w.Open != 10*60 {
		t.Fatalf("expected saturday open, got %+v", w)
	}
	// Wednesday has no entry and falls back.
	if w := Resolve(cfg, monday.AddDate(0, 0, 2)); w.Open != 9*60 || w.Close != 17*60 {
		t.Fatalf("expected default wednesday, got %+v", w)
	}
}

func TestResolve_MalformedFallsBack(t *testing.T) {
	for name, entry := range map[string]model.DayHours{
		"garbage":  {Open: "nine", Close: "17:00"},
		"inverted": {Open: "17:00", Close: "09:00"},
		"empty":    {Open: "09:00", Close: "09:00"},
		"missing":  {},
		"minutes":  {Open: "09:75", Close: "17:00"},
	} {
		w := Resolve(model.WeeklyHours{"monday": entry}, monday)
		if w.Closed || w.Open != 9*60 || w.Close != 17*60 {
			t.Fatalf("%s: expected default window, got %+v", name, w)
		}
	}
}

func TestBoundsUsesLocalDate(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 2024-03-04 20:00 UTC is already Tuesday morning in Tokyo.
	instant := time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC)
	open, close := Window{Open: 9 * 60, Close: 24 * 60}.Bounds(instant, loc)
	if open.Format("2006-01-02 15:04") != "2024-03-05 09:00" {
		t.Fatalf("unexpected open %s", open)
	}
	if !close.Equal(time.Date(2024, 3, 6, 0, 0, 0, 0, loc)) {
		t.Fatalf("24:00 should be next midnight, got %s", close)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(DefaultWeek()); err != nil {
		t.Fatalf("default week must validate: %v", err)
	}
	if err := Validate(model.WeeklyHours{"funday": {Closed: true}}); err == nil {
		t.Fatal("expected unknown weekday error")
	}
	if err := Validate(model.WeeklyHours{"monday": {Open: "10:00", Close: "09:00"}}); err == nil {
		t.Fatal("expected inverted hours error")
	}
}

func TestParseClock(t *testing.T) {
	if m, err := ParseClock("7:05"); err != nil || m != 425 {
		t.Fatalf("expected 425, got %d err=%v", m, err)
	}
	if _, err := ParseClock("24:01"); err == nil {
		t.Fatal("expected error past end of day")
	}
	if FormatClock(425) != "07:05" {
		t.Fatalf("unexpected format %q", FormatClock(425))
	}
}
