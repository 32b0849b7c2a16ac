package model

import (
	"strings"
	"time"
)

// DayHours is one weekday's entry. Open and Close are "HH:MM" in the
// business's local time.
type DayHours struct {
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed"`
}

// WeeklyHours is keyed by lowercase weekday name, "monday" through "sunday".
type WeeklyHours map[string]DayHours

func WeekdayKey(d time.Weekday) string {
	return strings.ToLower(d.String())
}

type BusinessProfile struct {
	BusinessID string      `json:"business_id"`
	Timezone   string      `json:"timezone"`
	Hours      WeeklyHours `json:"business_hours"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Location resolves the profile's zone, falling back to UTC when it is empty
// or unknown.
func (p BusinessProfile) Location() *time.Location {
	return LoadLocation(p.Timezone)
}

func LoadLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
