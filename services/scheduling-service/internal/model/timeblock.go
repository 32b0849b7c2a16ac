package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type BlockKind string

const (
	BlockPersonal    BlockKind = "personal"
	BlockHoliday     BlockKind = "holiday"
	BlockUnavailable BlockKind = "unavailable"
)

func (k BlockKind) Valid() bool {
	switch k {
	case BlockPersonal, BlockHoliday, BlockUnavailable:
		return true
	}
	return false
}

type RecurrencePattern string

const (
	RepeatDaily   RecurrencePattern = "daily"
	RepeatWeekly  RecurrencePattern = "weekly"
	RepeatMonthly RecurrencePattern = "monthly"
	RepeatYearly  RecurrencePattern = "yearly"
)

func (p RecurrencePattern) Valid() bool {
	switch p {
	case RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatYearly:
		return true
	}
	return false
}

var ErrInvalidTimeBlock = errors.New("invalid time block")

// TimeBlock is a stored template. Occurrences of recurring templates are
// never persisted; they are derived on read.
type TimeBlock struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"business_id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Kind        BlockKind `json:"kind"`
	Description string    `json:"description,omitempty"`

	Recurring       bool              `json:"is_recurring"`
	Pattern         RecurrencePattern `json:"recurrence_pattern,omitempty"`
	RecurrenceEnd   *time.Time        `json:"recurrence_end,omitempty"`
	OccurrenceCount *int              `json:"occurrence_count,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (b TimeBlock) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

// Normalize trims text fields and clears recurrence fields on one-off blocks.
func (b TimeBlock) Normalize() TimeBlock {
	b.Title = strings.TrimSpace(b.Title)
	b.Description = strings.TrimSpace(b.Description)
	if !b.Recurring {
		b.Pattern = ""
		b.RecurrenceEnd = nil
		b.OccurrenceCount = nil
	}
	return b
}

func (b TimeBlock) Validate() error {
	if strings.TrimSpace(b.BusinessID) == "" {
		return fmt.Errorf("%w: business id is required", ErrInvalidTimeBlock)
	}
	if b.Start.IsZero() || b.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidTimeBlock)
	}
	if !b.Start.Before(b.End) {
		return fmt.Errorf("%w: start must be before end", ErrInvalidTimeBlock)
	}
	if !b.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidTimeBlock, b.Kind)
	}
	if !b.Recurring {
		return nil
	}
	if !b.Pattern.Valid() {
		return fmt.Errorf("%w: recurring blocks need a daily, weekly, monthly or yearly pattern", ErrInvalidTimeBlock)
	}
	if b.RecurrenceEnd != nil && b.RecurrenceEnd.Before(b.Start) {
		return fmt.Errorf("%w: recurrence end is before the first occurrence", ErrInvalidTimeBlock)
	}
	if b.OccurrenceCount != nil && *b.OccurrenceCount <= 0 {
		return fmt.Errorf("%w: occurrence count must be positive", ErrInvalidTimeBlock)
	}
	return nil
}
