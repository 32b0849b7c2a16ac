package schedule

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/availability"
)

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrTimeBlockNotFound = errors.New("time block not found")
	ErrDerivedInstance   = errors.New("derived instance")
	ErrScheduleConflict  = errors.New("schedule conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("invalid job status")
	ErrInvalidTimezone   = errors.New("invalid timezone")
	ErrInvalidHours      = errors.New("invalid business hours")
)

// DerivedInstanceError rejects operations addressed to a synthesized
// occurrence id. Only the template can be changed.
type DerivedInstanceError struct {
	ID         string
	TemplateID string
}

func (e *DerivedInstanceError) Error() string {
	return fmt.Sprintf("derived instance: %s is an occurrence of time block %s; delete the template instead", e.ID, e.TemplateID)
}

func (e *DerivedInstanceError) Is(target error) bool {
	return target == ErrDerivedInstance
}

// ConflictError lists what a proposed job interval collides with. Conflicts
// is empty when the storage constraint caught a race the pre-check missed.
type ConflictError struct {
	Conflicts []availability.Conflict
}

func (e *ConflictError) Error() string {
	if len(e.Conflicts) == 0 {
		return "schedule conflict: overlaps another booking"
	}
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s %s (%s-%s)", c.Kind, c.ID, c.Start.Format("15:04"), c.End.Format("15:04")))
	}
	return "schedule conflict: overlaps " + strings.Join(parts, ", ")
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrScheduleConflict
}
