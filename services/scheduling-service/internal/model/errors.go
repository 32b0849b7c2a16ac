package model

import "errors"

// Storage-level outcomes shared by every store implementation.
var (
	ErrNotFound = errors.New("not found")
	// ErrOverlap is returned when a write would make two active jobs overlap.
	ErrOverlap = errors.New("interval overlaps an existing booking")
)
