package engine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRange  = errors.New("invalid year range")
	ErrMissingColumn = errors.New("missing required column")
	ErrNoHeader      = errors.New("source has no header row")
)

// RangeError reports a year range whose lower bound exceeds the upper bound.
type RangeError struct {
	From, To int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid year range: start year %d is after end year %d", e.From, e.To)
}

func (e *RangeError) Is(target error) bool {
	return target == ErrInvalidRange
}
