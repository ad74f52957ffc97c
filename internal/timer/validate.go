package timer

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTimer is wrapped by every ValidationError.
var ErrInvalidTimer = errors.New("invalid timer")

// ValidationError describes the first field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidTimer
}

// Input is the user-supplied part of a new timer.
type Input struct {
	Name         string
	Category     string
	Duration     int // seconds
	HalfwayAlert bool
}

// New validates in and builds an idle timer ready for AddTimer.
func New(in Input, id string, now time.Time) (Timer, error) {
	t := Timer{
		ID:                  id,
		Name:                strings.TrimSpace(in.Name),
		Category:            strings.TrimSpace(in.Category),
		Duration:            in.Duration,
		Remaining:           in.Duration,
		Status:              StatusIdle,
		HalfwayAlertEnabled: in.HalfwayAlert,
		CreatedAt:           now.UTC(),
	}
	if err := Validate(t); err != nil {
		return Timer{}, err
	}
	if t.ID == "" {
		return Timer{}, &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	return t, nil
}

// Validate checks the fields a timer must always satisfy.
func Validate(t Timer) error {
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if t.Duration < 1 {
		return &ValidationError{Field: "duration", Reason: fmt.Sprintf("must be at least 1 second, got %d", t.Duration)}
	}
	if strings.TrimSpace(t.Category) == "" {
		return &ValidationError{Field: "category", Reason: "must not be empty"}
	}
	return nil
}
