package timer

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownOp is returned by ParseOp for anything but start, pause or reset.
var ErrUnknownOp = errors.New("unknown timer operation")

// Op is a control operation shared by per-timer and per-category actions.
type Op string

const (
	OpStart Op = "start"
	OpPause Op = "pause"
	OpReset Op = "reset"
)

// ParseOp validates a user-supplied operation name.
func ParseOp(s string) (Op, error) {
	switch op := Op(strings.ToLower(strings.TrimSpace(s))); op {
	case OpStart, OpPause, OpReset:
		return op, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOp, s)
}

// Action is a request to change State. Only the types in this file implement it.
type Action interface {
	action()
}

// LoadState replaces timers, history and category expansion wholesale.
type LoadState struct {
	Snapshot Snapshot
}

// AddTimer appends a new timer in its initial idle state.
type AddTimer struct {
	Timer Timer
}

// UpdateTimer merges the non-nil fields of Patch into the timer with ID.
type UpdateTimer struct {
	ID    string
	Patch Patch
}

// Patch is a partial timer update. Duration and HalfwayAlertEnabled are
// fixed at creation and cannot be patched.
type Patch struct {
	Name         *string
	Category     *string
	Remaining    *int
	Status       *Status
	HalfwayFired *bool
}

// RemoveTimer deletes a timer. History is untouched.
type RemoveTimer struct {
	ID string
}

// MarkCompleted finishes a timer and records it in history.
type MarkCompleted struct {
	ID string
	At time.Time
}

// ToggleCategory flips the expanded flag of a category.
type ToggleCategory struct {
	Name string
}

// BulkAction applies Op to every non-completed timer in Category.
type BulkAction struct {
	Category string
	Op       Op
}

// TimerAction applies Op to one timer.
type TimerAction struct {
	ID string
	Op Op
}

// ClearHistory empties the completion history.
type ClearHistory struct{}

func (LoadState) action()      {}
func (AddTimer) action()       {}
func (UpdateTimer) action()    {}
func (RemoveTimer) action()    {}
func (MarkCompleted) action()  {}
func (ToggleCategory) action() {}
func (BulkAction) action()     {}
func (TimerAction) action()    {}
func (ClearHistory) action()   {}
