// Package engine owns the timer state. Every transition, tick and save goes
// through one mutex, so observers see transitions in the order they were
// applied and the store sees saves in the same order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/fakeyudi/timerdeck/internal/clock"
	"github.com/fakeyudi/timerdeck/internal/logging"
	"github.com/fakeyudi/timerdeck/internal/notify"
	"github.com/fakeyudi/timerdeck/internal/persist"
	"github.com/fakeyudi/timerdeck/internal/scheduler"
	"github.com/fakeyudi/timerdeck/internal/timer"
)

var (
	// ErrNotFound is returned when an id does not name a timer.
	ErrNotFound = errors.New("timer not found")
	// ErrUnknownCategory is returned when no timer belongs to a category.
	ErrUnknownCategory = errors.New("unknown category")
)

// Options configures an Engine. Only Bridge is required.
type Options struct {
	Bridge *persist.Bridge
	Clock  clock.Clock
	Logger *log.Logger
	IDs    func() string
}

// Engine serializes access to a timer.State.
type Engine struct {
	mu      sync.Mutex
	state   timer.State
	lastSeq uint64
	subs    []chan timer.State
	closed  bool

	bridge *persist.Bridge
	clock  clock.Clock
	log    *log.Logger
	ids    func() string
	queue  *notify.Queue
}

// New boots an engine from whatever the bridge has stored.
func New(opts Options) (*Engine, error) {
	if opts.Bridge == nil {
		return nil, errors.New("engine: bridge is required")
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.IDs == nil {
		opts.IDs = uuid.NewString
	}

	e := &Engine{
		bridge: opts.Bridge,
		clock:  opts.Clock,
		log:    opts.Logger,
		ids:    opts.IDs,
		queue:  notify.NewQueue(),
	}
	if snap, ok := e.bridge.Load(); ok {
		// Loading is not a user transition; no write-back.
		e.state, _ = timer.Reduce(e.state, timer.LoadState{Snapshot: snap})
		e.log.Debug("state loaded", "timers", len(e.state.Timers), "history", len(e.state.History))
	}
	return e, nil
}

// Dispatch applies a and returns the resulting state.
func (e *Engine) Dispatch(a timer.Action) timer.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commitLocked(a)
	return e.state.Clone()
}

func (e *Engine) commitLocked(a timer.Action) bool {
	next, changed := timer.Reduce(e.state, a)
	if !changed {
		return false
	}
	e.state = next
	e.saveLocked()
	e.emitLocked()
	return true
}

// saveLocked writes through. A failed save is logged and the in-memory state
// is kept.
func (e *Engine) saveLocked() {
	if err := e.bridge.Save(e.state.Snapshot()); err != nil {
		e.log.Error("saving state failed", "err", err)
	}
}

func (e *Engine) emitLocked() {
	if e.closed {
		return
	}
	for _, ch := range e.subs {
		select {
		case ch <- e.state.Clone():
		default:
		}
	}
}

// Tick advances every running timer by one second. A tick whose sequence
// number is not newer than the last applied one is ignored.
func (e *Engine) Tick(t clock.Tick) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t.Seq != 0 && t.Seq <= e.lastSeq {
		e.log.Debug("dropping stale tick", "seq", t.Seq, "last", e.lastSeq)
		return
	}
	if t.Seq != 0 {
		e.lastSeq = t.Seq
	}
	if t.At.IsZero() {
		t.At = e.clock.Now()
	}

	next, notes := scheduler.Advance(e.state, t)
	e.queue.Push(notes...)
	for _, n := range notes {
		e.log.Info("timer notification", "id", n.TimerID, "kind", n.Kind)
	}
	if !sameTimers(e.state, next) || len(next.History) != len(e.state.History) {
		e.state = next
		e.saveLocked()
		e.emitLocked()
	}
}

func sameTimers(a, b timer.State) bool {
	if len(a.Timers) != len(b.Timers) {
		return false
	}
	for i := range a.Timers {
		if a.Timers[i] != b.Timers[i] {
			return false
		}
	}
	return true
}

// LastTick returns the sequence number of the newest applied tick.
func (e *Engine) LastTick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSeq
}

// AddTimer validates in and adds the resulting timer.
func (e *Engine) AddTimer(in timer.Input) (timer.Timer, error) {
	t, err := timer.New(in, e.ids(), e.clock.Now())
	if err != nil {
		return timer.Timer{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.commitLocked(timer.AddTimer{Timer: t}) {
		return timer.Timer{}, fmt.Errorf("timer id %q already in use", t.ID)
	}
	return t, nil
}

// Start runs a timer. Starting a completed timer does nothing.
func (e *Engine) Start(id string) error { return e.timerOp(id, timer.OpStart) }

// Pause stops a running timer where it is.
func (e *Engine) Pause(id string) error { return e.timerOp(id, timer.OpPause) }

// Reset returns a timer to its full duration, reviving it if completed.
func (e *Engine) Reset(id string) error { return e.timerOp(id, timer.OpReset) }

func (e *Engine) timerOp(id string, op timer.Op) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.state.Find(id); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.commitLocked(timer.TimerAction{ID: id, Op: op})
	return nil
}

// Update patches a timer's name, category or halfway-fired flag.
func (e *Engine) Update(id string, p timer.Patch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.state.Find(id); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.commitLocked(timer.UpdateTimer{ID: id, Patch: p})
	return nil
}

// Remove deletes a timer. Its history entries stay.
func (e *Engine) Remove(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.commitLocked(timer.RemoveTimer{ID: id}) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Bulk applies op to every non-completed timer in category.
func (e *Engine) Bulk(category string, op timer.Op) error {
	category = strings.TrimSpace(category)
	e.mu.Lock()
	defer e.mu.Unlock()
	if !timer.HasCategory(e.state.Timers, category) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	e.commitLocked(timer.BulkAction{Category: category, Op: op})
	return nil
}

// ToggleCategory flips the expanded flag of a category and returns the new
// value.
func (e *Engine) ToggleCategory(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commitLocked(timer.ToggleCategory{Name: name})
	return e.state.Expanded(name)
}

// ClearHistory empties the completion history.
func (e *Engine) ClearHistory() {
	e.Dispatch(timer.ClearHistory{})
}

// State returns a deep copy of the current state.
func (e *Engine) State() timer.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Categories returns the sorted distinct categories.
func (e *Engine) Categories() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return timer.Categories(e.state.Timers)
}

// Now reads the engine's clock.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

// Notifications returns the pending notification queue.
func (e *Engine) Notifications() *notify.Queue {
	return e.queue
}

// Subscribe registers an observer. Each transition sends the new state
// without blocking; a full channel misses that state.
func (e *Engine) Subscribe(buffer int) <-chan timer.State {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan timer.State, buffer)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		close(ch)
		return ch
	}
	e.subs = append(e.subs, ch)
	return ch
}

// Run drives ticks from d until ctx is done. It returns nil on cancellation.
func (e *Engine) Run(ctx context.Context, d *clock.Driver) error {
	d.StartAfter(e.LastTick())
	err := d.Run(ctx, e.Tick)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Close closes every subscriber channel. The state stays readable.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for _, ch := range e.subs {
		close(ch)
	}
	e.subs = nil
}
