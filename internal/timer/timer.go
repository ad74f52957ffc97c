// Package timer holds the timer entities, the actions that change them and the
// single reducer every caller goes through.
package timer

import "time"

// Status is the lifecycle state of a timer.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"

	// statusPaused is accepted from older snapshots and read as idle.
	statusPaused Status = "paused"
)

// Timer is one countdown.
type Timer struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Category            string    `json:"category"`
	Duration            int       `json:"duration"`  // seconds
	Remaining           int       `json:"remaining"` // seconds, in [0, Duration]
	Status              Status    `json:"status"`
	HalfwayAlertEnabled bool      `json:"halfwayAlertEnabled"`
	HalfwayFired        bool      `json:"halfwayFired"`
	CreatedAt           time.Time `json:"createdAt,omitzero"`
}

// HalfwayThreshold is the remaining-seconds mark at or below which the
// halfway notification fires.
func (t Timer) HalfwayThreshold() int {
	return t.Duration / 2
}

// Completed reports whether the timer has finished its run.
func (t Timer) Completed() bool {
	return t.Status == StatusCompleted
}

// Progress returns the elapsed fraction of the run in [0, 1].
func (t Timer) Progress() float64 {
	if t.Duration <= 0 {
		return 1
	}
	p := float64(t.Duration-t.Remaining) / float64(t.Duration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// HistoryEntry records one completed run. Entries are never edited.
type HistoryEntry struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Category            string    `json:"category"`
	CompletionTimestamp time.Time `json:"completionTimestamp"`
}

// State is the aggregate root owned by the engine.
type State struct {
	Timers             []Timer
	History            []HistoryEntry
	CategoriesExpanded map[string]bool
}

// Expanded reports the display flag for a category. Categories default to
// expanded.
func (s State) Expanded(category string) bool {
	v, ok := s.CategoriesExpanded[category]
	return !ok || v
}

// Find returns the timer with the given id.
func (s State) Find(id string) (Timer, bool) {
	if i := s.index(id); i >= 0 {
		return s.Timers[i], true
	}
	return Timer{}, false
}

func (s State) index(id string) int {
	for i := range s.Timers {
		if s.Timers[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy safe to hand out to readers.
func (s State) Clone() State {
	out := State{
		Timers:  append([]Timer(nil), s.Timers...),
		History: append([]HistoryEntry(nil), s.History...),
	}
	if s.CategoriesExpanded != nil {
		out.CategoriesExpanded = make(map[string]bool, len(s.CategoriesExpanded))
		for k, v := range s.CategoriesExpanded {
			out.CategoriesExpanded[k] = v
		}
	}
	return out
}

// Snapshot returns the persisted form of the state.
func (s State) Snapshot() Snapshot {
	c := s.Clone()
	return Snapshot{
		Version:            SnapshotVersion,
		Timers:             c.Timers,
		History:            c.History,
		CategoriesExpanded: c.CategoriesExpanded,
	}
}

// SnapshotVersion is the current persisted layout.
const SnapshotVersion = 1

// Snapshot is the persisted representation of timers, history and category
// expansion.
type Snapshot struct {
	Version            int             `json:"version"`
	Timers             []Timer         `json:"timers"`
	History            []HistoryEntry  `json:"history"`
	CategoriesExpanded map[string]bool `json:"categoriesExpanded,omitempty"`
}
