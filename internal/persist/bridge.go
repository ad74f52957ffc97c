// Package persist mirrors timer state to a key-value store and reads it back
// at boot.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/fakeyudi/timerdeck/internal/logging"
	"github.com/fakeyudi/timerdeck/internal/storage"
	"github.com/fakeyudi/timerdeck/internal/timer"
)

// SnapshotKey is the single record holding timers, history and category
// expansion.
const SnapshotKey = "snapshot"

// Bridge loads and saves snapshots.
type Bridge struct {
	kv  storage.KV
	log *log.Logger
}

// NewBridge returns a bridge over kv. A nil logger discards output.
func NewBridge(kv storage.KV, logger *log.Logger) *Bridge {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Bridge{kv: kv, log: logger}
}

// Load returns the stored snapshot. Absent, empty, malformed or unsupported
// data yields false; the caller starts from an empty state.
func (b *Bridge) Load() (timer.Snapshot, bool) {
	data, err := b.kv.Get(SnapshotKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			b.log.Warn("reading snapshot failed, starting empty", "err", err)
		}
		return timer.Snapshot{}, false
	}
	if len(data) == 0 {
		return timer.Snapshot{}, false
	}

	var snap timer.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		b.log.Warn("stored snapshot is malformed, starting empty", "err", err)
		return timer.Snapshot{}, false
	}
	if snap.Version > timer.SnapshotVersion {
		b.log.Warn("stored snapshot is from a newer version, starting empty", "version", snap.Version)
		return timer.Snapshot{}, false
	}
	return b.sanitize(snap), true
}

// Save writes snap under SnapshotKey.
func (b *Bridge) Save(snap timer.Snapshot) error {
	snap.Version = timer.SnapshotVersion
	if snap.Timers == nil {
		snap.Timers = []timer.Timer{}
	}
	if snap.History == nil {
		snap.History = []timer.HistoryEntry{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := b.kv.Set(SnapshotKey, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// sanitize restores the timer invariants on data that may have been written
// by an older build or edited by hand.
func (b *Bridge) sanitize(snap timer.Snapshot) timer.Snapshot {
	seen := make(map[string]bool, len(snap.Timers))
	timers := make([]timer.Timer, 0, len(snap.Timers))
	for _, t := range snap.Timers {
		if err := timer.Validate(t); err != nil || t.ID == "" || seen[t.ID] {
			b.log.Warn("dropping unusable timer from snapshot", "id", t.ID, "err", err)
			continue
		}
		seen[t.ID] = true

		switch t.Status {
		case timer.StatusCompleted:
			t.Remaining = 0
		case timer.StatusRunning:
		default:
			t.Status = timer.StatusIdle
		}
		if t.Status != timer.StatusCompleted {
			if t.Remaining <= 0 {
				t.Status = timer.StatusIdle
				t.Remaining = t.Duration
				t.HalfwayFired = false
			} else if t.Remaining > t.Duration {
				t.Remaining = t.Duration
			}
		}
		timers = append(timers, t)
	}
	snap.Timers = timers
	if snap.History == nil {
		snap.History = []timer.HistoryEntry{}
	}
	return snap
}
