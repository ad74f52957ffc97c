// Package scheduler advances running timers by one tick.
package scheduler

import (
	"github.com/fakeyudi/timerdeck/internal/clock"
	"github.com/fakeyudi/timerdeck/internal/notify"
	"github.com/fakeyudi/timerdeck/internal/timer"
)

// Advance moves every running timer with time left forward by one second and
// returns the resulting state together with the notifications the step
// produced, in timer order. The state changes only through timer.Reduce, and
// the guard flags make the step monotonic: a timer that already fired its
// halfway notice or already completed is never notified again.
func Advance(s timer.State, tick clock.Tick) (timer.State, []notify.Notification) {
	var notes []notify.Notification

	// Iterate over the input; s is rebound as actions are applied.
	for _, t := range s.Timers {
		if t.Status != timer.StatusRunning || t.Remaining <= 0 {
			continue
		}
		next := t.Remaining - 1

		patch := timer.Patch{}
		if t.HalfwayAlertEnabled && !t.HalfwayFired && next <= t.HalfwayThreshold() {
			fired := true
			patch.HalfwayFired = &fired
			notes = append(notes, notification(t, notify.KindHalfway, tick))
		}

		if next <= 0 {
			if patch.HalfwayFired != nil {
				s = timer.Apply(s, timer.UpdateTimer{ID: t.ID, Patch: patch})
			}
			s = timer.Apply(s, timer.MarkCompleted{ID: t.ID, At: tick.At})
			notes = append(notes, notification(t, notify.KindCompleted, tick))
			continue
		}

		patch.Remaining = &next
		s = timer.Apply(s, timer.UpdateTimer{ID: t.ID, Patch: patch})
	}
	return s, notes
}

func notification(t timer.Timer, kind notify.Kind, tick clock.Tick) notify.Notification {
	return notify.Notification{
		TimerID:   t.ID,
		TimerName: t.Name,
		Kind:      kind,
		At:        tick.At,
	}
}

// Running reports whether any timer would change on the next tick.
func Running(s timer.State) bool {
	for _, t := range s.Timers {
		if t.Status == timer.StatusRunning && t.Remaining > 0 {
			return true
		}
	}
	return false
}
