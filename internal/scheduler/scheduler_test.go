package scheduler_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fakeyudi/timerdeck/internal/clock"
	"github.com/fakeyudi/timerdeck/internal/notify"
	"github.com/fakeyudi/timerdeck/internal/scheduler"
	"github.com/fakeyudi/timerdeck/internal/timer"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func running(t *testing.T, id string, duration int, halfway bool) timer.State {
	t.Helper()
	tm, err := timer.New(timer.Input{Name: "Tea", Category: "Kitchen", Duration: duration, HalfwayAlert: halfway}, id, epoch)
	require.NoError(t, err)
	s := timer.Apply(timer.State{}, timer.AddTimer{Timer: tm})
	return timer.Apply(s, timer.TimerAction{ID: id, Op: timer.OpStart})
}

func tickAt(n int) clock.Tick {
	return clock.Tick{Seq: uint64(n), At: epoch.Add(time.Duration(n) * time.Second)}
}

func TestTeaTimer(t *testing.T) {
	s := running(t, "tea", 10, true)
	var all []notify.Notification
	for i := 1; i <= 10; i++ {
		var notes []notify.Notification
		s, notes = scheduler.Advance(s, tickAt(i))
		all = append(all, notes...)

		tm, _ := s.Find("tea")
		if i < 10 {
			assert.Equal(t, 10-i, tm.Remaining)
			assert.Equal(t, timer.StatusRunning, tm.Status)
		}
		if i == 5 {
			require.Len(t, notes, 1)
			assert.Equal(t, notify.KindHalfway, notes[0].Kind)
			assert.True(t, tm.HalfwayFired)
		}
	}

	tm, _ := s.Find("tea")
	assert.Equal(t, timer.StatusCompleted, tm.Status)
	assert.Equal(t, 0, tm.Remaining)
	require.Len(t, all, 2)
	assert.Equal(t, notify.KindCompleted, all[1].Kind)
	assert.Equal(t, `Timer "Tea" completed!`, all[1].Message())
	require.Len(t, s.History, 1)
	assert.Equal(t, tickAt(10).At, s.History[0].CompletionTimestamp)

	next, notes := scheduler.Advance(s, tickAt(11))
	assert.Empty(t, notes)
	assert.Equal(t, s, next)
}

func TestOneSecondTimerFiresBothNotices(t *testing.T) {
	s := running(t, "quick", 1, true)
	s, notes := scheduler.Advance(s, tickAt(1))

	require.Len(t, notes, 2)
	assert.Equal(t, notify.KindHalfway, notes[0].Kind)
	assert.Equal(t, notify.KindCompleted, notes[1].Kind)
	tm, _ := s.Find("quick")
	assert.True(t, tm.HalfwayFired)
	assert.True(t, tm.Completed())
}

func TestOddDurationHalfwayUsesFloor(t *testing.T) {
	s := running(t, "odd", 7, true)
	var fired int
	for i := 1; i <= 7; i++ {
		var notes []notify.Notification
		s, notes = scheduler.Advance(s, tickAt(i))
		for _, n := range notes {
			if n.Kind == notify.KindHalfway {
				fired = i
			}
		}
	}
	// Threshold is 3: remaining goes 6, 5, 4, 3.
	assert.Equal(t, 4, fired)
}

func TestIdleAndDisabledTimersUntouched(t *testing.T) {
	s := running(t, "quiet", 4, false)
	tm, err := timer.New(timer.Input{Name: "Idle", Category: "Kitchen", Duration: 4}, "idle", epoch)
	require.NoError(t, err)
	s = timer.Apply(s, timer.AddTimer{Timer: tm})

	for i := 1; i <= 4; i++ {
		var notes []notify.Notification
		s, notes = scheduler.Advance(s, tickAt(i))
		for _, n := range notes {
			assert.NotEqual(t, notify.KindHalfway, n.Kind)
		}
	}
	idle, _ := s.Find("idle")
	assert.Equal(t, 4, idle.Remaining)
	assert.False(t, scheduler.Running(s))
}

// Feature: timerdeck, Property 4: ticks decrement monotonically and notify at most once
func TestAdvanceMonotonicAtMostOnce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 5).Draw(t, "timers")
		var s timer.State
		for i := 0; i < n; i++ {
			id := fmt.Sprint(i)
			tm, err := timer.New(timer.Input{
				Name:         "T" + id,
				Category:     rapid.SampledFrom([]string{"A", "B"}).Draw(t, "category"),
				Duration:     rapid.IntRange(1, 30).Draw(t, "duration"),
				HalfwayAlert: rapid.Bool().Draw(t, "halfway"),
			}, id, epoch)
			if err != nil {
				t.Fatal(err)
			}
			s = timer.Apply(s, timer.AddTimer{Timer: tm})
			if rapid.Bool().Draw(t, "start") {
				s = timer.Apply(s, timer.TimerAction{ID: id, Op: timer.OpStart})
			}
		}

		counts := map[string]int{}
		ticks := rapid.IntRange(1, 40).Draw(t, "ticks")
		for i := 1; i <= ticks; i++ {
			before := s
			var notes []notify.Notification
			s, notes = scheduler.Advance(s, tickAt(i))
			for _, note := range notes {
				counts[note.TimerID+"/"+string(note.Kind)]++
			}
			for j, prev := range before.Timers {
				cur := s.Timers[j]
				want := prev.Remaining
				if prev.Status == timer.StatusRunning && prev.Remaining > 0 {
					want--
				}
				if cur.Remaining != want {
					t.Fatalf("tick %d timer %s: remaining %d, want %d", i, cur.ID, cur.Remaining, want)
				}
			}
		}
		for key, c := range counts {
			if c > 1 {
				t.Fatalf("%s notified %d times", key, c)
			}
		}
		completed := 0
		for _, tm := range s.Timers {
			if tm.Completed() {
				completed++
			}
		}
		if len(s.History) != completed {
			t.Fatalf("history %d, completed timers %d", len(s.History), completed)
		}
	})
}
