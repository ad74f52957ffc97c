package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/timerdeck/internal/clock"
	"github.com/fakeyudi/timerdeck/internal/notify"
	"github.com/fakeyudi/timerdeck/internal/persist"
	"github.com/fakeyudi/timerdeck/internal/storage"
	"github.com/fakeyudi/timerdeck/internal/timer"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("t%d", n)
	}
}

func newTestEngine(t *testing.T, kv storage.KV) (*Engine, *clock.FakeClock) {
	t.Helper()
	if kv == nil {
		kv = storage.NewMemoryKV()
	}
	fc := clock.NewFakeClock(epoch)
	e, err := New(Options{Bridge: persist.NewBridge(kv, nil), Clock: fc, IDs: sequentialIDs()})
	require.NoError(t, err)
	return e, fc
}

// tickN delivers n ticks with increasing sequence numbers, advancing fc.
func tickN(e *Engine, fc *clock.FakeClock, n int) {
	for i := 0; i < n; i++ {
		fc.Advance(time.Second)
		e.Tick(clock.Tick{Seq: e.LastTick() + 1, At: fc.Now()})
	}
}

func TestNewRequiresBridge(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestTeaTimerScenario(t *testing.T) {
	e, fc := newTestEngine(t, nil)
	tea, err := e.AddTimer(timer.Input{Name: "Tea", Category: "Kitchen", Duration: 10, HalfwayAlert: true})
	require.NoError(t, err)
	require.NoError(t, e.Start(tea.ID))

	tickN(e, fc, 5)
	got, _ := e.State().Find(tea.ID)
	assert.Equal(t, 5, got.Remaining)
	assert.True(t, got.HalfwayFired)
	front, ok := e.Notifications().Peek()
	require.True(t, ok)
	assert.Equal(t, notify.KindHalfway, front.Kind)
	assert.Equal(t, `Timer "Tea" has reached its halfway point!`, front.Message())

	tickN(e, fc, 5)
	got, _ = e.State().Find(tea.ID)
	assert.Equal(t, timer.StatusCompleted, got.Status)
	assert.Equal(t, 0, got.Remaining)

	st := e.State()
	require.Len(t, st.History, 1)
	assert.Equal(t, "Tea", st.History[0].Name)
	assert.True(t, st.History[0].CompletionTimestamp.Equal(epoch.Add(10*time.Second)))

	pending := e.Notifications().Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, notify.KindCompleted, pending[1].Kind)

	// Further ticks neither notify nor record again.
	tickN(e, fc, 3)
	assert.Equal(t, 2, e.Notifications().Len())
	assert.Len(t, e.State().History, 1)
}

func TestStaleTickIgnored(t *testing.T) {
	e, fc := newTestEngine(t, nil)
	tm, err := e.AddTimer(timer.Input{Name: "Eggs", Category: "Kitchen", Duration: 30})
	require.NoError(t, err)
	require.NoError(t, e.Start(tm.ID))

	fc.Advance(time.Second)
	e.Tick(clock.Tick{Seq: 1, At: fc.Now()})
	e.Tick(clock.Tick{Seq: 1, At: fc.Now()})

	got, _ := e.State().Find(tm.ID)
	assert.Equal(t, 29, got.Remaining)
	assert.Equal(t, uint64(1), e.LastTick())
}

func TestBoundaryNotFound(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	for name, err := range map[string]error{
		"start":  e.Start("ghost"),
		"pause":  e.Pause("ghost"),
		"reset":  e.Reset("ghost"),
		"remove": e.Remove("ghost"),
		"update": e.Update("ghost", timer.Patch{}),
	} {
		assert.ErrorIs(t, err, ErrNotFound, name)
	}
	assert.ErrorIs(t, e.Bulk("Nowhere", timer.OpStart), ErrUnknownCategory)
}

func TestAddTimerValidation(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	_, err := e.AddTimer(timer.Input{Name: "  ", Category: "Kitchen", Duration: 10})
	var verr *timer.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "name", verr.Field)
	assert.Empty(t, e.State().Timers)
}

func TestBulkSkipsCompletedAndOtherCategories(t *testing.T) {
	e, fc := newTestEngine(t, nil)
	quick, _ := e.AddTimer(timer.Input{Name: "Quick", Category: "Workout", Duration: 1})
	plank, _ := e.AddTimer(timer.Input{Name: "Plank", Category: "Workout", Duration: 60})
	tea, _ := e.AddTimer(timer.Input{Name: "Tea", Category: "Kitchen", Duration: 60})

	require.NoError(t, e.Start(quick.ID))
	tickN(e, fc, 1)

	require.NoError(t, e.Bulk("Workout", timer.OpStart))
	st := e.State()
	q, _ := st.Find(quick.ID)
	p, _ := st.Find(plank.ID)
	k, _ := st.Find(tea.ID)
	assert.Equal(t, timer.StatusCompleted, q.Status)
	assert.Equal(t, timer.StatusRunning, p.Status)
	assert.Equal(t, timer.StatusIdle, k.Status)

	require.NoError(t, e.Bulk("Workout", timer.OpReset))
	q, _ = e.State().Find(quick.ID)
	assert.Equal(t, timer.StatusCompleted, q.Status)
}

func TestResetRevivesCompletedTimer(t *testing.T) {
	e, fc := newTestEngine(t, nil)
	tm, _ := e.AddTimer(timer.Input{Name: "Quick", Category: "Workout", Duration: 2})
	require.NoError(t, e.Start(tm.ID))
	tickN(e, fc, 2)

	require.NoError(t, e.Start(tm.ID))
	got, _ := e.State().Find(tm.ID)
	assert.Equal(t, timer.StatusCompleted, got.Status)

	require.NoError(t, e.Reset(tm.ID))
	got, _ = e.State().Find(tm.ID)
	assert.Equal(t, timer.StatusIdle, got.Status)
	assert.Equal(t, 2, got.Remaining)
	assert.Len(t, e.State().History, 1)
}

func TestRemoveKeepsHistory(t *testing.T) {
	e, fc := newTestEngine(t, nil)
	tm, _ := e.AddTimer(timer.Input{Name: "Quick", Category: "Workout", Duration: 1})
	require.NoError(t, e.Start(tm.ID))
	tickN(e, fc, 1)

	require.NoError(t, e.Remove(tm.ID))
	assert.Empty(t, e.State().Timers)
	assert.Len(t, e.State().History, 1)

	e.ClearHistory()
	assert.Empty(t, e.State().History)
}

func TestStatePersistsAcrossRestart(t *testing.T) {
	kv := storage.NewMemoryKV()
	e, fc := newTestEngine(t, kv)
	tm, _ := e.AddTimer(timer.Input{Name: "Bread", Category: "Kitchen", Duration: 120, HalfwayAlert: true})
	require.NoError(t, e.Start(tm.ID))
	tickN(e, fc, 7)
	assert.False(t, e.ToggleCategory("Kitchen"))

	restarted, _ := newTestEngine(t, kv)
	got, ok := restarted.State().Find(tm.ID)
	require.True(t, ok)
	assert.Equal(t, 113, got.Remaining)
	assert.Equal(t, timer.StatusRunning, got.Status)
	assert.False(t, restarted.State().Expanded("Kitchen"))
	assert.Equal(t, []string{"Kitchen"}, restarted.Categories())
}

type failingKV struct{ storage.KV }

func (failingKV) Set(string, []byte) error { return errors.New("disk full") }

func TestSaveFailureKeepsState(t *testing.T) {
	e, _ := newTestEngine(t, failingKV{storage.NewMemoryKV()})
	tm, err := e.AddTimer(timer.Input{Name: "Tea", Category: "Kitchen", Duration: 10})
	require.NoError(t, err)
	_, ok := e.State().Find(tm.ID)
	assert.True(t, ok)
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ch := e.Subscribe(4)

	tm, _ := e.AddTimer(timer.Input{Name: "Tea", Category: "Kitchen", Duration: 10})
	select {
	case st := <-ch:
		_, ok := st.Find(tm.ID)
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("no state delivered")
	}

	// A no-op transition delivers nothing.
	require.NoError(t, e.Pause(tm.ID))
	select {
	case <-ch:
		t.Fatal("unexpected state for a no-op")
	default:
	}

	e.Close()
	_, open := <-ch
	assert.False(t, open)
	_, open = <-e.Subscribe(1)
	assert.False(t, open)
}

func TestRunStopsOnCancel(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	tm, _ := e.AddTimer(timer.Input{Name: "Tea", Category: "Kitchen", Duration: 600})
	require.NoError(t, e.Start(tm.ID))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, clock.NewDriver(nil, 5*time.Millisecond)) }()

	require.Eventually(t, func() bool { return e.LastTick() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	seq := e.LastTick()
	got, _ := e.State().Find(tm.ID)
	assert.Equal(t, 600-int(seq), got.Remaining)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, seq, e.LastTick())
}
