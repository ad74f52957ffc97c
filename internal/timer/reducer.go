package timer

import "strings"

// Apply returns the state produced by applying a to s. It never mutates s and
// never fails: actions aimed at missing timers, and actions it does not
// recognize, return s unchanged.
func Apply(s State, a Action) State {
	next, _ := Reduce(s, a)
	return next
}

// Reduce is Apply that also reports whether anything changed. When it reports
// false the returned state is s itself.
func Reduce(s State, a Action) (State, bool) {
	switch a := a.(type) {
	case LoadState:
		return loadState(a.Snapshot), true
	case AddTimer:
		return addTimer(s, a.Timer)
	case UpdateTimer:
		return updateTimer(s, a.ID, a.Patch)
	case RemoveTimer:
		return removeTimer(s, a.ID)
	case MarkCompleted:
		return markCompleted(s, a)
	case ToggleCategory:
		return toggleCategory(s, a.Name)
	case BulkAction:
		return bulkAction(s, a.Category, a.Op)
	case TimerAction:
		return timerAction(s, a.ID, a.Op)
	case ClearHistory:
		if len(s.History) == 0 {
			return s, false
		}
		s.History = nil
		return s, true
	}
	return s, false
}

func loadState(snap Snapshot) State {
	return State{
		Timers:             snap.Timers,
		History:            snap.History,
		CategoriesExpanded: snap.CategoriesExpanded,
	}.Clone()
}

func addTimer(s State, t Timer) (State, bool) {
	if t.ID == "" || Validate(t) != nil || s.index(t.ID) >= 0 {
		return s, false
	}
	t.Remaining = t.Duration
	t.Status = StatusIdle
	t.HalfwayFired = false

	timers := make([]Timer, len(s.Timers), len(s.Timers)+1)
	copy(timers, s.Timers)
	s.Timers = append(timers, t)
	return s, true
}

func updateTimer(s State, id string, p Patch) (State, bool) {
	i := s.index(id)
	if i < 0 {
		return s, false
	}
	t := s.Timers[i]
	if p.Name != nil {
		if name := strings.TrimSpace(*p.Name); name != "" {
			t.Name = name
		}
	}
	if p.Category != nil {
		if cat := strings.TrimSpace(*p.Category); cat != "" {
			t.Category = cat
		}
	}
	// Completed timers only leave that state through an explicit reset.
	if !t.Completed() {
		if p.Remaining != nil {
			t.Remaining = clamp(*p.Remaining, 1, t.Duration)
		}
		if p.Status != nil {
			switch *p.Status {
			case StatusIdle, statusPaused:
				t.Status = StatusIdle
			case StatusRunning:
				t.Status = StatusRunning
			}
		}
		if p.HalfwayFired != nil {
			t.HalfwayFired = *p.HalfwayFired
		}
	}
	return s.withTimer(i, t)
}

func removeTimer(s State, id string) (State, bool) {
	i := s.index(id)
	if i < 0 {
		return s, false
	}
	timers := make([]Timer, 0, len(s.Timers)-1)
	timers = append(timers, s.Timers[:i]...)
	s.Timers = append(timers, s.Timers[i+1:]...)
	return s, true
}

func markCompleted(s State, a MarkCompleted) (State, bool) {
	i := s.index(a.ID)
	if i < 0 || s.Timers[i].Completed() {
		return s, false
	}
	t := s.Timers[i]
	t.Status = StatusCompleted
	t.Remaining = 0

	history := make([]HistoryEntry, len(s.History), len(s.History)+1)
	copy(history, s.History)
	s.History = append(history, HistoryEntry{
		ID:                  t.ID,
		Name:                t.Name,
		Category:            t.Category,
		CompletionTimestamp: a.At.UTC(),
	})
	next, _ := s.withTimer(i, t)
	return next, true
}

func toggleCategory(s State, name string) (State, bool) {
	expanded := make(map[string]bool, len(s.CategoriesExpanded)+1)
	for k, v := range s.CategoriesExpanded {
		expanded[k] = v
	}
	expanded[name] = !s.Expanded(name)
	s.CategoriesExpanded = expanded
	return s, true
}

func bulkAction(s State, category string, op Op) (State, bool) {
	var timers []Timer
	for i, t := range s.Timers {
		if t.Category != category || t.Completed() {
			continue
		}
		updated := applyOp(t, op)
		if updated == t {
			continue
		}
		if timers == nil {
			timers = append([]Timer(nil), s.Timers...)
		}
		timers[i] = updated
	}
	if timers == nil {
		return s, false
	}
	s.Timers = timers
	return s, true
}

func timerAction(s State, id string, op Op) (State, bool) {
	i := s.index(id)
	if i < 0 {
		return s, false
	}
	t := s.Timers[i]
	if t.Completed() && op != OpReset {
		return s, false
	}
	return s.withTimer(i, applyOp(t, op))
}

// applyOp is the one place start, pause and reset are defined.
func applyOp(t Timer, op Op) Timer {
	switch op {
	case OpStart:
		if t.Remaining > 0 {
			t.Status = StatusRunning
		}
	case OpPause:
		if t.Status == StatusRunning {
			t.Status = StatusIdle
		}
	case OpReset:
		t.Status = StatusIdle
		t.Remaining = t.Duration
		t.HalfwayFired = false
	}
	return t
}

func (s State) withTimer(i int, t Timer) (State, bool) {
	if s.Timers[i] == t {
		return s, false
	}
	timers := append([]Timer(nil), s.Timers...)
	timers[i] = t
	s.Timers = timers
	return s, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
