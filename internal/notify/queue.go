// Package notify buffers halfway and completion notices until the user
// acknowledges them.
package notify

import (
	"sync"
	"time"
)

// Kind tags a notification.
type Kind string

const (
	KindHalfway   Kind = "halfway"
	KindCompleted Kind = "completed"
)

// Notification is one pending notice about a timer.
type Notification struct {
	TimerID   string    `json:"timerId"`
	TimerName string    `json:"timerName"`
	Kind      Kind      `json:"kind"`
	At        time.Time `json:"at"`
}

// Message is the text shown to the user.
func (n Notification) Message() string {
	if n.Kind == KindHalfway {
		return `Timer "` + n.TimerName + `" has reached its halfway point!`
	}
	return `Timer "` + n.TimerName + `" completed!`
}

// Queue is a FIFO of notifications. Nothing is collapsed or expired; each
// notice stays at its position until acknowledged.
type Queue struct {
	mu    sync.Mutex
	items []Notification
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends notifications in the order given.
func (q *Queue) Push(ns ...Notification) {
	if len(ns) == 0 {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, ns...)
	q.mu.Unlock()
}

// Peek returns the front notification without removing it.
func (q *Queue) Peek() (Notification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Notification{}, false
	}
	return q.items[0], true
}

// Ack removes and returns the front notification.
func (q *Queue) Ack() (Notification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Notification{}, false
	}
	n := q.items[0]
	q.items[0] = Notification{}
	q.items = q.items[1:]
	return n, true
}

// Len returns the number of pending notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pending returns a copy of every pending notification, front first.
func (q *Queue) Pending() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Notification(nil), q.items...)
}
