package game

import (
	"container/heap"
	"context"
	"time"
)

// EventFunc is a deferred action. It runs on the loop goroutine with the
// tick time that found it due.
type EventFunc func(ctx context.Context, now time.Time)

type scheduledEvent struct {
	seq  uint64
	at   time.Time
	name string
	fn   EventFunc
}

// eventQueue is a min-heap ordered by due time, then by scheduling order.
type eventQueue []*scheduledEvent

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].at.Equal(q[j].at) {
		return q[i].seq < q[j].seq
	}
	return q[i].at.Before(q[j].at)
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) {
	*q = append(*q, x.(*scheduledEvent))
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return ev
}

// Scheduler is an explicit queue of fire-once deferred events. Nothing runs
// until RunDue is called, so every deferred action happens on the tick loop.
type Scheduler struct {
	queue eventQueue
	seq   uint64
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// At schedules fn to run on the first RunDue at or after at.
func (s *Scheduler) At(at time.Time, name string, fn EventFunc) {
	s.seq++
	heap.Push(&s.queue, &scheduledEvent{seq: s.seq, at: at, name: name, fn: fn})
}

// After schedules fn to run d after now.
func (s *Scheduler) After(now time.Time, d time.Duration, name string, fn EventFunc) {
	s.At(now.Add(d), name, fn)
}

// RunDue runs every event due at now, earliest first, and returns how many ran.
// Events scheduled by a running event are considered too if already due.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) int {
	ran := 0
	for len(s.queue) > 0 && !s.queue[0].at.After(now) {
		ev := heap.Pop(&s.queue).(*scheduledEvent)
		ev.fn(ctx, now)
		ran++
	}
	return ran
}

// Pending returns how many events with the given name are waiting.
func (s *Scheduler) Pending(name string) int {
	n := 0
	for _, ev := range s.queue {
		if ev.name == name {
			n++
		}
	}
	return n
}
