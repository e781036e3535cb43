// Package schedule runs fire-once actions against a frame clock.
//
// Time only moves when the owner calls Advance, so actions run on the same
// goroutine as the frame loop and never race with it.
package schedule

import (
	"container/heap"
	"time"
)

type ID uint64

type action struct {
	id    ID
	name  string
	due   time.Duration
	seq   uint64
	epoch uint64
	fn    func()
	index int
}

type queue []*action

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].due == q[j].due {
		return q[i].seq < q[j].seq
	}
	return q[i].due < q[j].due
}

func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *queue) Push(x any) {
	a := x.(*action)
	a.index = len(*q)
	*q = append(*q, a)
}

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	a := old[n-1]
	old[n-1] = nil
	a.index = -1
	*q = old[:n-1]
	return a
}

// Scheduler is not safe for concurrent use.
type Scheduler struct {
	now     time.Duration
	nextID  ID
	seq     uint64
	queue   queue
	byID    map[ID]*action
	epoch   uint64
	held    []*action
}

func New() *Scheduler {
	return &Scheduler{byID: make(map[ID]*action)}
}

// After schedules fn to run once delay has elapsed on the frame clock.
// The returned ID is never zero.
func (s *Scheduler) After(delay time.Duration, name string, fn func()) ID {
	if delay < 0 {
		delay = 0
	}
	s.nextID++
	s.seq++
	// epoch marks the Advance call this was scheduled in; that call skips it
	a := &action{id: s.nextID, name: name, due: s.now + delay, seq: s.seq, epoch: s.epoch, fn: fn}
	heap.Push(&s.queue, a)
	s.byID[a.id] = a
	return a.id
}

// Cancel drops a pending action. It reports whether anything was removed.
func (s *Scheduler) Cancel(id ID) bool {
	a, ok := s.byID[id]
	if !ok {
		return false
	}
	if a.index >= 0 {
		heap.Remove(&s.queue, a.index)
	}
	// held actions are dropped when Advance requeues them
	a.fn = nil
	delete(s.byID, id)
	return true
}

func (s *Scheduler) Pending(id ID) bool {
	_, ok := s.byID[id]
	return ok
}

// Name returns the label an action was scheduled with.
func (s *Scheduler) Name(id ID) string {
	if a, ok := s.byID[id]; ok {
		return a.name
	}
	return ""
}

// Advance moves the clock forward by dt and runs every action now due, in
// due-time order and then scheduling order. It returns how many ran.
// Actions scheduled by an action during this call wait for the next one.
func (s *Scheduler) Advance(dt time.Duration) int {
	if dt < 0 {
		dt = 0
	}
	target := s.now + dt
	s.epoch++

	ran := 0
	for s.queue.Len() > 0 && s.queue[0].due <= target {
		a := heap.Pop(&s.queue).(*action)
		if a.epoch == s.epoch {
			s.held = append(s.held, a)
			continue
		}
		delete(s.byID, a.id)
		s.now = max(s.now, a.due)
		a.fn()
		ran++
	}
	for _, a := range s.held {
		if a.fn != nil {
			heap.Push(&s.queue, a)
		}
	}
	clear(s.held)
	s.held = s.held[:0]
	s.now = target
	return ran
}

func (s *Scheduler) Now() time.Duration { return s.now }

func (s *Scheduler) Len() int { return s.queue.Len() }

// Clear drops every pending action. The clock keeps its value.
func (s *Scheduler) Clear() {
	for _, a := range s.held {
		a.fn = nil
	}
	s.queue = s.queue[:0]
	clear(s.byID)
}

// Seconds converts a frame step in seconds to a clock delta.
func Seconds(dt float64) time.Duration {
	return time.Duration(dt * float64(time.Second))
}
