package loop

import (
	"container/heap"
	"time"
)

// Manual is a Scheduler driven by simulated time. Callbacks run on the goroutine
// that calls Advance, in the order their deadlines elapse.
type Manual struct {
	now     time.Time
	seq     uint64
	pending timerHeap
}

// NewManual returns a Manual scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now implements Scheduler.
func (m *Manual) Now() time.Time {
	return m.now
}

// AfterFunc implements Scheduler.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{at: m.now.Add(d), seq: m.seq, fn: fn, owner: m, index: -1}
	heap.Push(&m.pending, t)
	return t
}

// Advance moves the clock forward by d, firing every callback that comes due,
// including callbacks armed by other callbacks during the advance.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for m.pending.Len() > 0 {
		next := m.pending[0]
		if next.at.After(target) {
			break
		}
		heap.Pop(&m.pending)
		next.fired = true
		if next.at.After(m.now) {
			m.now = next.at
		}
		next.fn()
	}
	m.now = target
}

// Pending returns the number of armed callbacks.
func (m *Manual) Pending() int {
	return m.pending.Len()
}

type manualTimer struct {
	at    time.Time
	seq   uint64
	fn    func()
	owner *Manual
	index int
	fired bool
}

func (t *manualTimer) Stop() bool {
	if t.fired || t.index < 0 {
		return false
	}
	heap.Remove(&t.owner.pending, t.index)
	return true
}

type timerHeap []*manualTimer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *timerHeap) Push(x interface{}) {
	t := x.(*manualTimer)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
