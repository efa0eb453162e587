// Package timers schedules round timeouts, auto-advance delays and the session tick.
package timers

import (
	"time"

	"github.com/verte-zerg/tuiear/internal/loop"
)

// slot holds at most one armed callback. Every arm or cancel bumps gen, and a
// callback only runs if the generation it captured is still current, so a
// timer that already fired into the loop queue cannot act after being replaced.
type slot struct {
	gen   uint64
	timer loop.Timer
}

func (s *slot) arm(sched loop.Scheduler, d time.Duration, fn func()) {
	s.cancel()
	gen := s.gen
	s.timer = sched.AfterFunc(d, func() {
		if s.gen != gen {
			return
		}
		s.timer = nil
		s.gen++
		fn()
	})
}

func (s *slot) cancel() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *slot) pending() bool {
	return s.timer != nil
}

// RoundTimer owns the round-timeout and auto-advance callbacks of one orchestrator.
// It must only be used from the scheduler's goroutine.
type RoundTimer struct {
	sched   loop.Scheduler
	timeout slot
	advance slot
}

// NewRoundTimer returns a RoundTimer using sched.
func NewRoundTimer(sched loop.Scheduler) *RoundTimer {
	return &RoundTimer{sched: sched}
}

// ArmTimeout replaces any pending timeout with fn after d.
func (t *RoundTimer) ArmTimeout(d time.Duration, fn func()) {
	t.timeout.arm(t.sched, d, fn)
}

// ArmAdvance replaces any pending advance with fn after d.
func (t *RoundTimer) ArmAdvance(d time.Duration, fn func()) {
	t.advance.arm(t.sched, d, fn)
}

// CancelTimeout drops the pending timeout, if any.
func (t *RoundTimer) CancelTimeout() {
	t.timeout.cancel()
}

// Cancel drops both pending callbacks.
func (t *RoundTimer) Cancel() {
	t.timeout.cancel()
	t.advance.cancel()
}

// TimeoutPending reports whether a timeout is armed.
func (t *RoundTimer) TimeoutPending() bool {
	return t.timeout.pending()
}

// AdvancePending reports whether an advance is armed.
func (t *RoundTimer) AdvancePending() bool {
	return t.advance.pending()
}
