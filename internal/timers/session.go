package timers

import (
	"time"

	"github.com/verte-zerg/tuiear/internal/loop"
)

// DefaultTickInterval is the nominal session tick.
const DefaultTickInterval = time.Second

// SessionTimer ticks periodically while a session runs and tracks elapsed
// session time, excluding paused spans.
type SessionTimer struct {
	sched    loop.Scheduler
	interval time.Duration
	tick     slot
	onTick   func(elapsed time.Duration)

	running     bool
	resumedAt   time.Time
	accumulated time.Duration
}

// NewSessionTimer returns a SessionTimer with the given interval. A
// non-positive interval falls back to DefaultTickInterval.
func NewSessionTimer(sched loop.Scheduler, interval time.Duration) *SessionTimer {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &SessionTimer{sched: sched, interval: interval}
}

// Start resets elapsed time and begins ticking.
func (s *SessionTimer) Start(onTick func(elapsed time.Duration)) {
	s.tick.cancel()
	s.onTick = onTick
	s.accumulated = 0
	s.running = true
	s.resumedAt = s.sched.Now()
	s.arm()
}

// Pause stops ticking and freezes elapsed time.
func (s *SessionTimer) Pause() {
	if !s.running {
		return
	}
	s.accumulated += s.sched.Now().Sub(s.resumedAt)
	s.running = false
	s.tick.cancel()
}

// Resume continues ticking after Pause.
func (s *SessionTimer) Resume() {
	if s.running || s.onTick == nil {
		return
	}
	s.running = true
	s.resumedAt = s.sched.Now()
	s.arm()
}

// Rearm replaces the tick callback and restarts the cadence without touching
// elapsed time. A paused timer picks up the new callback on Resume.
func (s *SessionTimer) Rearm(onTick func(elapsed time.Duration)) {
	if s.onTick == nil {
		return
	}
	s.onTick = onTick
	if !s.running {
		return
	}
	s.arm()
}

// Stop cancels ticking. Elapsed time is kept until the next Start.
func (s *SessionTimer) Stop() {
	s.Pause()
	s.onTick = nil
}

// Running reports whether the timer is ticking.
func (s *SessionTimer) Running() bool {
	return s.running
}

// Elapsed returns the session time, excluding paused spans.
func (s *SessionTimer) Elapsed() time.Duration {
	if !s.running {
		return s.accumulated
	}
	return s.accumulated + s.sched.Now().Sub(s.resumedAt)
}

func (s *SessionTimer) arm() {
	s.tick.arm(s.sched, s.interval, func() {
		s.arm()
		if s.onTick != nil {
			s.onTick(s.Elapsed())
		}
	})
}
