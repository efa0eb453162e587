package timers

import (
	"testing"
	"time"

	"github.com/verte-zerg/tuiear/internal/loop"
)

func TestRoundTimerRearmReplacesTimeout(t *testing.T) {
	sched := loop.NewManual(time.Unix(0, 0))
	rt := NewRoundTimer(sched)
	var fired []string
	rt.ArmTimeout(time.Second, func() { fired = append(fired, "old") })
	rt.ArmTimeout(2*time.Second, func() { fired = append(fired, "new") })

	sched.Advance(3 * time.Second)
	if len(fired) != 1 || fired[0] != "new" {
		t.Fatalf("expected only the replacement to fire, got %v", fired)
	}
	if rt.TimeoutPending() {
		t.Fatalf("expected no pending timeout after firing")
	}
}

func TestRoundTimerCancelDropsBothSlots(t *testing.T) {
	sched := loop.NewManual(time.Unix(0, 0))
	rt := NewRoundTimer(sched)
	fired := 0
	rt.ArmTimeout(time.Second, func() { fired++ })
	rt.ArmAdvance(time.Second, func() { fired++ })
	if !rt.TimeoutPending() || !rt.AdvancePending() {
		t.Fatalf("expected both slots pending")
	}
	rt.Cancel()
	sched.Advance(5 * time.Second)
	if fired != 0 {
		t.Fatalf("expected no callbacks, got %d", fired)
	}
}

// staleScheduler hands out timers whose Stop never succeeds, modelling a
// callback that was already queued when it was cancelled.
type staleScheduler struct {
	*loop.Manual
}

type noStop struct{}

func (noStop) Stop() bool { return false }

func (s staleScheduler) AfterFunc(d time.Duration, fn func()) loop.Timer {
	s.Manual.AfterFunc(d, fn)
	return noStop{}
}

func TestRoundTimerDropsStaleGeneration(t *testing.T) {
	sched := staleScheduler{loop.NewManual(time.Unix(0, 0))}
	rt := NewRoundTimer(sched)
	fired := 0
	rt.ArmTimeout(time.Second, func() { fired++ })
	rt.CancelTimeout()
	sched.Advance(2 * time.Second)
	if fired != 0 {
		t.Fatalf("stale callback ran %d times", fired)
	}
}

func TestSessionTimerTicksAndTracksElapsed(t *testing.T) {
	sched := loop.NewManual(time.Unix(0, 0))
	st := NewSessionTimer(sched, time.Second)
	var seen []time.Duration
	st.Start(func(elapsed time.Duration) { seen = append(seen, elapsed) })

	sched.Advance(3 * time.Second)
	if len(seen) != 3 {
		t.Fatalf("expected 3 ticks, got %d", len(seen))
	}
	if seen[2] != 3*time.Second {
		t.Fatalf("expected 3s elapsed on third tick, got %v", seen[2])
	}
}

func TestSessionTimerPauseExcludesPausedTime(t *testing.T) {
	sched := loop.NewManual(time.Unix(0, 0))
	st := NewSessionTimer(sched, time.Second)
	ticks := 0
	st.Start(func(time.Duration) { ticks++ })

	sched.Advance(2 * time.Second)
	st.Pause()
	sched.Advance(10 * time.Second)
	if ticks != 2 {
		t.Fatalf("expected no ticks while paused, got %d", ticks)
	}
	st.Resume()
	sched.Advance(time.Second)
	if got := st.Elapsed(); got != 3*time.Second {
		t.Fatalf("expected 3s elapsed, got %v", got)
	}
	st.Stop()
	sched.Advance(5 * time.Second)
	if ticks != 3 {
		t.Fatalf("expected ticking to stop, got %d ticks", ticks)
	}
}

func TestSessionTimerRearmKeepsElapsed(t *testing.T) {
	sched := loop.NewManual(time.Unix(0, 0))
	st := NewSessionTimer(sched, time.Second)
	old, fresh := 0, 0
	st.Start(func(time.Duration) { old++ })

	sched.Advance(1500 * time.Millisecond)
	st.Rearm(func(time.Duration) { fresh++ })
	sched.Advance(900 * time.Millisecond)
	if old != 1 || fresh != 0 {
		t.Fatalf("expected cadence restart, old=%d fresh=%d", old, fresh)
	}
	sched.Advance(100 * time.Millisecond)
	if fresh != 1 {
		t.Fatalf("expected new callback to tick once, got %d", fresh)
	}
	if got := st.Elapsed(); got != 2500*time.Millisecond {
		t.Fatalf("expected elapsed to carry over, got %v", got)
	}
}
