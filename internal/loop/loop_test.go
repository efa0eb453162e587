package loop

import (
	"context"
	"testing"
	"time"
)

func TestManualFiresInDeadlineOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var order []string
	m.AfterFunc(300*time.Millisecond, func() { order = append(order, "c") })
	m.AfterFunc(100*time.Millisecond, func() { order = append(order, "a") })
	m.AfterFunc(200*time.Millisecond, func() { order = append(order, "b") })

	m.Advance(250 * time.Millisecond)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("unexpected order after 250ms: %v", order)
	}
	m.Advance(50 * time.Millisecond)
	if len(order) != 3 || order[2] != "c" {
		t.Fatalf("unexpected order after 300ms: %v", order)
	}
	if got := m.Now().Sub(time.Unix(0, 0)); got != 300*time.Millisecond {
		t.Fatalf("expected clock at 300ms, got %v", got)
	}
}

func TestManualStopPreventsCallback(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	fired := false
	timer := m.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Fatalf("expected stop to report pending timer")
	}
	if timer.Stop() {
		t.Fatalf("expected second stop to report false")
	}
	m.Advance(2 * time.Second)
	if fired {
		t.Fatalf("stopped timer fired")
	}
}

func TestManualChainedCallbacksWithinAdvance(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		m.AfterFunc(time.Second, tick)
	}
	m.AfterFunc(time.Second, tick)
	m.Advance(5 * time.Second)
	if ticks != 5 {
		t.Fatalf("expected 5 ticks, got %d", ticks)
	}
	if m.Pending() != 1 {
		t.Fatalf("expected one pending tick, got %d", m.Pending())
	}
}

func TestLoopRunsPostedTasksSequentially(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(cancel)

	var seen []int
	for i := 0; i < 10; i++ {
		i := i
		l.Post(func() { seen = append(seen, i) })
	}
	if !l.Do(func() {}) {
		t.Fatalf("expected loop to be running")
	}
	if len(seen) != 10 {
		t.Fatalf("expected 10 tasks, got %d", len(seen))
	}
	for i, v := range seen {
		if v != i {
			t.Fatalf("tasks ran out of order: %v", seen)
		}
	}
}

func TestLoopAfterFuncPostsOntoLoop(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(cancel)

	done := make(chan struct{})
	l.AfterFunc(5*time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer callback never ran")
	}
}

func TestLoopPostAfterStop(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(finished)
	}()
	cancel()
	<-finished
	if l.Post(func() {}) {
		t.Fatalf("expected post to fail after stop")
	}
}
