package audio

import (
	"math"
	"testing"
	"time"

	"github.com/verte-zerg/tuiear/internal/model"
)

func drain(t *testing.T, s interface {
	Stream([][2]float64) (int, bool)
}) (count int, peak float64) {
	t.Helper()
	buf := make([][2]float64, 512)
	for i := 0; i < 10000; i++ {
		n, ok := s.Stream(buf)
		for _, smp := range buf[:n] {
			if a := math.Abs(smp[0]); a > peak {
				peak = a
			}
		}
		count += n
		if !ok {
			return count, peak
		}
	}
	t.Fatalf("streamer did not drain")
	return 0, 0
}

func TestRenderLength(t *testing.T) {
	s := model.Stimulus{Kind: model.KindNote, Root: 69, Notes: []model.Note{69}}
	count, peak := drain(t, Render(s, 250*time.Millisecond))
	if want := SampleRate.N(250 * time.Millisecond); count != want {
		t.Fatalf("expected %d samples, got %d", want, count)
	}
	if peak < 0.5 || peak > 1 {
		t.Fatalf("unexpected peak %f", peak)
	}
}

func TestRenderChordStaysInRange(t *testing.T) {
	root := model.NewNote(0, 4)
	s := model.Stimulus{
		Kind:    model.KindChord,
		Root:    root,
		Quality: model.ChordMajor,
		Notes:   []model.Note{root, root + 4, root + 7},
	}
	_, peak := drain(t, Render(s, 200*time.Millisecond))
	if peak > 1 {
		t.Fatalf("chord clipped: peak %f", peak)
	}
	if peak == 0 {
		t.Fatalf("chord is silent")
	}
}

func TestEnvelope(t *testing.T) {
	if got := envelope(0, 100, 10); got != 0 {
		t.Fatalf("expected silent start, got %f", got)
	}
	if got := envelope(50, 100, 10); got != 1 {
		t.Fatalf("expected full level mid-tone, got %f", got)
	}
	if got := envelope(95, 100, 10); got != 0.5 {
		t.Fatalf("expected half level near the end, got %f", got)
	}
}
