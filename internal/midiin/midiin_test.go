package midiin

import (
	"io"
	"log/slog"
	"testing"

	"gitlab.com/gomidi/midi/v2"

	"github.com/verte-zerg/tuiear/internal/model"
)

func newTestInput(notes *[]model.Note) *Input {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(nil, logger, func(n model.Note) { *notes = append(*notes, n) })
}

func TestHandleNoteOn(t *testing.T) {
	var notes []model.Note
	in := newTestInput(&notes)

	in.handle(midi.NoteOn(0, 60, 100))
	in.handle(midi.NoteOn(3, 69, 1))
	if len(notes) != 2 || notes[0] != 60 || notes[1] != 69 {
		t.Fatalf("unexpected notes %v", notes)
	}
}

func TestHandleIgnoresNoteOffAndZeroVelocity(t *testing.T) {
	var notes []model.Note
	in := newTestInput(&notes)

	in.handle(midi.NoteOn(0, 60, 0))
	in.handle(midi.NoteOff(0, 60))
	in.handle(midi.ControlChange(0, 64, 127))
	if len(notes) != 0 {
		t.Fatalf("expected no guesses, got %v", notes)
	}
}

func TestSelectPort(t *testing.T) {
	names := []string{"Midi Through:Midi Through Port-0 14:0", "Launchkey Mini:Launchkey Mini MIDI 1 20:0", "Digital Piano 24:0"}
	if got := SelectPort(names, ""); got != 1 {
		t.Fatalf("expected first non-virtual port, got %d", got)
	}
	if got := SelectPort(names, "piano"); got != 2 {
		t.Fatalf("expected case-insensitive match, got %d", got)
	}
	if got := SelectPort(names, "organ"); got != -1 {
		t.Fatalf("expected no match, got %d", got)
	}
	if got := SelectPort(names[:1], ""); got != -1 {
		t.Fatalf("expected virtual ports to be skipped, got %d", got)
	}
}
