// Package midiin feeds note-on events from a MIDI input port to a callback.
//
// The driver is passed in by the caller; cmd/tuiear uses rtmididrv.
package midiin

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/verte-zerg/tuiear/internal/model"
)

// ErrNoPort is returned by Open when no usable input port exists.
var ErrNoPort = errors.New("no MIDI input port")

// Virtual and system ports skipped when picking a port automatically.
var excludedPorts = []string{"Midi Through", "Through Port", "Dummy"}

// Driver lists the available input ports.
type Driver interface {
	Ins() ([]drivers.In, error)
}

// Input listens on one MIDI port and reports note-on events. The callback
// runs on the driver's goroutine.
type Input struct {
	drv    Driver
	log    *slog.Logger
	onNote func(model.Note)

	mu   sync.Mutex
	port drivers.In
	stop func()
	name string
}

// New returns an Input reading from drv. Call Open to start listening.
func New(drv Driver, logger *slog.Logger, onNote func(model.Note)) *Input {
	if logger == nil {
		logger = slog.Default()
	}
	return &Input{drv: drv, log: logger, onNote: onNote}
}

// Ports returns the names of the available input ports.
func (in *Input) Ports() ([]string, error) {
	ins, err := in.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("failed to list MIDI inputs: %w", err)
	}
	names := make([]string, 0, len(ins))
	for _, p := range ins {
		names = append(names, p.String())
	}
	return names, nil
}

// Open starts listening on the first port whose name contains pattern
// (case-insensitive). An empty pattern picks the first non-virtual port.
func (in *Input) Open(pattern string) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.closeLocked()

	ins, err := in.drv.Ins()
	if err != nil {
		return fmt.Errorf("failed to list MIDI inputs: %w", err)
	}
	names := make([]string, len(ins))
	for i, p := range ins {
		names[i] = p.String()
	}
	idx := SelectPort(names, pattern)
	if idx < 0 {
		if pattern == "" {
			return ErrNoPort
		}
		return fmt.Errorf("%w matching %q", ErrNoPort, pattern)
	}
	port := ins[idx]
	if err := port.Open(); err != nil {
		return fmt.Errorf("failed to open MIDI input %q: %w", names[idx], err)
	}
	stop, err := midi.ListenTo(port, func(msg midi.Message, _ int32) {
		in.handle(msg)
	}, midi.HandleError(func(listenErr error) {
		in.log.Warn("midi listener error", "port", names[idx], "err", listenErr)
	}))
	if err != nil {
		_ = port.Close()
		return fmt.Errorf("failed to listen on MIDI input %q: %w", names[idx], err)
	}
	in.port = port
	in.stop = stop
	in.name = names[idx]
	in.log.Info("midi input connected", "port", in.name)
	return nil
}

// Name returns the connected port name, or "".
func (in *Input) Name() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.name
}

// Close stops listening. It is safe to call more than once.
func (in *Input) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.closeLocked()
}

func (in *Input) closeLocked() error {
	if in.stop != nil {
		in.stop()
		in.stop = nil
	}
	var err error
	if in.port != nil {
		err = in.port.Close()
		in.port = nil
		in.name = ""
	}
	return err
}

func (in *Input) handle(msg midi.Message) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		in.log.Debug("midi note on", "ch", ch, "key", key, "vel", vel)
		if in.onNote != nil {
			in.onNote(model.Note(key))
		}
	case msg.GetNoteEnd(&ch, &key):
		in.log.Debug("midi note off", "ch", ch, "key", key)
	default:
		in.log.Debug("unhandled midi message", "msg", msg.String())
	}
}

// SelectPort returns the index of the port to open, or -1.
func SelectPort(names []string, pattern string) int {
	for i, name := range names {
		if pattern != "" {
			if containsFold(name, pattern) {
				return i
			}
			continue
		}
		if !excluded(name) {
			return i
		}
	}
	return -1
}

func excluded(name string) bool {
	for _, p := range excludedPorts {
		if containsFold(name, p) {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
