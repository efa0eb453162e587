// Package game runs practice sessions: it owns the active mode, the current
// round and the timers, and publishes every transition to subscribers.
//
// An Orchestrator is not safe for concurrent use. Drive it from the goroutine
// that runs its Scheduler; see InputAdapter for feeding it from other goroutines.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/verte-zerg/tuiear/internal/generator"
	"github.com/verte-zerg/tuiear/internal/loop"
	"github.com/verte-zerg/tuiear/internal/model"
	"github.com/verte-zerg/tuiear/internal/modes"
	"github.com/verte-zerg/tuiear/internal/notify"
	"github.com/verte-zerg/tuiear/internal/timers"
)

// Defaults used until ApplySettings says otherwise.
const (
	DefaultTimeout      = 5 * time.Second
	DefaultAutoAdvance  = 1500 * time.Millisecond
	DefaultNoteDuration = time.Second
)

// Options configures New.
type Options struct {
	Registry *modes.Registry
	// Scheduler is required. Use a *loop.Loop in production and a *loop.Manual in tests.
	Scheduler    loop.Scheduler
	Logger       *slog.Logger
	Source       rand.Source
	TickInterval time.Duration
	// Weak and WeakFactor bias generation toward the given pitch classes.
	Weak       []model.PitchClass
	WeakFactor float64
}

// Settings is everything ApplySettings reconfigures in one step.
type Settings struct {
	Mode         modes.ID
	ModeSettings modes.Settings // nil selects the mode defaults
	Filter       model.NoteFilter
	NoteDuration time.Duration
	// Timeout bounds each round; zero disables the round timeout.
	Timeout       time.Duration
	AutoAdvance   time.Duration
	FeedbackDelay time.Duration

	OnTimerUpdate        func(round time.Duration)
	OnSessionTimerUpdate func(SessionTime)
}

// Orchestrator is the session and round state machine.
type Orchestrator struct {
	registry *modes.Registry
	sched    loop.Scheduler
	log      *slog.Logger
	gen      *generator.Generator

	session   model.SessionState
	round     model.RoundState
	rc        model.RoundContext
	hasRound  bool
	startedAt time.Time

	modeID       modes.ID
	modeSettings modes.Settings
	state        modes.State
	filter       model.NoteFilter

	noteDuration  time.Duration
	timeout       time.Duration
	autoAdvance   time.Duration
	feedbackDelay time.Duration

	onTimerUpdate        func(time.Duration)
	onSessionTimerUpdate func(SessionTime)

	rounds *timers.RoundTimer
	clock  *timers.SessionTimer
	// epoch is bumped whenever armed callbacks must be invalidated.
	epoch uint64

	transitions notify.Topic[StateChange]
	unwire      func()

	stateChange     notify.Topic[StateChange]
	roundStart      notify.Topic[model.RoundContext]
	roundEnd        notify.Topic[RoundEnd]
	sessionComplete notify.Topic[SessionSummary]
}

// New returns an idle orchestrator. A nil registry uses modes.Default.
func New(opts Options) *Orchestrator {
	if opts.Registry == nil {
		opts.Registry = modes.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	gen := generator.NewSeeded()
	if opts.Source != nil {
		gen = generator.New(opts.Source)
	}
	o := &Orchestrator{
		registry:     opts.Registry,
		sched:        opts.Scheduler,
		log:          opts.Logger,
		gen:          gen,
		filter:       model.DefaultNoteFilter(),
		noteDuration: DefaultNoteDuration,
		timeout:      DefaultTimeout,
		autoAdvance:  DefaultAutoAdvance,
		rounds:       timers.NewRoundTimer(opts.Scheduler),
		clock:        timers.NewSessionTimer(opts.Scheduler, opts.TickInterval),
	}
	o.SetWeakNotes(opts.Weak, opts.WeakFactor)
	o.wire()
	return o
}

// SetWeakNotes biases future stimuli toward weak pitch classes. An empty list
// restores uniform selection. It takes effect from the next generated round.
func (o *Orchestrator) SetWeakNotes(weak []model.PitchClass, factor float64) {
	if len(weak) == 0 {
		o.gen.SetFocus(nil, 0)
		return
	}
	set := make(map[model.PitchClass]struct{}, len(weak))
	for _, pc := range weak {
		set[pc] = struct{}{}
	}
	o.gen.SetFocus(set, factor)
}

// OnStateChange subscribes to session and round transitions.
func (o *Orchestrator) OnStateChange(fn func(StateChange)) (unsubscribe func()) {
	return o.stateChange.Subscribe(fn)
}

// OnRoundStart subscribes to new rounds.
func (o *Orchestrator) OnRoundStart(fn func(model.RoundContext)) (unsubscribe func()) {
	return o.roundStart.Subscribe(fn)
}

// OnRoundEnd subscribes to closed rounds.
func (o *Orchestrator) OnRoundEnd(fn func(RoundEnd)) (unsubscribe func()) {
	return o.roundEnd.Subscribe(fn)
}

// OnSessionComplete subscribes to finished and stopped sessions.
func (o *Orchestrator) OnSessionComplete(fn func(SessionSummary)) (unsubscribe func()) {
	return o.sessionComplete.Subscribe(fn)
}

func (o *Orchestrator) SessionState() model.SessionState { return o.session }
func (o *Orchestrator) RoundState() model.RoundState     { return o.round }
func (o *Orchestrator) Mode() modes.State                { return o.state }
func (o *Orchestrator) Filter() model.NoteFilter         { return o.filter.Clone() }
func (o *Orchestrator) NoteDuration() time.Duration      { return o.noteDuration }

// Round returns the current round and whether one has started.
func (o *Orchestrator) Round() (model.RoundContext, bool) {
	return o.rc, o.hasRound
}

// Elapsed returns the session time, excluding paused spans.
func (o *Orchestrator) Elapsed() time.Duration {
	return o.clock.Elapsed()
}

// wire connects the internal transition topic to the public one.
func (o *Orchestrator) wire() {
	if o.unwire != nil {
		o.unwire()
	}
	o.unwire = o.transitions.Subscribe(func(c StateChange) {
		o.stateChange.Publish(c)
	})
}

func (o *Orchestrator) unwireAll() {
	if o.unwire != nil {
		o.unwire()
		o.unwire = nil
	}
}

// guard binds fn to the current epoch.
func (o *Orchestrator) guard(name string, fn func()) func() {
	epoch := o.epoch
	return func() {
		if epoch != o.epoch {
			o.log.Debug("dropping stale callback", "callback", name, "epoch", epoch, "current", o.epoch)
			return
		}
		fn()
	}
}

func (o *Orchestrator) invalidate() {
	o.epoch++
	o.rounds.Cancel()
}

func (o *Orchestrator) emit(reveal *model.Stimulus) {
	feedback := ""
	if o.state != nil {
		feedback = o.state.FeedbackMessage()
	}
	o.log.Debug("transition", "session", o.session, "round", o.round, "epoch", o.epoch)
	o.transitions.Publish(StateChange{
		Session:  o.session,
		Round:    o.round,
		Feedback: feedback,
		Reveal:   reveal,
		At:       o.sched.Now(),
	})
}

func (o *Orchestrator) setRound(rs model.RoundState, reveal *model.Stimulus) {
	o.round = rs
	o.emit(reveal)
}

// SetGameMode replaces the active mode with a fresh one built from the registry.
// On error the previous mode stays active.
func (o *Orchestrator) SetGameMode(id modes.ID, settings modes.Settings) error {
	st, err := o.build(id, settings)
	if err != nil {
		return err
	}
	o.modeID, o.modeSettings = id, settings
	o.swapState(st)
	return nil
}

// SetNoteFilter replaces the filter used for the next stimulus.
func (o *Orchestrator) SetNoteFilter(filter model.NoteFilter) error {
	if err := filter.Validate(); err != nil {
		return err
	}
	o.filter = filter.Clone()
	return nil
}

func (o *Orchestrator) build(id modes.ID, settings modes.Settings) (modes.State, error) {
	d, err := o.registry.Get(id)
	if err != nil {
		return nil, err
	}
	st, err := d.Build(settings, o.gen)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// swapState installs st, carrying the session clock and the open round over.
func (o *Orchestrator) swapState(st modes.State) {
	o.state = st
	if o.session != model.SessionPlaying && o.session != model.SessionPaused {
		return
	}
	st.Tick(o.clock.Elapsed())
	if o.hasRound {
		st.OnStartNewRound(o.rc)
	}
}

// ApplySettings reconfigures the orchestrator in place. Everything is
// validated before anything changes. Armed timers are cancelled and re-armed
// from the new configuration; the session and round states are kept.
func (o *Orchestrator) ApplySettings(s Settings) error {
	if err := s.Filter.Validate(); err != nil {
		return err
	}
	if s.Timeout < 0 || s.AutoAdvance < 0 || s.FeedbackDelay < 0 || s.NoteDuration < 0 {
		return fmt.Errorf("%w: durations must not be negative", modes.ErrInvalidSettings)
	}
	st, err := o.build(s.Mode, s.ModeSettings)
	if err != nil {
		return err
	}

	o.invalidate()
	o.wire()

	o.modeID, o.modeSettings = s.Mode, s.ModeSettings
	o.filter = s.Filter.Clone()
	o.noteDuration = s.NoteDuration
	o.timeout = s.Timeout
	o.autoAdvance = s.AutoAdvance
	o.feedbackDelay = s.FeedbackDelay
	o.onTimerUpdate = s.OnTimerUpdate
	o.onSessionTimerUpdate = s.OnSessionTimerUpdate
	o.swapState(st)

	o.log.Debug("settings applied", "mode", s.Mode, "timeout", s.Timeout, "auto_advance", s.AutoAdvance, "epoch", o.epoch)

	if o.session != model.SessionPlaying && o.session != model.SessionPaused {
		return nil
	}
	o.clock.Rearm(o.tickCallback())
	if o.session == model.SessionPlaying {
		o.rearmRound()
	}
	return nil
}

// rearmRound restores the round timer that matches the current round state.
func (o *Orchestrator) rearmRound() {
	if !o.hasRound {
		return
	}
	switch o.round {
	case model.RoundWaitingInput:
		o.armTimeout()
	case model.RoundTimeoutIntermission:
		o.rounds.ArmAdvance(o.autoAdvance, o.guard("auto advance", o.onAdvance))
	case model.RoundCorrectFeedback:
		o.rounds.ArmAdvance(o.feedbackDelay, o.guard("next round", o.onAdvance))
	case model.RoundIncorrectFeedback:
		o.rounds.ArmAdvance(o.feedbackDelay, o.guard("retry", o.onRetry))
	}
}

func (o *Orchestrator) tickCallback() func(time.Duration) {
	epoch := o.epoch
	return func(elapsed time.Duration) {
		if epoch != o.epoch {
			return
		}
		o.onTick(elapsed)
	}
}

// Start begins a session with a fresh mode state and opens the first round.
func (o *Orchestrator) Start() error {
	if o.session != model.SessionIdle {
		return &StateError{Op: "start", State: o.session}
	}
	if o.modeID == "" {
		return ErrNotConfigured
	}
	st, err := o.build(o.modeID, o.modeSettings)
	if err != nil {
		return err
	}
	o.invalidate()
	o.wire()
	o.state = st
	o.rc = model.RoundContext{}
	o.hasRound = false
	o.round = model.RoundWaitingInput
	o.session = model.SessionPlaying
	o.startedAt = o.sched.Now()
	o.state.Tick(0)
	o.clock.Start(o.tickCallback())
	if err := o.BeginNewRound(); err != nil {
		o.invalidate()
		o.clock.Stop()
		o.session = model.SessionIdle
		return err
	}
	o.log.Info("session started", "mode", o.modeID)
	return nil
}

// Stop abandons the session, cancels all timers and returns to idle. It is
// idempotent.
func (o *Orchestrator) Stop() {
	if o.session == model.SessionIdle {
		o.invalidate()
		o.unwireAll()
		return
	}
	wasRunning := o.session == model.SessionPlaying || o.session == model.SessionPaused
	o.invalidate()
	o.clock.Stop()
	o.session = model.SessionIdle
	o.hasRound = false
	o.emit(nil)
	o.unwireAll()
	if wasRunning && o.state != nil {
		o.publishSummary()
	}
	o.log.Info("session stopped", "mode", o.modeID)
}

// Pause freezes the session clock and the round timers.
func (o *Orchestrator) Pause() error {
	if o.session != model.SessionPlaying {
		return &StateError{Op: "pause", State: o.session}
	}
	o.invalidate()
	o.clock.Pause()
	o.session = model.SessionPaused
	o.emit(nil)
	return nil
}

// Resume continues a paused session. The round phase that was interrupted is
// re-armed from the start of its delay.
func (o *Orchestrator) Resume() error {
	if o.session != model.SessionPaused {
		return &StateError{Op: "resume", State: o.session}
	}
	o.session = model.SessionPlaying
	o.clock.Rearm(o.tickCallback())
	o.clock.Resume()
	o.emit(nil)
	o.rearmRound()
	return nil
}

// BeginNewRound generates a stimulus, opens a new round and arms its timeout.
func (o *Orchestrator) BeginNewRound() error {
	if o.session != model.SessionPlaying {
		return &StateError{Op: "begin round", State: o.session}
	}
	o.rounds.Cancel()
	stim, err := o.state.GenerateNote(o.filter)
	if err != nil {
		return fmt.Errorf("failed to generate stimulus: %w", err)
	}
	o.rc = model.RoundContext{
		Number:    o.rc.Number + 1,
		Stimulus:  stim,
		StartedAt: o.sched.Now(),
	}
	o.hasRound = true
	o.state.OnStartNewRound(o.rc)
	o.armTimeout()
	o.round = model.RoundWaitingInput
	o.roundStart.Publish(o.rc)
	o.emit(nil)
	return nil
}

func (o *Orchestrator) armTimeout() {
	if o.timeout <= 0 {
		return
	}
	o.rounds.ArmTimeout(o.timeout, o.guard("round timeout", o.onTimeout))
}

// SubmitGuess scores note against the current stimulus.
func (o *Orchestrator) SubmitGuess(note model.Note) (GuessResult, error) {
	if o.session != model.SessionPlaying {
		return GuessResult{}, &StateError{Op: "submit guess", State: o.session}
	}
	if !o.hasRound || o.round != model.RoundWaitingInput {
		return GuessResult{}, ErrRoundClosed
	}
	o.rounds.CancelTimeout()

	o.state.Tick(o.clock.Elapsed())
	if o.state.IsCompleted() {
		o.complete()
		return GuessResult{Completed: true, Stimulus: o.rc.Stimulus}, nil
	}

	o.rc.Attempts++
	o.rc.AnsweredAt = o.sched.Now()
	rc := o.rc

	correct := rc.Stimulus.Matches(note)
	var res modes.Result
	if correct {
		res = o.state.HandleCorrectGuess(rc)
		o.roundEnd.Publish(RoundEnd{Round: rc, Outcome: RoundCorrect})
		o.setRound(model.RoundCorrectFeedback, nil)
	} else {
		res = o.state.HandleIncorrectGuess(rc)
		o.setRound(model.RoundIncorrectFeedback, nil)
	}
	out := GuessResult{Correct: correct, Feedback: res.Feedback, Stimulus: rc.Stimulus}

	if res.GameCompleted || o.state.IsGameComplete(rc) {
		o.complete()
		out.Completed = true
		return out, nil
	}
	if o.session != model.SessionPlaying {
		// A subscriber stopped or paused the session.
		return out, nil
	}
	switch {
	case res.ShouldAdvance && o.feedbackDelay > 0:
		o.rounds.ArmAdvance(o.feedbackDelay, o.guard("next round", o.onAdvance))
		out.Advanced = true
	case res.ShouldAdvance:
		if err := o.BeginNewRound(); err != nil {
			return out, err
		}
		out.Advanced = true
	case o.feedbackDelay > 0:
		o.rounds.ArmAdvance(o.feedbackDelay, o.guard("retry", o.onRetry))
	default:
		o.onRetry()
	}
	return out, nil
}

// onRetry reopens the same round after a wrong guess with a fresh timeout.
func (o *Orchestrator) onRetry() {
	o.safely("retry", func() {
		if o.session != model.SessionPlaying || !o.hasRound {
			return
		}
		o.armTimeout()
		o.setRound(model.RoundWaitingInput, nil)
	})
}

func (o *Orchestrator) onTimeout() {
	o.safely("round timeout", func() {
		if o.session != model.SessionPlaying || o.round != model.RoundWaitingInput {
			return
		}
		rc := o.rc
		o.state.OnRoundTimeout(rc)
		o.roundEnd.Publish(RoundEnd{Round: rc, Outcome: RoundTimedOut})
		reveal := rc.Stimulus
		o.setRound(model.RoundTimeoutIntermission, &reveal)
		if o.state.IsGameComplete(rc) || o.state.IsCompleted() {
			o.complete()
			return
		}
		if o.session != model.SessionPlaying {
			return
		}
		o.rounds.ArmAdvance(o.autoAdvance, o.guard("auto advance", o.onAdvance))
	})
}

func (o *Orchestrator) onAdvance() {
	o.safely("auto advance", func() {
		if o.session != model.SessionPlaying {
			return
		}
		if err := o.BeginNewRound(); err != nil {
			o.log.Error("failed to begin round", "err", err)
			o.complete()
		}
	})
}

func (o *Orchestrator) onTick(elapsed time.Duration) {
	if o.session != model.SessionPlaying {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("session tick failed", "panic", r)
		}
	}()
	o.state.Tick(elapsed)
	if o.onTimerUpdate != nil && o.hasRound {
		o.onTimerUpdate(o.sched.Now().Sub(o.rc.StartedAt))
	}
	if o.onSessionTimerUpdate != nil {
		limit := o.state.SessionDuration()
		st := SessionTime{Elapsed: elapsed, Limit: limit}
		if limit > 0 && limit > elapsed {
			st.Remaining = limit - elapsed
		}
		o.onSessionTimerUpdate(st)
	}
	if o.state.IsCompleted() || o.state.IsGameComplete(o.rc) {
		o.complete()
	}
}

// safely runs a timer callback. A panic is logged and the session moves on to
// a new round, or completes when that is not possible.
func (o *Orchestrator) safely(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("timer callback failed", "callback", name, "panic", r)
			o.recoverRound()
		}
	}()
	fn()
}

func (o *Orchestrator) recoverRound() {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("failed to recover round", "panic", r)
			o.invalidate()
		}
	}()
	if o.session != model.SessionPlaying {
		return
	}
	if o.hasRound {
		o.roundEnd.Publish(RoundEnd{Round: o.rc, Outcome: RoundSkipped})
	}
	if err := o.BeginNewRound(); err != nil {
		o.log.Error("failed to begin round", "err", err)
		o.complete()
	}
}

// complete ends the session and publishes its summary.
func (o *Orchestrator) complete() {
	if o.session == model.SessionCompleted || o.session == model.SessionIdle {
		return
	}
	o.invalidate()
	o.state.Tick(o.clock.Elapsed())
	o.clock.Pause()
	o.session = model.SessionCompleted
	o.emit(nil)
	o.log.Info("session completed", "mode", o.modeID, "elapsed", o.clock.Elapsed())
	o.publishSummary()
}

func (o *Orchestrator) publishSummary() {
	o.sessionComplete.Publish(SessionSummary{
		Report:    o.state.Report(),
		StartedAt: o.startedAt,
		EndedAt:   o.sched.Now(),
	})
}
