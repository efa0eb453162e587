// Package model defines shared data structures.
package model

import "time"

// Config defines practice settings shared by every mode.
type Config struct {
	Mode          string
	Timeout       time.Duration
	AutoAdvance   time.Duration
	NoteDuration  time.Duration
	FeedbackDelay time.Duration
	Filter        NoteFilter
	FocusWeak     bool
	WeakTop       int
	WeakFactor    float64
	WeakWindow    int
	Sound         bool
	MIDIPort      string
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Mode        string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// SessionRecord captures a completed practice session.
type SessionRecord struct {
	UUID          string
	StartedAt     time.Time
	EndedAt       time.Time
	Mode          string
	Outcome       string
	Rounds        int
	Correct       int
	Incorrect     int
	Timeouts      int
	BestStreak    int
	FinalHealth   float64
	TargetReached bool
	DurationMs    int64
}

// NoteStats stores per-pitch-class stats for a session.
type NoteStats struct {
	Note         string
	Correct      int
	Incorrect    int
	Timeouts     int
	LatencySumMs int64
	LatencyCount int64
}

// NoteAggregate aggregates note stats across sessions.
type NoteAggregate struct {
	Note         string
	Correct      int
	Incorrect    int
	Timeouts     int
	LatencySumMs int64
	LatencyCount int64
}

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID  int64
	EndedAt    time.Time
	Mode       string
	Outcome    string
	Correct    int
	Incorrect  int
	Timeouts   int
	BestStreak int
	DurationMs int64
}
