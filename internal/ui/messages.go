package ui

import (
	"time"

	"github.com/linuxmatters/goodvibrations/internal/capture"
	"github.com/linuxmatters/goodvibrations/internal/missions"
)

// Status represents the record screen's lifecycle state
type Status int

const (
	StatusMonitoring Status = iota // live meters, no session
	StatusRecording                // session open, capture tap feeding it
	StatusSaving                   // session stopped, export in flight
	StatusDone                     // summary screen
	StatusError
)

// Outcome bundles everything a finished session produced.
type Outcome struct {
	Recording capture.Recording
	Badge     *missions.Rule // nil when no badge was earned
	ClipTicks int
	PeakLevel float64
}

// SavedFiles points at the artifacts the saver wrote.
type SavedFiles struct {
	WavPath    string
	ReportPath string // empty when session logging is off
}

// Saver persists a finished session outside the UI loop.
type Saver func(Outcome) (SavedFiles, error)

// RecordingSavedMsg signals the save command has finished
type RecordingSavedMsg struct {
	Outcome Outcome
	Files   SavedFiles
	Err     error
}

// autoStopMsg is delivered through the event channel when the session
// clock runs out before a manual stop.
type autoStopMsg struct{}

// tickMsg drives the meters and the render loop
type tickMsg time.Time

// characteristicTickMsg drives the classifier's sample cadence while
// recording. The sequence number ties the tick to its take so a stale
// tick from an earlier take cannot feed the current session.
type characteristicTickMsg struct {
	seq int
}
