// Package ui provides the Bubbletea terminal user interface for goodvibrations
package ui

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/goodvibrations/internal/capture"
	"github.com/linuxmatters/goodvibrations/internal/mains"
	"github.com/linuxmatters/goodvibrations/internal/missions"
	"github.com/linuxmatters/goodvibrations/internal/spectral"
	"github.com/linuxmatters/goodvibrations/internal/transcode"
)

var debugLog *os.File

func init() {
	debugLog, _ = os.OpenFile("goodvibrations-ui-debug.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

func log(format string, args ...interface{}) {
	if debugLog != nil {
		fmt.Fprintf(debugLog, format+"\n", args...)
	}
}

const (
	// tickInterval drives the meters and render refresh at roughly 30
	// frames per second. The peak-hold decay in spectral is tuned to
	// this rate.
	tickInterval = 33 * time.Millisecond

	// characteristicInterval is the classifier's sample cadence, four
	// ticks per second.
	characteristicInterval = 250 * time.Millisecond

	// gainStep is one arrow-key increment on the 0-100 control.
	gainStep = 5.0
)

// Config wires the record screen to the live capture chain.
type Config struct {
	Chain       *capture.Chain
	Hum         mains.Hum
	MaxDuration time.Duration
	CodecOrder  []transcode.Codec
	Saver       Saver
	Device      string // display name, empty for the system default
}

// Model is the Bubbletea model for the record screen
type Model struct {
	chain       *capture.Chain
	monitor     *spectral.Monitor
	hum         mains.Hum
	saver       Saver
	maxDuration time.Duration
	codecOrder  []transcode.Codec
	deviceName  string

	// Channel for events arriving from outside the update loop,
	// currently the session auto-stop.
	events chan tea.Msg

	status        Status
	err           error
	streamErr     error
	session       *capture.Session
	recordStart   time.Time
	takeSeq       int
	quitAfterSave bool

	// Per-tick measurement state, refreshed in order: spectrum sample,
	// level snapshot, band energies. The view renders whatever the
	// latest tick produced.
	spectrum  spectral.Spectrum
	level     spectral.LevelSnapshot
	bands     spectral.BandEnergy
	clipTicks int
	peakMax   float64

	completed map[missions.RuleID]bool
	saved     *RecordingSavedMsg

	// ticking reports whether a render tick is in flight. The chain
	// stops on the static summary and error screens.
	ticking bool

	// Spinner state
	spinnerIndex int

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a record screen model on an acquired chain
func NewModel(cfg Config) Model {
	return Model{
		chain:       cfg.Chain,
		monitor:     spectral.NewMonitor(),
		hum:         cfg.Hum,
		saver:       cfg.Saver,
		maxDuration: cfg.MaxDuration,
		codecOrder:  cfg.CodecOrder,
		deviceName:  cfg.Device,
		events:      make(chan tea.Msg, 16),
		spectrum:    make(spectral.Spectrum, cfg.Chain.Analyzer().Bins()),
		completed:   make(map[missions.RuleID]bool),
		ticking:     true,
	}
}

// Init starts the stream, the render tick, and the event pump
func (m Model) Init() tea.Cmd {
	m.chain.Resume()
	return tea.Batch(tickCmd(), waitForEvent(m.events))
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tickMsg:
		return m.handleTick()

	case characteristicTickMsg:
		// Stale ticks from a previous take carry an old sequence
		// number and must not re-arm.
		if msg.seq != m.takeSeq || m.status != StatusRecording {
			return m, nil
		}
		m.session.CaptureCharacteristic(spectral.Extract(m.spectrum))
		return m, characteristicTickCmd(m.takeSeq)

	case autoStopMsg:
		log("[DEBUG] auto-stop received, status=%d", m.status)
		if m.status == StatusRecording {
			model, cmd := m.stopRecording(false)
			return model, tea.Batch(cmd, waitForEvent(model.events))
		}
		return m, waitForEvent(m.events)

	case RecordingSavedMsg:
		return m.handleSaved(msg)
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.Width == 0 {
		return "Initializing..."
	}

	switch m.status {
	case StatusError:
		return renderError(m)
	case StatusSaving:
		return renderSaving(m)
	case StatusDone:
		return renderSummary(m)
	default:
		return renderLiveView(m)
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.status == StatusRecording {
			model, cmd := m.stopRecording(true)
			return model, cmd
		}
		if m.status == StatusSaving {
			m.quitAfterSave = true
			return m, nil
		}
		return m, tea.Quit

	case "r", " ":
		switch m.status {
		case StatusMonitoring, StatusDone:
			return m.startRecording()
		case StatusRecording:
			model, cmd := m.stopRecording(false)
			return model, cmd
		}

	case "up":
		m.chain.SetGain(clampGain(m.chain.GainControl() + gainStep))
	case "down":
		m.chain.SetGain(clampGain(m.chain.GainControl() - gainStep))
	}

	return m, nil
}

func clampGain(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > capture.GainControlMax {
		return capture.GainControlMax
	}
	return v
}

// handleTick refreshes the meters. The order is fixed: sample the
// spectrum, derive the level snapshot, derive the band energies. Render
// happens afterwards from this tick's values.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	// The summary and error screens are static. Stop rescheduling;
	// startRecording re-arms the chain.
	if m.status == StatusDone || m.status == StatusError {
		m.ticking = false
		return m, nil
	}

	m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)

	if m.status != StatusMonitoring && m.status != StatusRecording {
		return m, tickCmd()
	}

	if err := m.chain.Err(); err != nil {
		return m.handleStreamError(err)
	}

	m.chain.Analyzer().Sample(m.spectrum)
	m.level = m.monitor.Sample(m.spectrum)
	m.bands = spectral.Bands(m.spectrum)

	// Feed the held peak back so the preamp backs off before the
	// limiter has to work.
	m.chain.ObservePeak(m.level.PeakLevel)

	if m.status == StatusRecording {
		if m.level.Clipping {
			m.clipTicks++
		}
		if m.level.PeakLevel > m.peakMax {
			m.peakMax = m.level.PeakLevel
		}
	}

	return m, tickCmd()
}

// handleStreamError deals with the capture stream dying under us. A
// recording in flight is salvaged through the normal save path.
func (m Model) handleStreamError(err error) (tea.Model, tea.Cmd) {
	log("[DEBUG] stream error: %v", err)
	m.streamErr = err
	if m.status == StatusRecording {
		model, cmd := m.stopRecording(false)
		return model, cmd
	}
	m.status = StatusError
	m.err = err
	return m, nil
}

func (m Model) startRecording() (tea.Model, tea.Cmd) {
	events := m.events
	session, err := m.chain.StartRecording(capture.SessionConfig{
		MaxDuration: m.maxDuration,
		CodecOrder:  m.codecOrder,
		OnAutoStop:  func() { events <- autoStopMsg{} },
	})
	if err != nil {
		m.status = StatusError
		m.err = err
		return m, nil
	}

	log("[DEBUG] recording started, codec=%s", session.Codec())
	m.session = session
	m.status = StatusRecording
	m.recordStart = time.Now()
	m.takeSeq++
	m.monitor.Reset()
	m.clipTicks = 0
	m.peakMax = 0
	m.saved = nil

	cmds := []tea.Cmd{characteristicTickCmd(m.takeSeq)}
	if !m.ticking {
		m.ticking = true
		cmds = append(cmds, tickCmd())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) stopRecording(quitAfter bool) (Model, tea.Cmd) {
	log("[DEBUG] recording stopping, clipTicks=%d", m.clipTicks)
	m.status = StatusSaving
	m.quitAfterSave = quitAfter

	completed := make(map[missions.RuleID]bool, len(m.completed))
	for id := range m.completed {
		completed[id] = true
	}

	return m, saveCmd(m.session, completed, m.saver, m.clipTicks, m.peakMax)
}

func (m Model) handleSaved(msg RecordingSavedMsg) (tea.Model, tea.Cmd) {
	log("[DEBUG] recording saved, path=%q err=%v", msg.Files.WavPath, msg.Err)
	m.session = nil
	m.saved = &msg

	// The badge was earned regardless of how the export went.
	if msg.Outcome.Badge != nil {
		m.completed[msg.Outcome.Badge.ID] = true
	}

	if msg.Err != nil {
		m.status = StatusError
		m.err = msg.Err
	} else {
		m.status = StatusDone
	}

	if m.quitAfterSave {
		return m, tea.Quit
	}
	return m, nil
}

// saveCmd finishes the session off the update loop: classify the take,
// then hand the outcome to the saver.
func saveCmd(session *capture.Session, completed map[missions.RuleID]bool, saver Saver, clipTicks int, peak float64) tea.Cmd {
	return func() tea.Msg {
		rec := session.Finish()

		outcome := Outcome{
			Recording: rec,
			ClipTicks: clipTicks,
			PeakLevel: peak,
		}
		if rule, ok := missions.Classify(rec.Characteristics, completed); ok {
			outcome.Badge = &rule
		}

		msg := RecordingSavedMsg{Outcome: outcome}
		if saver != nil {
			msg.Files, msg.Err = saver(outcome)
		}
		return msg
	}
}

// tickCmd returns a command that sends the next render tick
func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// characteristicTickCmd returns a command that sends the next
// classifier sample tick for the given take.
func characteristicTickCmd(seq int) tea.Cmd {
	return tea.Tick(characteristicInterval, func(time.Time) tea.Msg {
		return characteristicTickMsg{seq: seq}
	})
}

// waitForEvent creates a command that waits for out-of-loop events
func waitForEvent(events chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}
