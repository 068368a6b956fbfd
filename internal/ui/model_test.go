package ui

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/goodvibrations/internal/capture"
	"github.com/linuxmatters/goodvibrations/internal/mains"
	"github.com/linuxmatters/goodvibrations/internal/missions"
	"github.com/linuxmatters/goodvibrations/internal/spectral"
	"github.com/linuxmatters/goodvibrations/internal/transcode"
)

// scriptedSource plays fixed frames, then blocks until stopped so the
// chain reader stays healthy for the rest of the test.
type scriptedSource struct {
	rate   int
	frames [][]float32

	mu   sync.Mutex
	next int

	drained   chan struct{}
	stopped   chan struct{}
	drainOnce sync.Once
	stopOnce  sync.Once
}

func newScriptedSource(rate int, frames [][]float32) *scriptedSource {
	return &scriptedSource{
		rate:    rate,
		frames:  frames,
		drained: make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (s *scriptedSource) SampleRate() int { return s.rate }

func (s *scriptedSource) Read() ([]float32, error) {
	s.mu.Lock()
	if s.next < len(s.frames) {
		frame := s.frames[s.next]
		s.next++
		s.mu.Unlock()
		return frame, nil
	}
	s.mu.Unlock()

	s.drainOnce.Do(func() { close(s.drained) })
	<-s.stopped
	return nil, errors.New("stream stopped")
}

func (s *scriptedSource) Stop() error {
	s.stopOnce.Do(func() { close(s.stopped) })
	return nil
}

func constantBatch(n int, v float32) []float32 {
	batch := make([]float32, n)
	for i := range batch {
		batch[i] = v
	}
	return batch
}

func waitClosed(t *testing.T, ch chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

// newTestModel builds a model on a scripted chain that has already
// played its frames through the conditioning stages.
func newTestModel(t *testing.T, cfg Config) Model {
	t.Helper()

	if cfg.Chain == nil {
		src := newScriptedSource(48000, [][]float32{
			constantBatch(1024, 0.5),
			constantBatch(1024, 0.5),
		})
		chain, err := capture.Acquire(capture.ChainConfig{GainControl: 50, Source: src})
		if err != nil {
			t.Fatalf("Acquire() error: %v", err)
		}
		t.Cleanup(func() { chain.Close() })

		chain.Resume()
		waitClosed(t, src.drained, "scripted source to drain")
		cfg.Chain = chain
	}
	if cfg.CodecOrder == nil {
		cfg.CodecOrder = []transcode.Codec{transcode.CodecPCM16}
	}
	if cfg.Hum.Hz == 0 {
		cfg.Hum = mains.Hum{Hz: 50, Country: "United Kingdom"}
	}
	if cfg.Device == "" {
		cfg.Device = "Scripted Input"
	}

	return NewModel(cfg)
}

func updateModel(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	model, cmd := m.Update(msg)
	next, ok := model.(Model)
	if !ok {
		t.Fatalf("Update() returned %T, want Model", model)
	}
	return next, cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRecordStopSaveFlow(t *testing.T) {
	var got Outcome
	saver := func(o Outcome) (SavedFiles, error) {
		got = o
		return SavedFiles{WavPath: "/tmp/take-001.wav", ReportPath: "/tmp/take-001.txt"}, nil
	}
	m := newTestModel(t, Config{Saver: saver})

	if m.status != StatusMonitoring {
		t.Fatalf("initial status = %v, want monitoring", m.status)
	}

	m, cmd := updateModel(t, m, keyRunes("r"))
	if m.status != StatusRecording {
		t.Fatalf("status after r = %v, want recording", m.status)
	}
	if m.session == nil {
		t.Fatal("no session after starting a take")
	}
	if cmd == nil {
		t.Fatal("starting a take should arm the characteristic tick")
	}

	// One classifier tick lands a characteristic on the open session.
	m, cmd = updateModel(t, m, characteristicTickMsg{seq: m.takeSeq})
	if cmd == nil {
		t.Fatal("characteristic tick should re-arm while recording")
	}
	if n := len(m.session.RecordedCharacteristics()); n != 1 {
		t.Fatalf("recorded characteristics = %d, want 1", n)
	}

	m, cmd = updateModel(t, m, keyRunes("r"))
	if m.status != StatusSaving {
		t.Fatalf("status after stop = %v, want saving", m.status)
	}
	if cmd == nil {
		t.Fatal("stopping should produce a save command")
	}

	msg := cmd()
	saved, ok := msg.(RecordingSavedMsg)
	if !ok {
		t.Fatalf("save command produced %T, want RecordingSavedMsg", msg)
	}
	if saved.Err != nil {
		t.Fatalf("save error: %v", saved.Err)
	}
	if saved.Files.WavPath != "/tmp/take-001.wav" {
		t.Errorf("WavPath = %q", saved.Files.WavPath)
	}
	if got.Recording.SampleRate != 48000 {
		t.Errorf("recording sample rate = %d, want 48000", got.Recording.SampleRate)
	}
	if got.Recording.Codec != transcode.CodecPCM16 {
		t.Errorf("recording codec = %q, want %q", got.Recording.Codec, transcode.CodecPCM16)
	}

	// A hushed one-tick take earns the quiet badge.
	if saved.Outcome.Badge == nil {
		t.Fatal("expected a badge for the quiet take")
	}
	if saved.Outcome.Badge.ID != missions.RuleQuiet {
		t.Errorf("badge = %q, want %q", saved.Outcome.Badge.ID, missions.RuleQuiet)
	}

	m, _ = updateModel(t, m, saved)
	if m.status != StatusDone {
		t.Fatalf("status after save = %v, want done", m.status)
	}
	if m.session != nil {
		t.Error("session should be cleared after save")
	}
	if !m.completed[missions.RuleQuiet] {
		t.Error("quiet badge not recorded as completed")
	}

	// A second take starts straight from the summary screen.
	m, _ = updateModel(t, m, keyRunes("r"))
	if m.status != StatusRecording {
		t.Fatalf("status after second r = %v, want recording", m.status)
	}
	if m.saved != nil {
		t.Error("previous summary should be cleared on a new take")
	}
}

func TestTickRefreshesMeters(t *testing.T) {
	m := newTestModel(t, Config{})

	m, cmd := updateModel(t, m, tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick should re-arm itself")
	}

	// The constant half-scale input concentrates energy at the bottom
	// of the spectrum.
	if m.spectrum[0] == 0 {
		t.Error("spectrum not sampled on tick")
	}
	if m.level.AverageLevel <= 0 {
		t.Errorf("AverageLevel = %v, want > 0", m.level.AverageLevel)
	}
	if m.bands.Low <= 0 {
		t.Errorf("bands.Low = %v, want > 0", m.bands.Low)
	}
	if m.bands.Dominant() != spectral.BandLow {
		t.Errorf("Dominant() = %q, want low", m.bands.Dominant())
	}
}

func TestTickStopsOnSummaryAndRestartsWithTake(t *testing.T) {
	m := newTestModel(t, Config{})
	m.status = StatusDone

	m, cmd := updateModel(t, m, tickMsg(time.Now()))
	if cmd != nil {
		t.Fatal("tick should stop re-arming on the summary screen")
	}
	if m.ticking {
		t.Error("model should record that the tick chain stopped")
	}
	if m.level.AverageLevel != 0 {
		t.Error("meters should not refresh once done")
	}

	m, cmd = updateModel(t, m, keyRunes("r"))
	if m.status != StatusRecording {
		t.Fatalf("status after restart = %v, want %v", m.status, StatusRecording)
	}
	if !m.ticking {
		t.Error("starting a take should re-arm the tick chain")
	}
	if cmd == nil {
		t.Fatal("starting a take should schedule commands")
	}
}

func TestGainKeysClampToControlRange(t *testing.T) {
	m := newTestModel(t, Config{})

	m.chain.SetGain(98)
	m, _ = updateModel(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if got := m.chain.GainControl(); got != capture.GainControlMax {
		t.Errorf("gain after up from 98 = %v, want %v", got, capture.GainControlMax)
	}

	m.chain.SetGain(3)
	m, _ = updateModel(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if got := m.chain.GainControl(); got != 0 {
		t.Errorf("gain after down from 3 = %v, want 0", got)
	}
}

func TestQuitWhileRecordingSavesFirst(t *testing.T) {
	m := newTestModel(t, Config{})

	m, _ = updateModel(t, m, keyRunes("r"))
	m, cmd := updateModel(t, m, keyRunes("q"))
	if m.status != StatusSaving {
		t.Fatalf("status after q = %v, want saving", m.status)
	}
	if cmd == nil {
		t.Fatal("q while recording should produce a save command")
	}

	saved, ok := cmd().(RecordingSavedMsg)
	if !ok {
		t.Fatalf("save command produced %T, want RecordingSavedMsg", cmd())
	}

	m, cmd = updateModel(t, m, saved)
	if cmd == nil {
		t.Fatal("expected quit command once the save landed")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("command produced %T, want tea.QuitMsg", cmd())
	}
}

func TestStaleCharacteristicTickIsDropped(t *testing.T) {
	m := newTestModel(t, Config{})
	m, _ = updateModel(t, m, keyRunes("r"))
	session := m.session

	m, cmd := updateModel(t, m, characteristicTickMsg{seq: m.takeSeq - 1})
	if cmd != nil {
		t.Error("stale tick should not re-arm")
	}
	if n := len(session.RecordedCharacteristics()); n != 0 {
		t.Errorf("stale tick recorded %d characteristics, want 0", n)
	}

	m, cmd = updateModel(t, m, characteristicTickMsg{seq: m.takeSeq})
	if cmd == nil {
		t.Error("current tick should re-arm")
	}
	if n := len(session.RecordedCharacteristics()); n != 1 {
		t.Errorf("current tick recorded %d characteristics, want 1", n)
	}
}

func TestAutoStopTriggersSave(t *testing.T) {
	m := newTestModel(t, Config{MaxDuration: 40 * time.Millisecond})

	m, _ = updateModel(t, m, keyRunes("r"))

	var msg tea.Msg
	select {
	case msg = <-m.events:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for auto-stop")
	}
	if _, ok := msg.(autoStopMsg); !ok {
		t.Fatalf("event = %T, want autoStopMsg", msg)
	}

	m, cmd := updateModel(t, m, msg)
	if m.status != StatusSaving {
		t.Fatalf("status after auto-stop = %v, want saving", m.status)
	}
	if cmd == nil {
		t.Fatal("auto-stop should produce a save command")
	}
}

func TestBadgeFromSaveIsRecorded(t *testing.T) {
	rule, ok := missions.Lookup(missions.RuleLoud)
	if !ok {
		t.Fatal("loud rule missing")
	}

	m := newTestModel(t, Config{})
	m, _ = updateModel(t, m, RecordingSavedMsg{Outcome: Outcome{Badge: &rule}})

	if m.status != StatusDone {
		t.Fatalf("status = %v, want done", m.status)
	}
	if !m.completed[missions.RuleLoud] {
		t.Error("badge from save not recorded as completed")
	}
}

func TestSaveErrorShowsErrorScreen(t *testing.T) {
	m := newTestModel(t, Config{})
	m.Width = 80

	m, _ = updateModel(t, m, RecordingSavedMsg{Err: errors.New("disk full")})
	if m.status != StatusError {
		t.Fatalf("status = %v, want error", m.status)
	}
	if view := m.View(); !strings.Contains(view, "disk full") {
		t.Errorf("error view should name the failure, got:\n%s", view)
	}
}

func TestQuitDeferredUntilSaveLands(t *testing.T) {
	m := newTestModel(t, Config{})
	m.status = StatusSaving

	m, cmd := updateModel(t, m, keyRunes("q"))
	if cmd != nil {
		t.Fatal("q while saving should wait for the save to land")
	}
	if !m.quitAfterSave {
		t.Fatal("quit intent not recorded")
	}

	m, cmd = updateModel(t, m, RecordingSavedMsg{})
	if cmd == nil {
		t.Fatal("expected quit command after save landed")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("command produced %T, want tea.QuitMsg", cmd())
	}
}

func TestViewBeforeWindowSize(t *testing.T) {
	m := newTestModel(t, Config{})
	if view := m.View(); view != "Initializing..." {
		t.Errorf("View() before sizing = %q", view)
	}
}

func TestViewScreens(t *testing.T) {
	m := newTestModel(t, Config{})
	m, _ = updateModel(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	view := m.View()
	for _, want := range []string{"Goodvibrations", "monitoring", "Scripted Input", "50Hz mains region"} {
		if !strings.Contains(view, want) {
			t.Errorf("monitoring view missing %q:\n%s", want, view)
		}
	}

	m.status = StatusSaving
	if view := m.View(); !strings.Contains(view, "Saving take...") {
		t.Errorf("saving view missing spinner line:\n%s", view)
	}

	rule, _ := missions.Lookup(missions.RuleQuiet)
	m.status = StatusDone
	m.saved = &RecordingSavedMsg{
		Outcome: Outcome{
			Recording: capture.Recording{SampleRate: 48000, Codec: transcode.CodecPCM16, Duration: 3 * time.Second},
			Badge:     &rule,
		},
		Files: SavedFiles{WavPath: "/tmp/take-001.wav"},
	}
	view = m.View()
	for _, want := range []string{"Take saved", "/tmp/take-001.wav", "Pin Drop", "record another"} {
		if !strings.Contains(view, want) {
			t.Errorf("summary view missing %q:\n%s", want, view)
		}
	}
}
