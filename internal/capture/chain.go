// Package capture owns live audio acquisition: the conditioning chain
// from input device to taps, gain control, and the recording session
// lifecycle built on top.
package capture

import (
	"errors"
	"sync"

	"github.com/linuxmatters/goodvibrations/internal/spectral"
)

// ChainConfig configures chain acquisition.
type ChainConfig struct {
	// Device selects the input: empty for the system default, a number
	// for a device index, anything else a name prefix.
	Device string

	// SampleRate requests a capture rate. 0 uses the device default.
	SampleRate int

	// GainControl is the initial 0..100 preamp control value.
	GainControl float64

	// Source overrides device acquisition when set, for tests and for
	// replaying captured audio through the chain.
	Source Source
}

// DefaultChainConfig returns the config for the system default input.
func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		SampleRate:  48000,
		GainControl: 50.0,
	}
}

// Chain owns the conditioning path from audio source to the two taps:
// the spectral analyzer and the active capture session. One chain exists
// per device acquisition.
type Chain struct {
	analyzer *spectral.Analyzer

	mu         sync.Mutex
	source     Source
	stages     []stage
	preamp     *gainStage
	control    float64
	recentPeak float64
	session    *Session
	running    bool
	err        error

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Acquire obtains an audio source per the config and builds the
// conditioning chain on it. The stream does not run until Resume.
func Acquire(cfg ChainConfig) (*Chain, error) {
	source := cfg.Source
	if source == nil {
		var err error
		source, err = openDeviceSource(cfg.Device, cfg.SampleRate)
		if err != nil {
			return nil, err
		}
	}

	c := &Chain{
		analyzer: spectral.NewAnalyzer(),
		source:   source,
		control:  cfg.GainControl,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	c.build()
	return c, nil
}

// build wires the conditioning stages in StageOrder. The preamp is kept
// aside as the one stage gain control steers.
func (c *Chain) build() {
	rate := c.source.SampleRate()
	c.preamp = newGainStage(StagePreamp, GainForControl(c.control, 0), rate)

	for _, id := range StageOrder {
		switch id {
		case StagePreamp:
			c.stages = append(c.stages, c.preamp)
		case StageCompressor:
			c.stages = append(c.stages, newDynamicsStage(StageCompressor,
				compressorThresholdDB, compressorKneeDB, compressorRatio,
				compressorAttackSec, compressorReleaseSec, rate))
		case StageMainGain:
			c.stages = append(c.stages, newGainStage(StageMainGain, dbToLinear(mainGainDB), rate))
		case StageLimiter:
			c.stages = append(c.stages, newDynamicsStage(StageLimiter,
				limiterThresholdDB, limiterKneeDB, limiterRatio,
				limiterAttackSec, limiterReleaseSec, rate))
		}
	}
}

// Resume starts the stream reader if it is not already running. Calling
// it again is a no-op, so any user-initiated action can invoke it before
// visualization or capture begins.
func (c *Chain) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumeLocked()
}

func (c *Chain) resumeLocked() {
	if c.running {
		return
	}
	c.running = true
	go c.run()
}

// run is the stream loop: read a batch, condition it through the stages
// in order, then feed the analysis tap and the capture tap. Stage state
// is only ever touched here, under the chain lock; the taps are fed
// after unlock since they do their own locking.
func (c *Chain) run() {
	defer close(c.done)
	out := make([]float32, framesPerBuffer)

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		frames, err := c.source.Read()
		if err != nil {
			select {
			case <-c.stop:
				// The source was stopped under us; expected on close.
			default:
				c.mu.Lock()
				c.err = err
				c.mu.Unlock()
			}
			return
		}
		if len(frames) > len(out) {
			out = make([]float32, len(frames))
		}
		n := len(frames)

		c.mu.Lock()
		session := c.session
		for i, s := range frames {
			v := s
			for _, st := range c.stages {
				v = st.process(v)
			}
			out[i] = v
		}
		c.mu.Unlock()

		c.analyzer.Push(out[:n])
		if session != nil {
			session.appendSamples(out[:n])
		}
	}
}

// Close tears the chain down: the source is stopped, which unblocks the
// reader, and Close waits for the reader to exit. Safe to call twice.
func (c *Chain) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		running := c.running
		c.mu.Unlock()

		close(c.stop)
		err = c.source.Stop()
		if running {
			<-c.done
		}
	})
	return err
}

// Err reports the stream error that stopped the reader, if any.
func (c *Chain) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Analyzer returns the chain's analysis tap.
func (c *Chain) Analyzer() *spectral.Analyzer { return c.analyzer }

// SampleRate returns the capture rate.
func (c *Chain) SampleRate() int { return c.source.SampleRate() }

// SetGain maps a 0..100 control value onto the preamp stage. The applied
// multiplier ramps toward the new target rather than stepping.
func (c *Chain) SetGain(control float64) {
	c.mu.Lock()
	c.control = control
	c.preamp.setTarget(GainForControl(control, c.recentPeak))
	c.mu.Unlock()
}

// ObservePeak feeds the level monitor's peak back into gain control.
// Peaks above the high-water mark pull the preamp target down without
// moving the user's control value.
func (c *Chain) ObservePeak(peak float64) {
	c.mu.Lock()
	c.recentPeak = peak
	c.preamp.setTarget(GainForControl(c.control, peak))
	c.mu.Unlock()
}

// GainControl returns the current control value.
func (c *Chain) GainControl() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.control
}

// Gain returns the preamp multiplier currently being ramped toward.
func (c *Chain) Gain() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preamp.target
}

// StartRecording negotiates a capture encoder and opens a session fed by
// the capture tap, resuming the stream if it was suspended. Only one
// session may be active; starting a second fails.
func (c *Chain) StartRecording(cfg SessionConfig) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return nil, errors.New("a capture session is already active")
	}

	s, err := newSession(c, c.source.SampleRate(), cfg)
	if err != nil {
		return nil, err
	}
	c.session = s
	c.resumeLocked()
	return s, nil
}

// detachSession clears the capture tap if it still points at s.
func (c *Chain) detachSession(s *Session) {
	c.mu.Lock()
	if c.session == s {
		c.session = nil
	}
	c.mu.Unlock()
}
