package capture

import (
	"sync"
	"time"

	"github.com/linuxmatters/goodvibrations/internal/spectral"
	"github.com/linuxmatters/goodvibrations/internal/transcode"
)

// SessionConfig configures one capture session.
type SessionConfig struct {
	// MaxDuration auto-stops the session if the user never does. 0
	// disables the auto-stop.
	MaxDuration time.Duration

	// CodecOrder overrides the capture encoding preference list. Empty
	// means transcode.DefaultCodecOrder.
	CodecOrder []transcode.Codec

	// OnAutoStop, when set, runs once after an auto-stop finalizes the
	// session. It is not called when a manual Stop lands first.
	OnAutoStop func()
}

// DefaultSessionConfig returns the capture session defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxDuration: 30 * time.Second,
	}
}

// Session accumulates encoded audio chunks and characteristic samples
// between recording start and stop. Exactly one session is active per
// chain at a time; the chain's capture tap feeds it.
type Session struct {
	chain   *Chain
	encoder transcode.ChunkEncoder
	rate    int

	mu              sync.Mutex
	chunks          [][]byte
	characteristics []spectral.CharacteristicSample
	startTime       time.Time
	stopTime        time.Time
	stopped         bool
	container       []byte
	autoStop        *time.Timer
}

// newSession negotiates the capture encoder and starts the auto-stop
// clock.
func newSession(chain *Chain, rate int, cfg SessionConfig) (*Session, error) {
	encoder, err := transcode.NegotiateEncoder(cfg.CodecOrder)
	if err != nil {
		return nil, err
	}

	s := &Session{
		chain:     chain,
		encoder:   encoder,
		rate:      rate,
		startTime: time.Now(),
	}
	if cfg.MaxDuration > 0 {
		s.autoStop = time.AfterFunc(cfg.MaxDuration, func() {
			if first := s.finalize(); first && cfg.OnAutoStop != nil {
				cfg.OnAutoStop()
			}
		})
	}
	return s, nil
}

// Codec identifies the negotiated capture encoding.
func (s *Session) Codec() transcode.Codec { return s.encoder.Codec() }

// SampleRate returns the capture rate of the session's audio.
func (s *Session) SampleRate() int { return s.rate }

// StartTime returns when the session opened.
func (s *Session) StartTime() time.Time { return s.startTime }

// Duration returns the session length: running time while active, the
// final span once stopped.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return s.stopTime.Sub(s.startTime)
	}
	return time.Since(s.startTime)
}

// appendSamples encodes one conditioned frame batch as a chunk. Batches
// arriving after the stop are dropped; the stream goroutine may still be
// mid-read when the session finalizes.
func (s *Session) appendSamples(frames []float32) {
	samples := make([]float64, len(frames))
	for i, f := range frames {
		samples[i] = float64(f)
	}
	chunk := s.encoder.EncodeChunk(samples)

	s.mu.Lock()
	if !s.stopped {
		s.chunks = append(s.chunks, chunk)
	}
	s.mu.Unlock()
}

// CaptureCharacteristic appends one tick's features to the session's
// time series. Tick order is preserved; classification depends on it.
func (s *Session) CaptureCharacteristic(sample spectral.CharacteristicSample) {
	s.mu.Lock()
	if !s.stopped {
		s.characteristics = append(s.characteristics, sample)
	}
	s.mu.Unlock()
}

// RecordedCharacteristics returns a copy of the accumulated series.
func (s *Session) RecordedCharacteristics() []spectral.CharacteristicSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]spectral.CharacteristicSample(nil), s.characteristics...)
}

// Stop finalizes the session and returns the complete encoded container.
// The auto-stop clock is cancelled, the chain's capture tap detaches,
// and the accumulated chunks concatenate under the negotiated format's
// framing. Stopping again returns the same container without
// re-finalizing; a session that captured nothing yields a valid empty
// container.
func (s *Session) Stop() []byte {
	s.finalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.container
}

// finalize performs the stop transition exactly once, reporting whether
// this call was the one that did it.
func (s *Session) finalize() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.stopped = true
	s.stopTime = time.Now()
	if s.autoStop != nil {
		s.autoStop.Stop()
	}
	s.chain.detachSession(s)
	s.container = s.encoder.Container(s.rate, s.chunks)
	return true
}
