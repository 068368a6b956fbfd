// Package spectral turns the conditioned capture stream into magnitude
// spectra, level snapshots and per-tick band characteristics.
package spectral

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"
)

// Spectrum holds one magnitude value per frequency bin on a 0..255 scale,
// refreshed in place on every sampling tick. Owned by the analysis tap;
// read-only to consumers.
type Spectrum []float64

// Spectrum geometry and scaling. The byte-style magnitude scale keeps the
// monitor, extractor and classifier thresholds in one familiar 0..255 range.
const (
	// AnalysisWindow is the number of time-domain samples per transform.
	// 1024 samples is ~21ms at 48kHz, well inside a visual tick.
	AnalysisWindow = 1024

	// SpectrumBins is the fixed spectrum length (single-sided transform).
	SpectrumBins = AnalysisWindow / 2

	// MaxMagnitude is the ceiling of the magnitude scale.
	MaxMagnitude = 255.0

	// minDecibels and maxDecibels bound the dB range mapped onto the
	// 0..MaxMagnitude scale. Bins at or below the floor render as 0,
	// bins at or above the ceiling as MaxMagnitude.
	minDecibels = -100.0 // dBFS
	maxDecibels = -30.0  // dBFS

	// magnitudeSmoothing blends the previous spectrum into the new one
	// per bin, damping frame-to-frame flicker. 0 disables smoothing.
	magnitudeSmoothing = 0.8
)

// SpectrumSource supplies a fixed-size magnitude spectrum on demand. The
// pipeline treats the frequency transform as an external primitive, so
// everything downstream of the analysis tap depends only on this surface.
type SpectrumSource interface {
	// Bins returns the fixed spectrum length.
	Bins() int

	// Sample refreshes dst with the current magnitudes. A dst shorter
	// than Bins receives a truncated spectrum; a longer one is
	// zero-padded past Bins.
	Sample(dst Spectrum)
}

// Analyzer is the live SpectrumSource. It holds the most recent analysis
// window pushed by the capture side and transforms it on demand.
//
// Push runs on the stream-reader goroutine and Sample on the tick loop,
// so the window ring is the one piece of guarded state.
type Analyzer struct {
	mu   sync.Mutex
	ring [AnalysisWindow]float64
	pos  int

	window    []float64 // Hamming coefficients
	windowSum float64
	smoothed  []float64
	scratch   []float64
}

// NewAnalyzer returns an Analyzer with an empty (silent) window.
func NewAnalyzer() *Analyzer {
	a := &Analyzer{
		window:   make([]float64, AnalysisWindow),
		smoothed: make([]float64, SpectrumBins),
		scratch:  make([]float64, AnalysisWindow),
	}
	for n := range a.window {
		a.window[n] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(n)/float64(AnalysisWindow-1))
		a.windowSum += a.window[n]
	}
	return a
}

// Push appends conditioned samples to the analysis window, displacing the
// oldest. Values are copied; the caller may reuse the slice.
func (a *Analyzer) Push(samples []float32) {
	a.mu.Lock()
	for _, s := range samples {
		a.ring[a.pos] = float64(s)
		a.pos = (a.pos + 1) % AnalysisWindow
	}
	a.mu.Unlock()
}

// Bins implements SpectrumSource.
func (a *Analyzer) Bins() int { return SpectrumBins }

// Sample implements SpectrumSource: window the current ring contents,
// transform, convert to dB and map onto the byte scale with per-bin
// exponential smoothing.
func (a *Analyzer) Sample(dst Spectrum) {
	a.mu.Lock()
	for i := 0; i < AnalysisWindow; i++ {
		a.scratch[i] = a.ring[(a.pos+i)%AnalysisWindow]
	}
	a.mu.Unlock()

	for i := range a.scratch {
		a.scratch[i] *= a.window[i]
	}
	spectrum := fft.FFTReal(a.scratch)

	for i := 0; i < SpectrumBins; i++ {
		// Single-sided amplitude, compensated for the window gain.
		mag := 2.0 / a.windowSum * cmplx.Abs(spectrum[i])
		db := minDecibels
		if mag > 0 {
			db = 20.0 * math.Log10(mag)
		}
		scaled := (db - minDecibels) / (maxDecibels - minDecibels) * MaxMagnitude
		if scaled < 0 {
			scaled = 0
		} else if scaled > MaxMagnitude {
			scaled = MaxMagnitude
		}
		a.smoothed[i] = magnitudeSmoothing*a.smoothed[i] + (1-magnitudeSmoothing)*scaled
	}

	for i := range dst {
		if i < SpectrumBins {
			dst[i] = a.smoothed[i]
		} else {
			dst[i] = 0
		}
	}
}

// BinFrequency returns the center frequency in Hz of a spectrum bin at
// the given capture sample rate.
func BinFrequency(bin, sampleRate int) float64 {
	return float64(bin) * float64(sampleRate) / float64(AnalysisWindow)
}

// FrequencyBin returns the spectrum bin covering a frequency at the given
// capture sample rate, clamped to the valid bin range.
func FrequencyBin(freq float64, sampleRate int) int {
	if sampleRate <= 0 {
		return 0
	}
	bin := int(math.Round(freq * AnalysisWindow / float64(sampleRate)))
	if bin < 0 {
		return 0
	}
	if bin >= SpectrumBins {
		return SpectrumBins - 1
	}
	return bin
}
