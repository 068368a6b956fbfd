package logging

import (
	"github.com/linuxmatters/goodvibrations/internal/spectral"
)

// SessionStats aggregates a session's characteristic time series into
// the figures the report and the tips engine work from. Magnitudes are
// on the analyzer's 0-255 scale; PeakLevel is linear 0-1.
type SessionStats struct {
	Ticks       int
	MeanOverall float64
	MaxOverall  float64
	VarOverall  float64 // population variance of the overall series
	MeanLow     float64
	MeanMid     float64
	MeanHigh    float64

	// Dominant band counts across the series.
	DominantLow  int
	DominantMid  int
	DominantHigh int

	// Filled in by the caller from level monitoring, not derivable from
	// the characteristic series.
	ClipTicks int
	PeakLevel float64
}

// ComputeStats reduces a characteristic series to session statistics.
// ClipTicks and PeakLevel are left zero for the caller to fill.
func ComputeStats(samples []spectral.CharacteristicSample) SessionStats {
	stats := SessionStats{Ticks: len(samples)}
	if len(samples) == 0 {
		return stats
	}

	for _, s := range samples {
		stats.MeanOverall += s.Overall
		stats.MeanLow += s.LowAvg
		stats.MeanMid += s.MidAvg
		stats.MeanHigh += s.HighAvg
		if s.Overall > stats.MaxOverall {
			stats.MaxOverall = s.Overall
		}
		switch s.Dominant {
		case spectral.BandLow:
			stats.DominantLow++
		case spectral.BandMid:
			stats.DominantMid++
		case spectral.BandHigh:
			stats.DominantHigh++
		}
	}
	n := float64(len(samples))
	stats.MeanOverall /= n
	stats.MeanLow /= n
	stats.MeanMid /= n
	stats.MeanHigh /= n

	for _, s := range samples {
		d := s.Overall - stats.MeanOverall
		stats.VarOverall += d * d
	}
	stats.VarOverall /= n

	return stats
}

// DominantBand returns the band that led the most ticks and its share
// of the series. An empty series reads as mid with share zero.
func (s SessionStats) DominantBand() (spectral.Band, float64) {
	if s.Ticks == 0 {
		return spectral.BandMid, 0
	}
	band := spectral.BandMid
	count := s.DominantMid
	if s.DominantLow > count {
		band = spectral.BandLow
		count = s.DominantLow
	}
	if s.DominantHigh > count {
		band = spectral.BandHigh
		count = s.DominantHigh
	}
	return band, float64(count) / float64(s.Ticks)
}
