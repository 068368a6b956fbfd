package spectral

// Level meter behavior. Levels are fractions of MaxMagnitude unless the
// comment says otherwise.
const (
	// peakDecay is the per-tick release multiplier of the peak hold. A
	// new peak lands instantly; between peaks the hold bleeds off at
	// this rate (roughly 70% fall over 0.9s at a 30fps tick).
	peakDecay = 0.96

	// clipThreshold marks the near-ceiling magnitude treated as
	// clipping. True full scale is rarely hit exactly, so anything at
	// or above 240 of 255 counts.
	clipThreshold = 240.0

	// levelQuietMax and levelLoudMin split the average level into the
	// Quiet / Medium / Loud buckets.
	levelQuietMax = 0.15
	levelLoudMin  = 0.5
)

// Category buckets an average level for display.
type Category int

const (
	CategoryQuiet Category = iota
	CategoryMedium
	CategoryLoud
	CategoryClipping
)

// String returns the display name of the category.
func (c Category) String() string {
	switch c {
	case CategoryQuiet:
		return "quiet"
	case CategoryMedium:
		return "medium"
	case CategoryLoud:
		return "loud"
	case CategoryClipping:
		return "clipping"
	default:
		return "unknown"
	}
}

// LevelSnapshot summarises one spectrum sample for metering. Recomputed
// every tick, never persisted.
type LevelSnapshot struct {
	AverageLevel float64 // mean bin magnitude, normalized 0-1
	PeakLevel    float64 // peak hold with decay, normalized 0-1
	Clipping     bool    // max bin within the near-ceiling margin
}

// Category returns the display bucket for the snapshot. Clipping takes
// priority over the level-derived buckets.
func (s LevelSnapshot) Category() Category {
	switch {
	case s.Clipping:
		return CategoryClipping
	case s.AverageLevel < levelQuietMax:
		return CategoryQuiet
	case s.AverageLevel < levelLoudMin:
		return CategoryMedium
	default:
		return CategoryLoud
	}
}

// Monitor converts raw spectra into level snapshots. The held peak is the
// only state; everything else is a pure function of the input.
type Monitor struct {
	peak float64
}

// NewMonitor returns a Monitor with no held peak.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Sample computes the level snapshot for one tick.
func (m *Monitor) Sample(spec Spectrum) LevelSnapshot {
	var sum, max float64
	for _, v := range spec {
		sum += v
		if v > max {
			max = v
		}
	}

	avg := 0.0
	if len(spec) > 0 {
		avg = sum / float64(len(spec)) / MaxMagnitude
	}

	// Peak hold: new peaks land instantly, old ones decay exponentially.
	peak := max / MaxMagnitude
	if held := m.peak * peakDecay; held > peak {
		peak = held
	}
	m.peak = peak

	return LevelSnapshot{
		AverageLevel: avg,
		PeakLevel:    peak,
		Clipping:     max >= clipThreshold,
	}
}

// Reset drops the held peak, typically between sessions.
func (m *Monitor) Reset() {
	m.peak = 0
}
