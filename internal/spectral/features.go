package spectral

import "math"

// Band identifies one of the three fixed spectrum ranges.
type Band string

const (
	BandLow  Band = "low"
	BandMid  Band = "mid"
	BandHigh Band = "high"
)

// Fixed band partition over the 512-bin spectrum. Classification depends
// on these exact ranges; shorter spectra clamp rather than error.
const (
	lowBandEnd  = 50           // bins [0, 50)
	midBandEnd  = 200          // bins [50, 200)
	highBandEnd = SpectrumBins // bins [200, 512)
)

// BandEnergy carries the average magnitude of each band for one tick.
type BandEnergy struct {
	Low  float64
	Mid  float64
	High float64
}

// CharacteristicSample is one tick's feature snapshot. During an active
// capture session these accumulate into an ordered sequence, which is
// the sole input to mission classification.
type CharacteristicSample struct {
	Overall  float64 // mean over the full spectrum
	LowAvg   float64
	MidAvg   float64
	HighAvg  float64
	Dominant Band
}

// Bands returns the three band averages of a spectrum.
func Bands(spec Spectrum) BandEnergy {
	return BandEnergy{
		Low:  bandMean(spec, 0, lowBandEnd),
		Mid:  bandMean(spec, lowBandEnd, midBandEnd),
		High: bandMean(spec, midBandEnd, highBandEnd),
	}
}

// Extract reduces a spectrum to one characteristic sample.
func Extract(spec Spectrum) CharacteristicSample {
	bands := Bands(spec)
	return CharacteristicSample{
		Overall:  bandMean(spec, 0, len(spec)),
		LowAvg:   bands.Low,
		MidAvg:   bands.Mid,
		HighAvg:  bands.High,
		Dominant: bands.Dominant(),
	}
}

// Dominant returns the band with the strictly largest average. Equal-max
// ties fall to the earlier of low > high > mid; when all three are equal
// nothing is strictly largest and mid is the fallback.
func (e BandEnergy) Dominant() Band {
	if e.Low == e.Mid && e.Mid == e.High {
		return BandMid
	}
	max := math.Max(e.Low, math.Max(e.Mid, e.High))
	switch {
	case e.Low == max:
		return BandLow
	case e.High == max:
		return BandHigh
	default:
		return BandMid
	}
}

// bandMean averages the bins in [from, to), clamped to the spectrum
// length. An empty range after clamping averages to 0.
func bandMean(spec Spectrum, from, to int) float64 {
	if to > len(spec) {
		to = len(spec)
	}
	if from >= to {
		return 0
	}
	sum := 0.0
	for _, v := range spec[from:to] {
		sum += v
	}
	return sum / float64(to-from)
}
