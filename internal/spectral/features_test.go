package spectral

import (
	"math"
	"testing"
)

func TestExtractUniformSpectrum(t *testing.T) {
	// A perfectly flat spectrum averages identically in every band and
	// resolves to mid by the all-equal rule.
	spec := flatSpectrum(200.0)
	sample := Extract(spec)

	if math.Abs(sample.Overall-200.0) > 0.0001 {
		t.Errorf("Overall = %.4f, want 200", sample.Overall)
	}
	if math.Abs(sample.LowAvg-200.0) > 0.0001 {
		t.Errorf("LowAvg = %.4f, want 200", sample.LowAvg)
	}
	if math.Abs(sample.MidAvg-200.0) > 0.0001 {
		t.Errorf("MidAvg = %.4f, want 200", sample.MidAvg)
	}
	if math.Abs(sample.HighAvg-200.0) > 0.0001 {
		t.Errorf("HighAvg = %.4f, want 200", sample.HighAvg)
	}
	if sample.Dominant != BandMid {
		t.Errorf("Dominant = %q, want %q", sample.Dominant, BandMid)
	}
}

func TestExtractRampSpectrum(t *testing.T) {
	spec := make(Spectrum, SpectrumBins)
	for i := range spec {
		spec[i] = float64(i) / 2.0
	}
	sample := Extract(spec)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"low band mean", sample.LowAvg, 12.25},
		{"mid band mean", sample.MidAvg, 62.25},
		{"high band mean", sample.HighAvg, 177.75},
		{"overall mean", sample.Overall, 127.75},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > 0.0001 {
			t.Errorf("%s = %.4f, want %.4f", tt.name, tt.got, tt.want)
		}
	}
	if sample.Dominant != BandHigh {
		t.Errorf("Dominant = %q, want %q", sample.Dominant, BandHigh)
	}
}

func TestBandsShortSpectrum(t *testing.T) {
	// A 300-bin spectrum truncates the high band to bins 200 through 299.
	spec := make(Spectrum, 300)
	for i := range spec {
		switch {
		case i < 50:
			spec[i] = 10.0
		case i < 200:
			spec[i] = 20.0
		default:
			spec[i] = 90.0
		}
	}

	energy := Bands(spec)
	if math.Abs(energy.Low-10.0) > 0.0001 {
		t.Errorf("Low = %.4f, want 10", energy.Low)
	}
	if math.Abs(energy.Mid-20.0) > 0.0001 {
		t.Errorf("Mid = %.4f, want 20", energy.Mid)
	}
	if math.Abs(energy.High-90.0) > 0.0001 {
		t.Errorf("High = %.4f, want 90 over the 100 bins present", energy.High)
	}
}

func TestBandsSpectrumShorterThanBand(t *testing.T) {
	tests := []struct {
		name     string
		length   int
		value    float64
		wantLow  float64
		wantMid  float64
		wantHigh float64
		desc     string
	}{
		{
			name:     "only low band present",
			length:   30,
			value:    40.0,
			wantLow:  40.0,
			wantMid:  0.0,
			wantHigh: 0.0,
			desc:     "bands past the end of the spectrum read as silent",
		},
		{
			name:     "low and partial mid",
			length:   100,
			value:    60.0,
			wantLow:  60.0,
			wantMid:  60.0,
			wantHigh: 0.0,
			desc:     "the mid band averages only the bins it has",
		},
		{
			name:     "empty spectrum",
			length:   0,
			value:    0.0,
			wantLow:  0.0,
			wantMid:  0.0,
			wantHigh: 0.0,
			desc:     "an empty spectrum yields all-zero band energy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := make(Spectrum, tt.length)
			for i := range spec {
				spec[i] = tt.value
			}
			energy := Bands(spec)
			if math.Abs(energy.Low-tt.wantLow) > 0.0001 {
				t.Errorf("Low = %.4f, want %.4f (%s)", energy.Low, tt.wantLow, tt.desc)
			}
			if math.Abs(energy.Mid-tt.wantMid) > 0.0001 {
				t.Errorf("Mid = %.4f, want %.4f (%s)", energy.Mid, tt.wantMid, tt.desc)
			}
			if math.Abs(energy.High-tt.wantHigh) > 0.0001 {
				t.Errorf("High = %.4f, want %.4f (%s)", energy.High, tt.wantHigh, tt.desc)
			}
		})
	}
}

func TestBandBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		spikeBin int
		wantBand Band
	}{
		{"bin 0 opens the low band", 0, BandLow},
		{"bin 49 closes the low band", 49, BandLow},
		{"bin 50 opens the mid band", 50, BandMid},
		{"bin 199 closes the mid band", 199, BandMid},
		{"bin 200 opens the high band", 200, BandHigh},
		{"bin 511 closes the high band", 511, BandHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := make(Spectrum, SpectrumBins)
			spec[tt.spikeBin] = 255.0
			energy := Bands(spec)

			var got Band
			switch {
			case energy.Low > 0:
				got = BandLow
			case energy.Mid > 0:
				got = BandMid
			default:
				got = BandHigh
			}
			if got != tt.wantBand {
				t.Errorf("spike at bin %d landed in %q, want %q", tt.spikeBin, got, tt.wantBand)
			}
		})
	}
}

func TestBandEnergyDominant(t *testing.T) {
	tests := []struct {
		name   string
		energy BandEnergy
		want   Band
		desc   string
	}{
		{
			name:   "unique low maximum",
			energy: BandEnergy{Low: 9, Mid: 1, High: 2},
			want:   BandLow,
			desc:   "a strictly largest band wins outright",
		},
		{
			name:   "unique mid maximum",
			energy: BandEnergy{Low: 1, Mid: 9, High: 2},
			want:   BandMid,
			desc:   "a strictly largest band wins outright",
		},
		{
			name:   "unique high maximum",
			energy: BandEnergy{Low: 1, Mid: 2, High: 9},
			want:   BandHigh,
			desc:   "a strictly largest band wins outright",
		},
		{
			name:   "low ties high",
			energy: BandEnergy{Low: 9, Mid: 3, High: 9},
			want:   BandLow,
			desc:   "low outranks high on a tie",
		},
		{
			name:   "low ties mid",
			energy: BandEnergy{Low: 6, Mid: 6, High: 1},
			want:   BandLow,
			desc:   "low outranks mid on a tie",
		},
		{
			name:   "mid ties high",
			energy: BandEnergy{Low: 2, Mid: 7, High: 7},
			want:   BandHigh,
			desc:   "high outranks mid on a tie",
		},
		{
			name:   "three-way tie",
			energy: BandEnergy{Low: 5, Mid: 5, High: 5},
			want:   BandMid,
			desc:   "an evenly spread spectrum reads as mid",
		},
		{
			name:   "all silent",
			energy: BandEnergy{},
			want:   BandMid,
			desc:   "silence is an even spread",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.energy.Dominant(); got != tt.want {
				t.Errorf("Dominant() = %q, want %q (%s)", got, tt.want, tt.desc)
			}
		})
	}
}

func TestBandAveragesBounded(t *testing.T) {
	specs := map[string]Spectrum{
		"flat":      flatSpectrum(123.0),
		"ramp":      rampSpectrum(),
		"one spike": spectrumWithMax(250.0),
		"alternating": func() Spectrum {
			spec := make(Spectrum, SpectrumBins)
			for i := range spec {
				if i%2 == 0 {
					spec[i] = 255.0
				}
			}
			return spec
		}(),
	}

	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			max := 0.0
			for _, v := range spec {
				if v > max {
					max = v
				}
			}
			sample := Extract(spec)
			for band, avg := range map[string]float64{
				"low":     sample.LowAvg,
				"mid":     sample.MidAvg,
				"high":    sample.HighAvg,
				"overall": sample.Overall,
			} {
				if avg < 0 {
					t.Errorf("%s average is negative: %.4f", band, avg)
				}
				if avg > max {
					t.Errorf("%s average %.4f exceeds loudest bin %.4f", band, avg, max)
				}
			}
		})
	}
}

func rampSpectrum() Spectrum {
	spec := make(Spectrum, SpectrumBins)
	for i := range spec {
		spec[i] = float64(i) / 2.0
	}
	return spec
}
