package capture

import (
	"math"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/transforms"

	"github.com/linuxmatters/goodvibrations/internal/spectral"
	"github.com/linuxmatters/goodvibrations/internal/transcode"
)

// waveformBuckets is the thumbnail resolution.
const waveformBuckets = 64

// Recording is the finished artifact of a capture session: the encoded
// container plus everything downstream consumers need without touching
// the session again.
type Recording struct {
	Container       []byte
	Codec           transcode.Codec
	SampleRate      int
	StartTime       time.Time
	Duration        time.Duration
	Characteristics []spectral.CharacteristicSample
	Waveform        []float64
}

// Finish stops the session if it is still running and assembles the
// finished recording, including the waveform thumbnail. Like Stop it is
// safe to call in an already-stopped state.
func (s *Session) Finish() Recording {
	rec := Recording{
		Container:       s.Stop(),
		Codec:           s.Codec(),
		SampleRate:      s.rate,
		StartTime:       s.startTime,
		Duration:        s.Duration(),
		Characteristics: s.RecordedCharacteristics(),
	}
	if peaks, err := waveformPeaks(rec.Container); err == nil {
		rec.Waveform = peaks
	}
	return rec
}

// waveformPeaks reduces a container to waveformBuckets peak values,
// normalized so the loudest bucket reads 1.0.
func waveformPeaks(blob []byte) ([]float64, error) {
	decoded, err := transcode.Decode(blob)
	if err != nil {
		return nil, err
	}
	mono := decoded.Downmix()

	peaks := make([]float64, waveformBuckets)
	if len(mono) == 0 {
		return peaks, nil
	}
	bucket := (len(mono) + waveformBuckets - 1) / waveformBuckets
	loudest := 0.0
	for i, v := range mono {
		a := math.Abs(v)
		if b := i / bucket; a > peaks[b] {
			peaks[b] = a
		}
		if a > loudest {
			loudest = a
		}
	}
	if loudest > 0 {
		fb := &audio.FloatBuffer{
			Format: &audio.Format{NumChannels: 1, SampleRate: decoded.SampleRate},
			Data:   peaks,
		}
		transforms.NormalizeMax(fb)
		peaks = fb.Data
	}
	return peaks, nil
}
