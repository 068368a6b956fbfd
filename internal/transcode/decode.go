package transcode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/transforms"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
)

// sniffLen covers the longest magic we look for ("RIFF" size "WAVE").
const sniffLen = 12

// decodeChunkFrames sizes the read buffer for chunked WAV decoding.
const decodeChunkFrames = 8192

// DecodeError reports a container that could not be decoded, either
// because no format recognised it or because the recognised format found
// it corrupt.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("decode: %v", e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodedAudio holds interleaved float samples in [-1, 1] plus the source
// geometry, ready for downmix and quantization.
type DecodedAudio struct {
	SampleRate  int
	NumChannels int
	Data        []float64
}

// Frames returns the per-channel sample count.
func (d DecodedAudio) Frames() int {
	if d.NumChannels == 0 {
		return 0
	}
	return len(d.Data) / d.NumChannels
}

// Channels splits the interleaved data into one buffer per channel, all
// of equal length.
func (d DecodedAudio) Channels() [][]float64 {
	if d.NumChannels == 0 {
		return nil
	}
	frames := d.Frames()
	channels := make([][]float64, d.NumChannels)
	for ch := range channels {
		channels[ch] = make([]float64, frames)
		for i := 0; i < frames; i++ {
			channels[ch][i] = d.Data[i*d.NumChannels+ch]
		}
	}
	return channels
}

// Downmix returns the equal-weight per-sample mean across channels as one
// mono buffer. The decoded source is left untouched.
func (d DecodedAudio) Downmix() []float64 {
	if d.NumChannels <= 1 {
		return append([]float64(nil), d.Data...)
	}
	mono := &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: d.NumChannels, SampleRate: d.SampleRate},
		Data:   append([]float64(nil), d.Data...),
	}
	transforms.MonoDownmix(mono)
	return mono.Data
}

// containerDecoder decodes one container format.
type containerDecoder struct {
	format string
	sniff  func(header []byte) bool
	decode func(r io.ReadSeeker) (DecodedAudio, error)
}

// containerDecoders lists the supported formats in sniff order.
var containerDecoders = []containerDecoder{
	{format: "wav", sniff: sniffWav, decode: decodeWav},
	{format: "flac", sniff: sniffFlac, decode: decodeFlac},
}

// Decode parses an encoded audio container into float samples in [-1, 1].
// The format is sniffed from the leading bytes; unsupported or corrupt
// containers fail with a DecodeError rather than yielding empty audio.
func Decode(blob []byte) (DecodedAudio, error) {
	header := blob
	if len(header) > sniffLen {
		header = header[:sniffLen]
	}
	for _, d := range containerDecoders {
		if !d.sniff(header) {
			continue
		}
		decoded, err := d.decode(bytes.NewReader(blob))
		if err != nil {
			return DecodedAudio{}, &DecodeError{Format: d.format, Err: err}
		}
		return decoded, nil
	}
	return DecodedAudio{}, &DecodeError{Err: errors.New("unrecognised container")}
}

func sniffWav(header []byte) bool {
	return len(header) >= sniffLen &&
		bytes.Equal(header[0:4], []byte("RIFF")) &&
		bytes.Equal(header[8:12], []byte("WAVE"))
}

func sniffFlac(header []byte) bool {
	return len(header) >= 4 && bytes.Equal(header[0:4], []byte("fLaC"))
}

func decodeWav(r io.ReadSeeker) (DecodedAudio, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return DecodedAudio{}, errors.New("invalid wav stream")
	}

	channels := int(dec.NumChans)
	rate := int(dec.SampleRate)
	depth := int(dec.BitDepth)
	if channels == 0 || rate == 0 || depth == 0 {
		return DecodedAudio{}, errors.New("corrupt fmt chunk")
	}
	maxVal := float64(int(1) << uint(depth-1))

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:   make([]int, decodeChunkFrames*channels),
	}
	var data []float64
	for {
		n, err := dec.PCMBuffer(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return DecodedAudio{}, err
		}
		if n == 0 {
			break
		}
		for _, s := range buf.Data[:n] {
			data = append(data, float64(s)/maxVal)
		}
	}
	return DecodedAudio{SampleRate: rate, NumChannels: channels, Data: data}, nil
}

func decodeFlac(r io.ReadSeeker) (DecodedAudio, error) {
	stream, err := flac.New(r)
	if err != nil {
		return DecodedAudio{}, err
	}
	info := stream.Info
	channels := int(info.NChannels)
	maxVal := float64(int(1) << uint(info.BitsPerSample-1))

	var data []float64
	if info.NSamples > 0 {
		data = make([]float64, 0, int(info.NSamples)*channels)
	}
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return DecodedAudio{}, err
		}
		for i := 0; i < len(frame.Subframes[0].Samples); i++ {
			for ch := 0; ch < channels; ch++ {
				data = append(data, float64(frame.Subframes[ch].Samples[i])/maxVal)
			}
		}
	}
	return DecodedAudio{
		SampleRate:  int(info.SampleRate),
		NumChannels: channels,
		Data:        data,
	}, nil
}
