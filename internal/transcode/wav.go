package transcode

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"
)

// Canonical output geometry: mono 16-bit little-endian PCM in the fixed
// 44-byte RIFF header layout.
const (
	wavHeaderSize  = 44
	fmtChunkSize   = 16
	pcmFormat      = 1 // uncompressed integer PCM
	monoChannels   = 1
	outputBitDepth = 16
	bytesPerSample = 2
)

// WavHeader mirrors the 44-byte RIFF/WAVE/fmt/data layout field for field,
// so serializing it with encoding/binary yields the exact byte stream.
type WavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// newWavHeader fills a header for a mono 16-bit stream of sampleCount
// samples at the given rate. Chunk sizes are computed from the actual
// sample count, so an empty stream still yields a valid header.
func newWavHeader(sampleRate, sampleCount int) WavHeader {
	dataSize := uint32(sampleCount * bytesPerSample)
	return WavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: fmtChunkSize,
		AudioFormat:   pcmFormat,
		NumChannels:   monoChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * bytesPerSample),
		BlockAlign:    bytesPerSample * monoChannels,
		BitsPerSample: outputBitDepth,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
}

// WavContainer is the canonical transcoder output: a 44-byte header plus
// the quantized samples it describes.
type WavContainer struct {
	Header WavHeader
	Data   []int16
}

// NewWavContainer wraps quantized mono samples in a header for the rate.
func NewWavContainer(sampleRate int, data []int16) WavContainer {
	return WavContainer{
		Header: newWavHeader(sampleRate, len(data)),
		Data:   data,
	}
}

// Bytes serializes the container, header first, everything little-endian.
func (c WavContainer) Bytes() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(c.Data)*bytesPerSample))
	_ = binary.Write(buf, binary.LittleEndian, c.Header)
	_ = binary.Write(buf, binary.LittleEndian, c.Data)
	return buf.Bytes()
}

// WriteTo streams the serialized container to w.
func (c WavContainer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Bytes())
	return int64(n), err
}

// Duration reports the playing time of the contained audio.
func (c WavContainer) Duration() time.Duration {
	if c.Header.SampleRate == 0 {
		return 0
	}
	seconds := float64(len(c.Data)) / float64(c.Header.SampleRate)
	return time.Duration(seconds * float64(time.Second))
}

// Quantize maps float samples onto the full signed 16-bit range. Inputs
// clamp to [-1, 1]; negative values scale by 32768 and non-negative by
// 32767, then truncate toward zero. The asymmetric factors land both
// extremes exactly on the int16 bounds without overflow.
func Quantize(samples []float64) []int16 {
	pcm := make([]int16, len(samples))
	for i, s := range samples {
		s = clamp(s, -1.0, 1.0)
		if s < 0 {
			pcm[i] = int16(s * 32768)
		} else {
			pcm[i] = int16(s * 32767)
		}
	}
	return pcm
}

func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
