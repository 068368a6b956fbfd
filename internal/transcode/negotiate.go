package transcode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// Codec identifies a capture encoding.
type Codec string

// Capture codecs, best first.
const (
	CodecFLAC  Codec = "flac"
	CodecPCM16 Codec = "pcm16"
)

// DefaultCodecOrder lists the encodings the capture side attempts.
// Negotiation walks the list and settles on the first codec with a
// registered encoder, so preference lives here and capability in
// chunkEncoders.
var DefaultCodecOrder = []Codec{CodecFLAC, CodecPCM16}

// ChunkEncoder turns conditioned mono chunks into encoded fragments and
// finally a complete container. Implementations are stateless; a session
// owns the fragment sequence.
type ChunkEncoder interface {
	// Codec identifies the negotiated encoding.
	Codec() Codec

	// EncodeChunk encodes one chunk of mono samples in [-1, 1].
	EncodeChunk(samples []float64) []byte

	// Container assembles the encoded fragments, in order, into one
	// complete container at the given sample rate. No fragments yields
	// a valid empty container.
	Container(sampleRate int, chunks [][]byte) []byte
}

type encoderBuilder func() ChunkEncoder

// chunkEncoders maps each codec to its constructor. CodecFLAC has no
// entry; mewkiz/flac is wired for the decode side only.
// TODO: register a FLAC chunk encoder once mewkiz/flac's encoder handles
// streamed frame-at-a-time writing, and drop PCM16 to fallback-only.
var chunkEncoders = map[Codec]encoderBuilder{
	CodecPCM16: newPCM16Encoder,
}

// UnsupportedFormatError reports that none of the candidate encodings
// could be negotiated.
type UnsupportedFormatError struct {
	Tried []Codec
}

func (e *UnsupportedFormatError) Error() string {
	names := make([]string, len(e.Tried))
	for i, c := range e.Tried {
		names[i] = string(c)
	}
	return fmt.Sprintf("no supported capture encoding (tried %s)", strings.Join(names, ", "))
}

// NegotiateEncoder walks the candidate codecs in order and returns an
// encoder for the first one supported. A nil or empty order means
// DefaultCodecOrder.
func NegotiateEncoder(order []Codec) (ChunkEncoder, error) {
	if len(order) == 0 {
		order = DefaultCodecOrder
	}
	for _, codec := range order {
		if build, ok := chunkEncoders[codec]; ok {
			return build(), nil
		}
	}
	return nil, &UnsupportedFormatError{Tried: append([]Codec(nil), order...)}
}

// pcm16Encoder encodes chunks as raw little-endian 16-bit PCM and wraps
// the concatenation in a WAV container.
type pcm16Encoder struct{}

func newPCM16Encoder() ChunkEncoder { return pcm16Encoder{} }

func (pcm16Encoder) Codec() Codec { return CodecPCM16 }

func (pcm16Encoder) EncodeChunk(samples []float64) []byte {
	pcm := Quantize(samples)
	out := make([]byte, len(pcm)*bytesPerSample)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(out[i*bytesPerSample:], uint16(s))
	}
	return out
}

func (pcm16Encoder) Container(sampleRate int, chunks [][]byte) []byte {
	size := 0
	for _, c := range chunks {
		size += len(c)
	}
	header := newWavHeader(sampleRate, size/bytesPerSample)

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+size))
	_ = binary.Write(buf, binary.LittleEndian, header)
	for _, c := range chunks {
		buf.Write(c)
	}
	return buf.Bytes()
}
