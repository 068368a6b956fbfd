// Package transcode converts captured audio containers into the
// canonical export format: mono 16-bit PCM in a 44-byte-header WAV
// container. Decoding fans in from the supported capture codecs; the
// output layout is byte-exact regardless of the source.
package transcode

// ToWav converts any supported encoded container into the canonical WAV
// container: decode to float, downmix to mono, quantize to 16-bit.
func ToWav(blob []byte) (WavContainer, error) {
	decoded, err := Decode(blob)
	if err != nil {
		return WavContainer{}, err
	}
	return NewWavContainer(decoded.SampleRate, Quantize(decoded.Downmix())), nil
}
