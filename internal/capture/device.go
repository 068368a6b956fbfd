package capture

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// framesPerBuffer is the blocking-read batch size. 1024 frames is ~21ms
// at 48kHz and fills one analysis window per read.
const framesPerBuffer = 1024

// DeviceAccessError reports that a capture device could not be acquired:
// none present, not matching the selector, or refused by the host.
type DeviceAccessError struct {
	Device string
	Err    error
}

func (e *DeviceAccessError) Error() string {
	if e.Device == "" {
		return fmt.Sprintf("audio device access: %v", e.Err)
	}
	return fmt.Sprintf("audio device %q: %v", e.Device, e.Err)
}

func (e *DeviceAccessError) Unwrap() error { return e.Err }

// Init starts the audio host layer. Pair with Shutdown.
func Init() error {
	return portaudio.Initialize()
}

// Shutdown releases the audio host layer.
func Shutdown() error {
	return portaudio.Terminate()
}

// Device describes one input-capable capture device.
type Device struct {
	Index      int
	Name       string
	Channels   int
	SampleRate int
	Default    bool
}

// ListDevices enumerates the input-capable devices, in host order. The
// Index values are the ones the record command's device selector accepts.
func ListDevices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, &DeviceAccessError{Err: err}
	}
	def, _ := portaudio.DefaultInputDevice()

	var list []Device
	for i, d := range devices {
		if d.MaxInputChannels == 0 {
			continue
		}
		list = append(list, Device{
			Index:      i,
			Name:       d.Name,
			Channels:   d.MaxInputChannels,
			SampleRate: int(d.DefaultSampleRate),
			Default:    def != nil && d.Name == def.Name,
		})
	}
	return list, nil
}

// lookupInputDevice resolves a device selector: empty for the default
// input, a number for a device index, anything else a name prefix.
func lookupInputDevice(selector string) (*portaudio.DeviceInfo, error) {
	if selector == "" {
		return portaudio.DefaultInputDevice()
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	if i, err := strconv.Atoi(selector); err == nil {
		if i < 0 || i >= len(devices) {
			return nil, fmt.Errorf("device index %d out of range", i)
		}
		return devices[i], nil
	}
	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.HasPrefix(d.Name, selector) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no input device matching %q", selector)
}

// Source supplies mono float frames to the chain. Read blocks until the
// next batch is available; Stop unblocks a pending Read and releases the
// device.
type Source interface {
	SampleRate() int
	Read() ([]float32, error)
	Stop() error
}

// deviceSource is the live portaudio-backed Source.
type deviceSource struct {
	stream *portaudio.Stream
	buf    []float32
	rate   int
	name   string
}

// openDeviceSource acquires an input device as a mono blocking-read
// stream. No host-side processing (echo cancellation, auto gain) is
// requested; feature extraction needs the raw signal.
func openDeviceSource(selector string, sampleRate int) (*deviceSource, error) {
	info, err := lookupInputDevice(selector)
	if err != nil {
		return nil, &DeviceAccessError{Device: selector, Err: err}
	}
	if sampleRate <= 0 {
		sampleRate = int(info.DefaultSampleRate)
	}

	p := portaudio.HighLatencyParameters(info, nil)
	p.Input.Channels = 1
	p.Output.Channels = 0
	p.SampleRate = float64(sampleRate)
	p.FramesPerBuffer = framesPerBuffer

	buf := make([]float32, framesPerBuffer)
	stream, err := portaudio.OpenStream(p, buf)
	if err != nil {
		return nil, &DeviceAccessError{Device: info.Name, Err: err}
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, &DeviceAccessError{Device: info.Name, Err: err}
	}

	return &deviceSource{stream: stream, buf: buf, rate: sampleRate, name: info.Name}, nil
}

func (s *deviceSource) SampleRate() int { return s.rate }

func (s *deviceSource) Name() string { return s.name }

func (s *deviceSource) Read() ([]float32, error) {
	if err := s.stream.Read(); err != nil {
		return nil, err
	}
	return s.buf, nil
}

func (s *deviceSource) Stop() error {
	if err := s.stream.Stop(); err != nil {
		s.stream.Close()
		return err
	}
	return s.stream.Close()
}
