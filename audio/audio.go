// Package audio abstracts the OS audio subsystem behind a small backend
// interface so the recorder core can be tested without hardware.
package audio

import "fmt"

// SampleFormat identifies the representation of a single audio sample.
type SampleFormat int

const (
	Float32 SampleFormat = iota
	Int16
	Int32
)

// String returns the format name used in logs and CLI flags.
func (f SampleFormat) String() string {
	switch f {
	case Float32:
		return "f32"
	case Int16:
		return "i16"
	case Int32:
		return "i32"
	default:
		return fmt.Sprintf("SampleFormat(%d)", int(f))
	}
}

// Bytes returns the encoded size of one sample.
func (f SampleFormat) Bytes() int {
	switch f {
	case Int16:
		return 2
	default:
		return 4
	}
}

// ParseSampleFormat parses the names accepted by the CLI.
func ParseSampleFormat(s string) (SampleFormat, error) {
	switch s {
	case "f32", "float32":
		return Float32, nil
	case "i16", "int16":
		return Int16, nil
	case "i32", "int32":
		return Int32, nil
	}
	return Float32, fmt.Errorf("unknown sample format %q", s)
}

// Format describes a stream of interleaved audio samples. It is used both
// for the target format a caller configures and for the source format a
// device natively produces.
type Format struct {
	SampleRate int
	Channels   int
	Sample     SampleFormat
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%s", f.SampleRate, f.Channels, f.Sample)
}

// Device represents an audio input device.
type Device struct {
	ID       string
	Name     string
	Default  bool
	Channels int
	// DefaultRate is the device's preferred sample rate in Hz.
	DefaultRate int
}

// BlockFunc receives one block of captured samples, normalized to float32
// in [-1, 1] and interleaved per the stream's source Format. The slice is
// owned by the receiver; the backend does not reuse it.
type BlockFunc func(samples []float32)

// ErrorFunc receives a fatal stream error. After it is called no further
// blocks will be delivered.
type ErrorFunc func(err error)

// Backend is the device capability consumed by the recorder core.
type Backend interface {
	// DefaultInputDevice returns the system default input device.
	DefaultInputDevice() (Device, error)

	// Devices enumerates available input devices.
	Devices() ([]Device, error)

	// OpenStream opens a capture stream against dev and reports the format
	// the device will deliver. Callbacks do not fire until Stream.Start.
	OpenStream(dev Device, onBlock BlockFunc, onError ErrorFunc) (Stream, Format, error)

	// Close releases the audio subsystem.
	Close() error
}

// Stream is one open capture stream.
type Stream interface {
	Start() error

	// Stop halts capture. It does not return until the capture context has
	// quiesced: no onBlock or onError call happens after Stop returns.
	Stop() error

	// Close releases the stream. The stream must be stopped first.
	Close() error
}
