package recorder

import (
	"fmt"

	"github.com/mappa-audio/recorder-go/audio"
)

// DefaultBufferSize is the delivery channel capacity, in blocks, when
// Config.BufferSize is zero. At the default 512-frame device granularity
// this is a little under half a second of audio headroom.
const DefaultBufferSize = 32

// Config describes the target format delivered to the consumer. It is fixed
// for the lifetime of a capture session.
type Config struct {
	// SampleRate is the delivered rate in Hz.
	SampleRate int
	// Channels is the delivered interleaved channel count.
	Channels int
	// Sample is the delivered sample representation.
	Sample audio.SampleFormat
	// BufferSize is the delivery channel capacity in blocks. When the
	// consumer falls this far behind, new blocks are dropped rather than
	// stalling the capture callback.
	BufferSize int
}

// DefaultConfig returns 16 kHz mono float32, the common speech-pipeline
// format.
func DefaultConfig() Config {
	return Config{
		SampleRate: 16000,
		Channels:   1,
		Sample:     audio.Float32,
		BufferSize: DefaultBufferSize,
	}
}

// Format returns the target format as an audio.Format.
func (c Config) Format() audio.Format {
	return audio.Format{SampleRate: c.SampleRate, Channels: c.Channels, Sample: c.Sample}
}

func (c Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("%w: channel count %d", ErrInvalidConfig, c.Channels)
	}
	switch c.Sample {
	case audio.Float32, audio.Int16, audio.Int32:
	default:
		return fmt.Errorf("%w: sample format %d", ErrInvalidConfig, int(c.Sample))
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("%w: buffer size %d", ErrInvalidConfig, c.BufferSize)
	}
	return nil
}
