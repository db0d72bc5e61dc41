// Package wav writes recorded blocks to a WAV file. This is caller-side
// glue for the CLI; the recorder core deals only in raw sample blocks.
package wav

import (
	"fmt"
	"math"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	recorder "github.com/mappa-audio/recorder-go"
	"github.com/mappa-audio/recorder-go/audio"
)

// Writer encodes blocks into a PCM WAV file. Int16 and Float32 blocks are
// written as 16-bit PCM (floats are re-quantized), Int32 blocks as 32-bit.
type Writer struct {
	f      *os.File
	enc    *wav.Encoder
	format audio.Format
	depth  int
}

// Create opens path for writing and prepares a WAV encoder for the given
// target format.
func Create(path string, format audio.Format) (*Writer, error) {
	depth := 16
	if format.Sample == audio.Int32 {
		depth = 32
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &Writer{
		f:      f,
		enc:    wav.NewEncoder(f, format.SampleRate, depth, format.Channels, 1),
		format: format,
		depth:  depth,
	}, nil
}

// WriteBlock appends one block of samples.
func (w *Writer) WriteBlock(b recorder.Block) error {
	var data []int
	switch b.Format.Sample {
	case audio.Int16:
		raw := b.Int16s()
		data = make([]int, len(raw))
		for i, v := range raw {
			data[i] = int(v)
		}
	case audio.Int32:
		raw := b.Int32s()
		data = make([]int, len(raw))
		for i, v := range raw {
			data[i] = int(v)
		}
	default:
		raw := b.Float32s()
		data = make([]int, len(raw))
		for i, s := range raw {
			v := math.Round(float64(s) * 32767)
			if v > math.MaxInt16 {
				v = math.MaxInt16
			}
			if v < math.MinInt16 {
				v = math.MinInt16
			}
			data[i] = int(v)
		}
	}

	buf := &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: w.format.Channels,
			SampleRate:  w.format.SampleRate,
		},
		Data:           data,
		SourceBitDepth: w.depth,
	}
	if err := w.enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	return nil
}

// Close finalizes the WAV header and closes the file.
func (w *Writer) Close() error {
	if err := w.enc.Close(); err != nil {
		w.f.Close()
		return fmt.Errorf("failed to finalize wav file: %w", err)
	}
	return w.f.Close()
}
