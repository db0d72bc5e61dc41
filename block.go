package recorder

import (
	"encoding/binary"
	"math"

	"github.com/mappa-audio/recorder-go/audio"
)

// Block is one converted capture callback's worth of audio: interleaved
// little-endian samples in the target representation. Blocks arrive on the
// delivery channel in capture order, with no duplication.
type Block struct {
	// Data holds Frames*Format.Channels samples, little-endian.
	Data []byte
	// Frames is the number of sample frames in Data.
	Frames int
	// Format is the target format the recorder was configured with.
	Format audio.Format
}

// Float32s decodes Data as float32 samples. Valid only for Float32 blocks.
func (b Block) Float32s() []float32 {
	out := make([]float32, len(b.Data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b.Data[i*4:]))
	}
	return out
}

// Int16s decodes Data as int16 samples. Valid only for Int16 blocks.
func (b Block) Int16s() []int16 {
	out := make([]int16, len(b.Data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b.Data[i*2:]))
	}
	return out
}

// Int32s decodes Data as int32 samples. Valid only for Int32 blocks.
func (b Block) Int32s() []int32 {
	out := make([]int32, len(b.Data)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(b.Data[i*4:]))
	}
	return out
}

// Samples decodes Data to normalized float32 regardless of the block's
// representation, for consumers that want a uniform view.
func (b Block) Samples() []float32 {
	switch b.Format.Sample {
	case audio.Int16:
		raw := b.Int16s()
		out := make([]float32, len(raw))
		for i, v := range raw {
			out[i] = float32(v) / 32767
		}
		return out
	case audio.Int32:
		raw := b.Int32s()
		out := make([]float32, len(raw))
		for i, v := range raw {
			out[i] = float32(float64(v) / math.MaxInt32)
		}
		return out
	default:
		return b.Float32s()
	}
}
