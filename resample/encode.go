package resample

import (
	"encoding/binary"
	"math"

	"github.com/mappa-audio/recorder-go/audio"
)

// Encode packs normalized float32 samples into little-endian PCM bytes in
// the given representation. Integer targets scale by the type's positive
// maximum, round half away from zero, and clamp to the type's range, so
// +1.0 maps to the maximum and out-of-range input cannot wrap.
func Encode(f audio.SampleFormat, samples []float32) []byte {
	out := make([]byte, len(samples)*f.Bytes())
	switch f {
	case audio.Int16:
		for i, s := range samples {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(clampInt(s, 32767, math.MinInt16, math.MaxInt16)))
		}
	case audio.Int32:
		for i, s := range samples {
			binary.LittleEndian.PutUint32(out[i*4:], uint32(clampInt(s, math.MaxInt32, math.MinInt32, math.MaxInt32)))
		}
	default:
		for i, s := range samples {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
		}
	}
	return out
}

func clampInt(s float32, scale, min, max float64) int64 {
	v := math.Round(float64(s) * scale)
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return int64(v)
}
