// Package resample converts interleaved audio between sample rates and
// channel layouts. Samples are normalized float32 in [-1, 1] throughout;
// conversion to integer PCM happens only at the encoding step.
package resample

import "fmt"

// Format mirrors audio.Format's rate and channel fields; the sample
// representation does not matter until encoding.
type Format struct {
	SampleRate int
	Channels   int
}

// Resampler converts blocks of interleaved samples from a source format to
// a target format. It carries interpolation state across calls so that
// successive blocks stitch together without discontinuities. A Resampler is
// bound to one capture session and is not safe for concurrent use.
type Resampler struct {
	src, dst Format
	identity bool

	// step is how far the read position advances per output frame,
	// measured in input frames.
	step float64
	// pos is the fractional read position into buf, in frames.
	pos float64
	// buf holds input frames (already in the target channel layout) not yet
	// fully consumed by interpolation. At most a couple of frames survive
	// between calls.
	buf []float32
}

// New creates a Resampler from src to dst. Rates and channel counts must be
// positive.
func New(src, dst Format) (*Resampler, error) {
	if src.SampleRate <= 0 || dst.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d -> %d", src.SampleRate, dst.SampleRate)
	}
	if src.Channels <= 0 || dst.Channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d -> %d", src.Channels, dst.Channels)
	}
	return &Resampler{
		src:      src,
		dst:      dst,
		identity: src == dst,
		step:     float64(src.SampleRate) / float64(dst.SampleRate),
	}, nil
}

// Process converts one block of interleaved source samples and returns the
// converted samples, interleaved per the target layout. The returned slice
// may be empty when downsampling a short block; the missing output is
// produced by a later call. When source and target formats match the input
// is returned as-is.
func (r *Resampler) Process(in []float32) []float32 {
	if len(in) == 0 {
		return nil
	}
	if r.identity {
		return in
	}

	mixed := ConvertChannels(in, r.src.Channels, r.dst.Channels)
	if r.src.SampleRate == r.dst.SampleRate {
		return mixed
	}
	return r.interpolate(mixed)
}

func (r *Resampler) interpolate(in []float32) []float32 {
	n := r.dst.Channels
	r.buf = append(r.buf, in...)
	frames := len(r.buf) / n

	// Worst-case output frames for this block, for allocation only.
	est := int(float64(frames)/r.step) + 2
	out := make([]float32, 0, est*n)

	pos := r.pos
	for int(pos)+1 < frames {
		i := int(pos)
		frac := float32(pos - float64(i))
		base := i * n
		for c := 0; c < n; c++ {
			a := r.buf[base+c]
			b := r.buf[base+n+c]
			out = append(out, a+(b-a)*frac)
		}
		pos += r.step
	}

	// Frames before the integer part of pos can never be read again.
	consumed := int(pos)
	if consumed > frames-1 {
		consumed = frames - 1
	}
	if consumed > 0 {
		r.buf = append(r.buf[:0], r.buf[consumed*n:]...)
		pos -= float64(consumed)
	}
	r.pos = pos

	return out
}

// ConvertChannels remaps interleaved samples from one channel count to
// another. Equal counts pass through unchanged. Any mismatch is resolved by
// averaging each frame down to mono and replicating the result across the
// target channels, which keeps the policy deterministic for every pair of
// counts.
func ConvertChannels(in []float32, from, to int) []float32 {
	if from == to {
		return in
	}

	frames := len(in) / from
	out := make([]float32, frames*to)
	for f := 0; f < frames; f++ {
		var sum float32
		for c := 0; c < from; c++ {
			sum += in[f*from+c]
		}
		mono := sum / float32(from)
		for c := 0; c < to; c++ {
			out[f*to+c] = mono
		}
	}
	return out
}
