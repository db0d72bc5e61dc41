package resample

import (
	"math"
	"testing"
)

func mustNew(t *testing.T, src, dst Format) *Resampler {
	t.Helper()
	r, err := New(src, dst)
	if err != nil {
		t.Fatalf("New(%v, %v) failed: %v", src, dst, err)
	}
	return r
}

func sine(freq float64, rate, n int, phase float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2*math.Pi*freq*(phase+float64(i))/float64(rate)) * 0.8)
	}
	return out
}

func TestNewRejectsInvalidFormats(t *testing.T) {
	cases := []struct {
		src, dst Format
	}{
		{Format{0, 1}, Format{16000, 1}},
		{Format{48000, 1}, Format{-1, 1}},
		{Format{48000, 0}, Format{16000, 1}},
		{Format{48000, 2}, Format{16000, 0}},
	}
	for _, c := range cases {
		if _, err := New(c.src, c.dst); err == nil {
			t.Errorf("expected error for %v -> %v", c.src, c.dst)
		}
	}
}

func TestIdentityPassthrough(t *testing.T) {
	r := mustNew(t, Format{44100, 2}, Format{44100, 2})

	in := []float32{0.1, -0.2, 0.3, -0.4, 0.5, -0.6}
	got := r.Process(in)

	if len(got) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(got))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("sample %d changed: expected %f, got %f", i, in[i], got[i])
		}
	}
}

func TestDownsampleSampleCount(t *testing.T) {
	r := mustNew(t, Format{48000, 1}, Format{16000, 1})

	total := 0
	const blocks, blockLen = 10, 480
	for i := 0; i < blocks; i++ {
		total += len(r.Process(sine(440, 48000, blockLen, float64(i*blockLen))))
	}

	expected := blocks * blockLen / 3
	if total < expected-2 || total > expected {
		t.Fatalf("expected about %d output samples, got %d", expected, total)
	}
}

func TestUpsampleSampleCount(t *testing.T) {
	r := mustNew(t, Format{16000, 1}, Format{48000, 1})

	total := 0
	const blocks, blockLen = 10, 160
	for i := 0; i < blocks; i++ {
		total += len(r.Process(sine(200, 16000, blockLen, float64(i*blockLen))))
	}

	expected := blocks * blockLen * 3
	if total < expected-3 || total > expected {
		t.Fatalf("expected about %d output samples, got %d", expected, total)
	}
}

// Downsampling a sine fed in many small blocks must not produce jumps at
// block boundaries: the largest sample-to-sample delta stays close to the
// sine's own maximum slope at the output rate.
func TestDownsampleContinuityAcrossBlocks(t *testing.T) {
	r := mustNew(t, Format{48000, 1}, Format{16000, 1})

	var out []float32
	const blocks, blockLen = 100, 480
	for i := 0; i < blocks; i++ {
		out = append(out, r.Process(sine(440, 48000, blockLen, float64(i*blockLen)))...)
	}

	if len(out) < 1000 {
		t.Fatalf("too little output to judge continuity: %d samples", len(out))
	}

	// 0.8 * 2*pi*440/16000 ~= 0.138 per output sample at the steepest point.
	const maxDelta = 0.2
	for i := 1; i < len(out); i++ {
		if d := math.Abs(float64(out[i] - out[i-1])); d > maxDelta {
			t.Fatalf("discontinuity at sample %d: delta %f", i, d)
		}
	}

	// The tone should survive: roughly 2*440 zero crossings per second.
	seconds := float64(len(out)) / 16000
	expected := int(2 * 440 * seconds)
	crossings := 0
	for i := 1; i < len(out); i++ {
		if (out[i-1] < 0) != (out[i] < 0) {
			crossings++
		}
	}
	if crossings < expected-5 || crossings > expected+5 {
		t.Fatalf("expected about %d zero crossings, got %d", expected, crossings)
	}
}

// Converting up and back down again should reproduce the waveform within a
// small tolerance.
func TestRateConversionRoundTrip(t *testing.T) {
	up := mustNew(t, Format{16000, 1}, Format{48000, 1})
	down := mustNew(t, Format{48000, 1}, Format{16000, 1})

	var roundTrip []float32
	var original []float32
	const blocks, blockLen = 20, 160
	for i := 0; i < blocks; i++ {
		in := sine(300, 16000, blockLen, float64(i*blockLen))
		original = append(original, in...)
		roundTrip = append(roundTrip, down.Process(up.Process(in))...)
	}

	if len(roundTrip) < len(original)-4 {
		t.Fatalf("round trip lost too many samples: %d -> %d", len(original), len(roundTrip))
	}
	for i := 4; i < len(roundTrip)-4; i++ {
		if d := math.Abs(float64(roundTrip[i] - original[i])); d > 0.05 {
			t.Fatalf("round trip diverged at sample %d: delta %f", i, d)
		}
	}
}

func TestConvertChannelsPassthrough(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3, 0.4}
	got := ConvertChannels(in, 2, 2)
	if len(got) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(got))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("sample %d changed: expected %f, got %f", i, in[i], got[i])
		}
	}
}

func TestConvertChannelsStereoToMono(t *testing.T) {
	in := []float32{
		0.0, 1.0,
		0.5, 0.5,
		1.0, 0.0,
		-0.5, 0.5,
	}
	expected := []float32{0.5, 0.5, 0.5, 0.0}

	got := ConvertChannels(in, 2, 1)
	if len(got) != len(expected) {
		t.Fatalf("expected %d frames, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("frame %d mismatch: expected %f, got %f", i, expected[i], got[i])
		}
	}
}

func TestConvertChannelsMonoToStereo(t *testing.T) {
	in := []float32{0.25, -0.5}
	expected := []float32{0.25, 0.25, -0.5, -0.5}

	got := ConvertChannels(in, 1, 2)
	if len(got) != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("sample %d mismatch: expected %f, got %f", i, expected[i], got[i])
		}
	}
}

func TestConvertChannelsMixesThroughMono(t *testing.T) {
	// 3 channels -> 2 channels: each frame averages, then duplicates.
	in := []float32{
		1, 3, 5,
		2, 4, 6,
	}
	expected := []float32{3, 3, 4, 4}

	got := ConvertChannels(in, 3, 2)
	if len(got) != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("sample %d mismatch: expected %f, got %f", i, expected[i], got[i])
		}
	}
}

func TestStereoDownsampleKeepsFramesAligned(t *testing.T) {
	r := mustNew(t, Format{48000, 2}, Format{16000, 2})

	// Left and right carry distinct constants; after conversion every frame
	// must still hold them in order.
	const blockFrames = 480
	in := make([]float32, blockFrames*2)
	for f := 0; f < blockFrames; f++ {
		in[f*2] = 0.25
		in[f*2+1] = -0.75
	}

	var out []float32
	for i := 0; i < 5; i++ {
		out = append(out, r.Process(in)...)
	}

	if len(out) == 0 || len(out)%2 != 0 {
		t.Fatalf("expected a positive even sample count, got %d", len(out))
	}
	for f := 0; f < len(out)/2; f++ {
		if out[f*2] != 0.25 || out[f*2+1] != -0.75 {
			t.Fatalf("frame %d mixed channels: got (%f, %f)", f, out[f*2], out[f*2+1])
		}
	}
}
