package main

import (
	"errors"
	"testing"
	"time"

	recorder "github.com/mappa-audio/recorder-go"
	"github.com/mappa-audio/recorder-go/audio"
)

type collectWriter struct {
	blocks []recorder.Block
	err    error
}

func (c *collectWriter) WriteBlock(b recorder.Block) error {
	if c.err != nil {
		return c.err
	}
	c.blocks = append(c.blocks, b)
	return nil
}

// A device failure mid-recording closes the delivery channel on its own;
// capture must still report the stream error rather than returning success.
func TestCaptureSurfacesStreamError(t *testing.T) {
	backend := audio.NewMockBackend()
	rec, err := recorder.New(recorder.DefaultConfig(), recorder.WithBackend(backend))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	blocks, err := rec.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	backend.Stream().Push(make([]float32, 480))
	backend.Stream().Fail(errors.New("device disconnected"))

	w := &collectWriter{}
	frames, err := capture(rec, blocks, w, nil, nil)
	if !errors.Is(err, recorder.ErrStream) {
		t.Fatalf("expected ErrStream from capture, got %v", err)
	}
	if frames == 0 || len(w.blocks) == 0 {
		t.Error("audio buffered before the failure should still be written")
	}
}

func TestCaptureStopsOnTimeout(t *testing.T) {
	backend := audio.NewMockBackend()
	backend.SetSource(audio.Format{SampleRate: 16000, Channels: 1, Sample: audio.Float32})
	rec, err := recorder.New(recorder.Config{SampleRate: 16000, Channels: 1, Sample: audio.Float32},
		recorder.WithBackend(backend))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	blocks, err := rec.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	backend.Stream().Push(make([]float32, 64))

	timeout := make(chan time.Time, 1)
	timeout <- time.Time{}

	w := &collectWriter{}
	frames, err := capture(rec, blocks, w, nil, timeout)
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if frames != 64 {
		t.Errorf("expected 64 frames, got %d", frames)
	}
	if rec.IsRecording() {
		t.Error("recorder still recording after timeout stop")
	}
}

func TestCaptureWriteErrorStopsRecording(t *testing.T) {
	backend := audio.NewMockBackend()
	backend.SetSource(audio.Format{SampleRate: 16000, Channels: 1, Sample: audio.Float32})
	rec, err := recorder.New(recorder.Config{SampleRate: 16000, Channels: 1, Sample: audio.Float32},
		recorder.WithBackend(backend))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	blocks, err := rec.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	backend.Stream().Push(make([]float32, 32))

	sinkErr := errors.New("disk full")
	w := &collectWriter{err: sinkErr}
	if _, err := capture(rec, blocks, w, nil, nil); !errors.Is(err, sinkErr) {
		t.Fatalf("expected the writer error, got %v", err)
	}
	if rec.IsRecording() {
		t.Error("recorder still recording after a write failure")
	}
}
