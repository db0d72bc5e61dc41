package audio

import (
	"errors"
	"sync"
)

// MockBackend implements Backend for hardware-independent tests. Tests drive
// capture by pushing blocks into the opened MockStream.
type MockBackend struct {
	mu        sync.Mutex
	source    Format
	devices   []Device
	noDevice  bool
	openErr   error
	openCount int
	last      *MockStream
}

// NewMockBackend returns a backend with a single default input device that
// produces 48 kHz mono float32 audio.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		source: Format{SampleRate: 48000, Channels: 1, Sample: Float32},
		devices: []Device{
			{ID: "mock-input", Name: "Mock Input", Default: true, Channels: 2, DefaultRate: 48000},
		},
	}
}

// SetSource configures the format reported for subsequently opened streams.
func (m *MockBackend) SetSource(f Format) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.source = f
}

// SetNoDevice makes DefaultInputDevice fail, simulating no attached input.
func (m *MockBackend) SetNoDevice(missing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.noDevice = missing
}

// SetOpenError makes OpenStream fail, simulating a busy device.
func (m *MockBackend) SetOpenError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
}

// OpenCount reports how many streams have been opened.
func (m *MockBackend) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openCount
}

// Stream returns the most recently opened stream.
func (m *MockBackend) Stream() *MockStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *MockBackend) DefaultInputDevice() (Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.noDevice || len(m.devices) == 0 {
		return Device{}, errors.New("no input device available")
	}
	return m.devices[0], nil
}

func (m *MockBackend) Devices() ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Device(nil), m.devices...), nil
}

func (m *MockBackend) OpenStream(dev Device, onBlock BlockFunc, onError ErrorFunc) (Stream, Format, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return nil, Format{}, m.openErr
	}
	s := &MockStream{onBlock: onBlock, onError: onError}
	m.last = s
	m.openCount++
	return s, m.source, nil
}

func (m *MockBackend) Close() error { return nil }

// MockStream stands in for a device stream. Push and Fail play the role of
// the OS audio callback; both are no-ops unless the stream is running.
type MockStream struct {
	mu      sync.Mutex
	onBlock BlockFunc
	onError ErrorFunc
	running bool
	closed  bool
}

// Push delivers one block of source-format samples to the capture callback.
// It reports whether the block was delivered.
func (s *MockStream) Push(samples []float32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.onBlock(samples)
	return true
}

// Fail injects a fatal stream error, after which the stream delivers nothing.
func (s *MockStream) Fail(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.running = false
	s.onError(err)
	return true
}

// Running reports whether the stream is started and not stopped.
func (s *MockStream) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Closed reports whether Close has been called.
func (s *MockStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *MockStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("stream is closed")
	}
	s.running = true
	return nil
}

// Stop halts delivery. Holding the mutex here gives the same guarantee as a
// real backend: no callback is in flight once Stop returns.
func (s *MockStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

func (s *MockStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.closed = true
	return nil
}
