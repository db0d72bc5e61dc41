// Package recorder captures live audio from an input device, converts it to
// a caller-chosen target format, and delivers it as an ordered stream of
// blocks on a channel. At most one capture session is active per Recorder;
// share a single Recorder to get process-wide single-session capture.
package recorder

import (
	"fmt"
	"sync"

	"github.com/mappa-audio/recorder-go/audio"
	"github.com/mappa-audio/recorder-go/resample"
	"github.com/rs/zerolog"
)

// State is the recorder lifecycle state.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRecording
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Recorder controls the capture lifecycle. All methods are safe for
// concurrent use; Start and Stop are serialized so racing callers observe a
// single consistent transition order.
type Recorder struct {
	mu      sync.Mutex
	state   State
	cfg     Config
	backend audio.Backend
	sess    *session
	// pendingErr holds a fatal stream error from a session that shut itself
	// down, returned from the next Stop.
	pendingErr error
	log        zerolog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithBackend injects the device capability. Defaults to PortAudio, opened
// lazily on first Start so that New stays free of device access.
func WithBackend(b audio.Backend) Option {
	return func(r *Recorder) { r.backend = b }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Recorder) { r.log = log }
}

// New returns an idle Recorder for the given target format. It validates
// the config and touches no devices.
func New(cfg Config, opts ...Option) (*Recorder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	r := &Recorder{
		cfg: cfg,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Start opens a capture session against the default input device and
// returns the delivery channel. Blocks arrive in capture order, already
// converted to the configured target format. The channel is closed when the
// session ends, after which any buffered blocks remain drainable.
//
// Start fails with ErrAlreadyRecording while a session is active, and rolls
// back to idle on any open failure.
func (r *Recorder) Start() (<-chan Block, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reapLocked()

	if r.state != StateIdle {
		return nil, fmt.Errorf("%w: recorder is %s", ErrAlreadyRecording, r.state)
	}

	if r.backend == nil {
		b, err := audio.NewPortAudio()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
		}
		r.backend = b
	}

	r.state = StateStarting
	ch, err := r.openSessionLocked()
	if err != nil {
		r.state = StateIdle
		return nil, err
	}
	r.state = StateRecording
	return ch, nil
}

func (r *Recorder) openSessionLocked() (<-chan Block, error) {
	dev, err := r.backend.DefaultInputDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoDevice, err)
	}

	sess := newSession(r.cfg, r.log)
	stream, src, err := r.backend.OpenStream(dev, sess.onBlock, sess.onStreamError)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}

	rs, err := resample.New(
		resample.Format{SampleRate: src.SampleRate, Channels: src.Channels},
		resample.Format{SampleRate: r.cfg.SampleRate, Channels: r.cfg.Channels},
	)
	if err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	sess.attach(stream, rs)

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}

	r.log.Info().
		Str("device", dev.Name).
		Stringer("source", src).
		Stringer("target", r.cfg.Format()).
		Msg("Recording started")

	r.sess = sess
	return sess.out, nil
}

// Stop ends the active session: the device stream is halted, the capture
// context joined, and the delivery channel closed. Stopping an idle
// recorder is a no-op returning nil, except that a fatal stream error from
// a session that died on its own is returned here, once, wrapped in
// ErrStream.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reapLocked()

	if r.state == StateIdle {
		if r.pendingErr != nil {
			err := r.pendingErr
			r.pendingErr = nil
			return fmt.Errorf("%w: %w", ErrStream, err)
		}
		return nil
	}

	r.state = StateStopping
	err := r.sess.shutdown()
	r.sess = nil
	r.state = StateIdle
	r.log.Info().Msg("Recording stopped")

	if err != nil {
		return fmt.Errorf("%w: %w", ErrStream, err)
	}
	return nil
}

// IsRecording reports whether a capture session is active. A session that
// terminated on a stream error is observed here as not recording.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reapLocked()
	return r.state == StateRecording
}

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reapLocked()
	return r.state
}

// Config returns the configured target format. Valid in any state.
func (r *Recorder) Config() Config {
	return r.cfg
}

// Close stops any active session and releases the audio backend. The
// Recorder must not be used afterwards.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reapLocked()

	if r.sess != nil {
		if err := r.sess.shutdown(); err != nil {
			r.log.Error().Err(err).Msg("Session shutdown during close")
		}
		r.sess = nil
	}
	r.state = StateIdle
	r.pendingErr = nil

	if r.backend != nil {
		err := r.backend.Close()
		r.backend = nil
		return err
	}
	return nil
}

// reapLocked collects a session that shut itself down after a fatal stream
// error: the device handle is released, the state returns to idle, and the
// error is parked for the next Stop.
func (r *Recorder) reapLocked() {
	if r.sess == nil || !r.sess.terminated() {
		return
	}
	sess := r.sess
	r.sess = nil
	r.state = StateIdle
	sess.releaseStream()
	r.pendingErr = sess.takeErr()
}
