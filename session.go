package recorder

import (
	"sync"

	"github.com/mappa-audio/recorder-go/audio"
	"github.com/mappa-audio/recorder-go/resample"
	"github.com/rs/zerolog"
)

// session owns one open device stream and the resampler bound to it. The
// capture callbacks (onBlock, onStreamError) run on the backend's execution
// context; everything else runs under the Recorder's lock. The two sides
// share only the session mutex, held briefly.
type session struct {
	target audio.Format
	stream audio.Stream
	rs     *resample.Resampler
	out    chan Block
	log    zerolog.Logger

	mu        sync.Mutex
	closed    bool
	err       error
	delivered uint64
	dropped   uint64
}

func newSession(cfg Config, log zerolog.Logger) *session {
	size := cfg.BufferSize
	if size == 0 {
		size = DefaultBufferSize
	}
	return &session{
		target: cfg.Format(),
		out:    make(chan Block, size),
		log:    log,
	}
}

// attach wires the opened stream and resampler in before the stream starts
// delivering callbacks.
func (s *session) attach(stream audio.Stream, rs *resample.Resampler) {
	s.stream = stream
	s.rs = rs
}

// onBlock is the capture callback: resample, encode, non-blocking push.
// When the consumer has fallen a full buffer behind, the new block is
// dropped so the device callback is never stalled.
func (s *session) onBlock(samples []float32) {
	converted := s.rs.Process(samples)
	if len(converted) == 0 {
		return
	}
	blk := Block{
		Data:   resample.Encode(s.target.Sample, converted),
		Frames: len(converted) / s.target.Channels,
		Format: s.target,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.out <- blk:
		s.delivered++
	default:
		s.dropped++
	}
}

// onStreamError is the capture error callback: the device is gone, so close
// the delivery channel and park the error for the Recorder to surface.
func (s *session) onStreamError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.err = err
	s.closed = true
	close(s.out)
	s.log.Error().Err(err).Msg("Capture stream failed")
}

// terminated reports whether the session shut itself down on a stream error.
func (s *session) terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed && s.err != nil
}

func (s *session) takeErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.err
	s.err = nil
	return err
}

// shutdown stops the stream, closes the delivery channel, and releases the
// device. Safe to call on a session that already terminated itself.
func (s *session) shutdown() error {
	stopErr := s.stream.Stop()
	if err := s.stream.Close(); err != nil && stopErr == nil {
		stopErr = err
	}

	// The stream has quiesced: no callback can race this close.
	s.mu.Lock()
	streamErr := s.err
	s.err = nil
	if !s.closed {
		s.closed = true
		close(s.out)
	}
	delivered, dropped := s.delivered, s.dropped
	s.mu.Unlock()

	if dropped > 0 {
		s.log.Warn().Uint64("delivered", delivered).Uint64("dropped", dropped).
			Msg("Capture session closed; consumer fell behind")
	} else {
		s.log.Info().Uint64("delivered", delivered).Uint64("dropped", dropped).
			Msg("Capture session closed")
	}

	if streamErr != nil {
		return streamErr
	}
	return stopErr
}

// releaseStream frees the device handle of a session that already
// terminated, ignoring errors from the dead stream.
func (s *session) releaseStream() {
	if err := s.stream.Stop(); err != nil {
		s.log.Debug().Err(err).Msg("Stopping failed stream")
	}
	if err := s.stream.Close(); err != nil {
		s.log.Debug().Err(err).Msg("Closing failed stream")
	}
}
