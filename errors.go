package recorder

import "errors"

// Errors returned by the public API. Callers match them with errors.Is;
// returned values carry additional context from the audio backend.
var (
	// ErrInvalidConfig means the target format was rejected at construction.
	ErrInvalidConfig = errors.New("invalid recorder config")

	// ErrNoDevice means no suitable input device was available at Start.
	ErrNoDevice = errors.New("no input device found")

	// ErrOpenFailed means a device was found but the capture stream could
	// not be opened or started. Retryable once the device frees up.
	ErrOpenFailed = errors.New("failed to open capture stream")

	// ErrAlreadyRecording means Start was called while a session is active.
	ErrAlreadyRecording = errors.New("recording already in progress")

	// ErrStream means the device failed after a session started. The
	// session has already shut itself down and the delivery channel is
	// closed; the error is returned from the next Stop, once.
	ErrStream = errors.New("capture stream failed")
)
