// Package recognition adapts a streaming speech-to-text engine into a
// start/stop transcription source with bounded network retries.
package recognition

import (
	"context"
	"errors"
)

var (
	// ErrUnsupported reports that no speech-to-text engine is configured.
	ErrUnsupported = errors.New("speech recognition is not supported")
	// ErrNoMicrophone reports that no capture device is available.
	ErrNoMicrophone = errors.New("no microphone available")
	// ErrNetwork marks recoverable transport failures. Engines wrap it.
	ErrNetwork = errors.New("network error")
)

// Result is one transcript update for the current utterance.
type Result struct {
	Transcript string
	Final      bool
}

// Sink receives asynchronous engine output for one stream.
type Sink interface {
	Result(Result)
	Error(error)
}

// Stream is an open recognition session.
type Stream interface {
	Close() error
}

// Engine is the speech-to-text capability.
type Engine interface {
	// Supported reports whether Open can be expected to work at all.
	Supported() bool
	Open(ctx context.Context, sink Sink) (Stream, error)
}

// IsRecoverable reports whether err should be retried.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrNetwork)
}
