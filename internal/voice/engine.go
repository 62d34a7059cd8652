// Package voice supervises a speech engine that delivers finalized
// transcripts. Engines stop on their own; the session restarts them until it
// is stopped or the engine reports a fatal condition.
package voice

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrUnavailable      = errors.New("speech recognition unavailable")
	ErrAlreadyRunning   = errors.New("recognition already running")
)

// ErrEndOfStream ends a non-reopening transcript stream. It is fatal.
var ErrEndOfStream = fmt.Errorf("%w: end of transcript stream", ErrUnavailable)

// Engine listens until it terminates. Returning is the termination event;
// a nil error means the engine ended normally and may be restarted.
type Engine interface {
	Listen(ctx context.Context, onTranscript func(string)) error
}

type EngineFunc func(ctx context.Context, onTranscript func(string)) error

func (f EngineFunc) Listen(ctx context.Context, onTranscript func(string)) error {
	return f(ctx, onTranscript)
}

func isFatal(err error) bool {
	return errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrUnavailable)
}

type Status int

const (
	StatusIdle Status = iota
	StatusListening
	StatusRestarting
	StatusBlocked
)

func (s Status) String() string {
	switch s {
	case StatusListening:
		return "listening"
	case StatusRestarting:
		return "restarting"
	case StatusBlocked:
		return "blocked"
	default:
		return "idle"
	}
}
