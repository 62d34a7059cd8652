package voice

import (
	"context"
	"fmt"
	"sync/atomic"
)

const feedBufferSize = 32

type feedEvent struct {
	transcript string
	ended      bool
	err        error
}

// FeedEngine is driven by a remote recognizer. The remote side is asked to
// start on every Listen and reports transcripts and termination back through
// Feed and Terminate.
type FeedEngine struct {
	requestStart func()
	listening    atomic.Bool
	events       chan feedEvent
}

func NewFeedEngine(requestStart func()) *FeedEngine {
	return &FeedEngine{
		requestStart: requestStart,
		events:       make(chan feedEvent, feedBufferSize),
	}
}

func (e *FeedEngine) Listen(ctx context.Context, onTranscript func(string)) error {
	if !e.listening.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.listening.Store(false)

	// Events left over from the previous run, such as the end that follows
	// an error, belong to a recognizer that is already gone.
	e.drain()

	if e.requestStart != nil {
		e.requestStart()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-e.events:
			if ev.ended {
				return ev.err
			}
			onTranscript(ev.transcript)
		}
	}
}

// Feed queues a finalized transcript. It reports false when no Listen is
// running or the queue is full and the transcript was dropped.
func (e *FeedEngine) Feed(transcript string) bool {
	return e.push(feedEvent{transcript: transcript})
}

// Terminate ends the current Listen with err. It is a no-op when no Listen
// is running.
func (e *FeedEngine) Terminate(err error) bool {
	return e.push(feedEvent{ended: true, err: err})
}

func (e *FeedEngine) push(ev feedEvent) bool {
	if !e.listening.Load() {
		return false
	}

	select {
	case e.events <- ev:
		return true
	default:
		return false
	}
}

func (e *FeedEngine) drain() {
	for {
		select {
		case <-e.events:
		default:
			return
		}
	}
}

// MapErrorCode converts a recognizer error code into an engine error.
func MapErrorCode(code string) error {
	switch code {
	case "":
		return nil
	case "not-allowed", "service-not-allowed":
		return fmt.Errorf("%w: %s", ErrPermissionDenied, code)
	default:
		return fmt.Errorf("recognition error: %s", code)
	}
}
