package voice

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const DefaultRestartDelay = 500 * time.Millisecond

type Option func(*Session)

func WithRestartDelay(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.restartDelay = d
		}
	}
}

// WithStatusFunc registers a callback for status changes. It runs on the
// supervisor goroutine.
func WithStatusFunc(fn func(Status, error)) Option {
	return func(s *Session) {
		s.onStatus = fn
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session keeps one engine listening while active.
type Session struct {
	engine       Engine
	onTranscript func(string)
	restartDelay time.Duration
	onStatus     func(Status, error)
	logger       *slog.Logger

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func NewSession(engine Engine, onTranscript func(string), opts ...Option) *Session {
	s := &Session{
		engine:       engine,
		onTranscript: onTranscript,
		restartDelay: DefaultRestartDelay,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	closed := make(chan struct{})
	close(closed)
	s.done = closed

	return s
}

// Start begins listening. Starting an active session does nothing.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.active = true
	s.cancel = cancel
	s.done = done
	s.err = nil

	go s.run(ctx, done)
}

// Stop ends the loop and waits for the engine to return.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	<-done
}

func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Done is closed when the current loop exits.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Err returns the fatal error that ended the last loop, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		s.status(StatusListening, nil)
		err := s.engine.Listen(ctx, s.onTranscript)

		if ctx.Err() != nil {
			s.finish(done, nil)
			s.status(StatusIdle, nil)
			return
		}

		switch {
		case isFatal(err):
			s.logger.WarnContext(ctx, "recognition stopped", "error", err)
			s.finish(done, err)
			s.status(StatusBlocked, err)
			return
		case errors.Is(err, ErrAlreadyRunning):
			s.logger.DebugContext(ctx, "recognition already running")
			err = nil
		case err != nil:
			s.logger.InfoContext(ctx, "recognition terminated", "error", err)
		}

		s.status(StatusRestarting, err)

		timer := time.NewTimer(s.restartDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.finish(done, nil)
			s.status(StatusIdle, nil)
			return
		case <-timer.C:
		}
	}
}

func (s *Session) finish(done chan struct{}, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != done {
		return
	}
	s.active = false
	s.err = err
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) status(st Status, err error) {
	if s.onStatus != nil {
		s.onStatus(st, err)
	}
}
