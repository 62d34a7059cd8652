package voice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusLog struct {
	mu       sync.Mutex
	statuses []Status
	errs     []error
}

func (l *statusLog) record(st Status, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses = append(l.statuses, st)
	l.errs = append(l.errs, err)
}

func (l *statusLog) has(st Status) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.statuses {
		if s == st {
			return true
		}
	}
	return false
}

func TestSessionRestartsAfterTransientEnd(t *testing.T) {
	var starts atomic.Int32
	engine := EngineFunc(func(ctx context.Context, onTranscript func(string)) error {
		if starts.Add(1) <= 2 {
			return nil
		}
		<-ctx.Done()
		return ctx.Err()
	})

	log := &statusLog{}
	s := NewSession(engine, func(string) {}, WithRestartDelay(time.Millisecond), WithStatusFunc(log.record))
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return starts.Load() == 3 }, time.Second, 5*time.Millisecond)
	assert.True(t, s.Active())
	assert.True(t, log.has(StatusRestarting))

	s.Stop()
	assert.False(t, s.Active())
	assert.NoError(t, s.Err())
}

func TestSessionStopsOnPermissionDenied(t *testing.T) {
	var starts atomic.Int32
	engine := EngineFunc(func(context.Context, func(string)) error {
		starts.Add(1)
		return MapErrorCode("not-allowed")
	})

	log := &statusLog{}
	s := NewSession(engine, func(string) {}, WithRestartDelay(time.Millisecond), WithStatusFunc(log.record))
	s.Start(context.Background())

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not stop")
	}

	assert.False(t, s.Active())
	assert.ErrorIs(t, s.Err(), ErrPermissionDenied)
	assert.True(t, log.has(StatusBlocked))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), starts.Load(), "denied session must not restart")
}

func TestSessionStartIsIdempotent(t *testing.T) {
	var running, maxRunning atomic.Int32
	engine := EngineFunc(func(ctx context.Context, _ func(string)) error {
		n := running.Add(1)
		defer running.Add(-1)
		if n > maxRunning.Load() {
			maxRunning.Store(n)
		}
		<-ctx.Done()
		return ctx.Err()
	})

	s := NewSession(engine, func(string) {})
	ctx := context.Background()
	s.Start(ctx)
	s.Start(ctx)

	assert.Eventually(t, func() bool { return running.Load() == 1 }, time.Second, 5*time.Millisecond)
	s.Start(ctx)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), maxRunning.Load())

	s.Stop()
	assert.Equal(t, int32(0), running.Load())
}

func TestSessionSwallowsAlreadyRunning(t *testing.T) {
	var calls atomic.Int32
	engine := EngineFunc(func(ctx context.Context, _ func(string)) error {
		if calls.Add(1) == 1 {
			return ErrAlreadyRunning
		}
		<-ctx.Done()
		return ctx.Err()
	})

	s := NewSession(engine, func(string) {}, WithRestartDelay(time.Millisecond))
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.True(t, s.Active())
	s.Stop()
}

func TestSessionRestartableAfterStop(t *testing.T) {
	engine := EngineFunc(func(ctx context.Context, _ func(string)) error {
		<-ctx.Done()
		return ctx.Err()
	})

	s := NewSession(engine, func(string) {})
	s.Stop()

	s.Start(context.Background())
	assert.True(t, s.Active())
	s.Stop()
	assert.False(t, s.Active())

	s.Start(context.Background())
	assert.True(t, s.Active())
	s.Stop()
}

func TestFeedEngine(t *testing.T) {
	var starts atomic.Int32
	e := NewFeedEngine(func() { starts.Add(1) })

	var mu sync.Mutex
	var got []string
	s := NewSession(e, func(text string) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, text)
	}, WithRestartDelay(time.Millisecond))
	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return starts.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.True(t, e.Feed("next slide"))
	require.True(t, e.Terminate(nil))
	assert.Eventually(t, func() bool { return starts.Load() == 2 }, time.Second, 5*time.Millisecond)

	require.True(t, e.Feed("pause"))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"next slide", "pause"}, got)
	mu.Unlock()

	require.True(t, e.Terminate(MapErrorCode("not-allowed")))
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not stop")
	}
	assert.ErrorIs(t, s.Err(), ErrPermissionDenied)
}

func TestFeedEngineErrorThenEndRestartsOnce(t *testing.T) {
	var starts atomic.Int32
	e := NewFeedEngine(func() { starts.Add(1) })

	s := NewSession(e, func(string) {}, WithRestartDelay(20*time.Millisecond))
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool { return starts.Load() == 1 }, time.Second, 5*time.Millisecond)

	// A recognizer reports error and then end for one termination.
	require.True(t, e.Terminate(MapErrorCode("no-speech")))
	require.True(t, e.Terminate(nil))

	require.Eventually(t, func() bool { return starts.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return starts.Load() > 2 }, 200*time.Millisecond, 10*time.Millisecond)
	assert.True(t, s.Active())
}

func TestFeedEngineEndAfterDenialDoesNotLeak(t *testing.T) {
	var starts atomic.Int32
	e := NewFeedEngine(func() { starts.Add(1) })

	s := NewSession(e, func(string) {}, WithRestartDelay(time.Millisecond))
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool { return starts.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.True(t, e.Terminate(MapErrorCode("not-allowed")))
	e.Terminate(nil)
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not stop")
	}
	assert.False(t, e.Terminate(nil), "termination without a listener is dropped")

	s.Start(context.Background())
	require.Eventually(t, func() bool { return starts.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return starts.Load() > 2 }, 200*time.Millisecond, 10*time.Millisecond)
	assert.True(t, s.Active())
}

func TestFeedEngineDropsEventsWhileIdle(t *testing.T) {
	e := NewFeedEngine(nil)
	assert.False(t, e.Feed("next slide"))
	assert.False(t, e.Terminate(nil))
	assert.Empty(t, e.events)
}

func TestFeedEngineSingleListener(t *testing.T) {
	e := NewFeedEngine(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Listen(ctx, func(string) {}) }()

	assert.Eventually(t, func() bool { return e.listening.Load() }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, e.Listen(ctx, func(string) {}), ErrAlreadyRunning)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestMapErrorCode(t *testing.T) {
	assert.NoError(t, MapErrorCode(""))
	assert.ErrorIs(t, MapErrorCode("not-allowed"), ErrPermissionDenied)
	assert.ErrorIs(t, MapErrorCode("service-not-allowed"), ErrPermissionDenied)

	err := MapErrorCode("no-speech")
	require.Error(t, err)
	assert.False(t, isFatal(err))
}

func TestReaderEngine(t *testing.T) {
	e := NewReaderEngine(strings.NewReader("next\n\n  go to intro  \npause\n"))

	var got []string
	err := e.Listen(context.Background(), func(text string) { got = append(got, text) })
	assert.ErrorIs(t, err, ErrEndOfStream)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, []string{"next", "go to intro", "pause"}, got)

	err = e.Listen(context.Background(), func(string) {})
	assert.ErrorIs(t, err, ErrEndOfStream)
}

func TestReaderEngineInSession(t *testing.T) {
	e := NewReaderEngine(strings.NewReader("one\ntwo\n"))

	var mu sync.Mutex
	var got []string
	s := NewSession(e, func(text string) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, text)
	})
	s.Start(context.Background())

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not end with the stream")
	}

	assert.True(t, errors.Is(s.Err(), ErrEndOfStream))
	mu.Lock()
	assert.Equal(t, []string{"one", "two"}, got)
	mu.Unlock()
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "listening", StatusListening.String())
	assert.Equal(t, "restarting", StatusRestarting.String())
	assert.Equal(t, "blocked", StatusBlocked.String())
}
