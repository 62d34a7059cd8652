package playback

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const DefaultTickInterval = time.Second

// Listener observes a Machine. Callbacks run in transition order and must
// not call back into Machine transitions.
type Listener interface {
	OnSlideChanged(index int)
	OnStateChanged(state State)
}

// ListenerFuncs adapts plain functions to Listener; nil fields are skipped.
type ListenerFuncs struct {
	SlideChanged func(index int)
	StateChanged func(state State)
}

func (f ListenerFuncs) OnSlideChanged(index int) {
	if f.SlideChanged != nil {
		f.SlideChanged(index)
	}
}

func (f ListenerFuncs) OnStateChanged(state State) {
	if f.StateChanged != nil {
		f.StateChanged(state)
	}
}

type Config struct {
	Policy       Policy
	TickInterval time.Duration
}

// Machine owns the playback state of one presentation and its single
// countdown. All transitions go through Reduce.
type Machine struct {
	deck     Deck
	policy   Policy
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
	closed bool

	// emitMu keeps listener notifications in transition order.
	emitMu    sync.Mutex
	listeners []Listener
}

func NewMachine(deck Deck, cfg Config, logger *slog.Logger, listeners ...Listener) (*Machine, error) {
	if len(deck) == 0 {
		return nil, ErrEmptyDeck
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Machine{
		deck:      deck,
		policy:    cfg.Policy,
		interval:  cfg.TickInterval,
		logger:    logger,
		state:     State{TimeLeft: deck[0].Duration},
		listeners: listeners,
	}, nil
}

func (m *Machine) Deck() Deck     { return m.deck }
func (m *Machine) Policy() Policy { return m.policy }

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) Upcoming() string {
	return Upcoming(m.deck, m.State(), m.policy)
}

func (m *Machine) Next() State          { return m.Dispatch(Next()) }
func (m *Machine) Prev() State          { return m.Dispatch(Prev()) }
func (m *Machine) Goto(index int) State { return m.Dispatch(Goto(index)) }
func (m *Machine) Start() State         { return m.Dispatch(Start()) }
func (m *Machine) TogglePause() State   { return m.Dispatch(TogglePause()) }

// Dispatch applies a, keeps the countdown in line with the new state and
// notifies listeners before returning.
func (m *Machine) Dispatch(a Action) State {
	m.mu.Lock()
	if m.closed {
		state := m.state
		m.mu.Unlock()
		return state
	}
	return m.applyLocked(a)
}

// Close stops the countdown. Later transitions are ignored.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.stopCountdownLocked()
}

// applyLocked is entered with m.mu held and releases it.
func (m *Machine) applyLocked(a Action) State {
	next, eff := Reduce(m.deck, m.state, a, m.policy)
	m.state = next
	m.syncCountdownLocked(eff)

	m.emitMu.Lock()
	m.mu.Unlock()
	defer m.emitMu.Unlock()

	if eff.Entered {
		m.logger.Debug("slide entered", "index", next.CurrentIndex, "time_left", next.TimeLeft)
		for _, l := range m.listeners {
			l.OnSlideChanged(next.CurrentIndex)
		}
	}
	if eff.Changed {
		for _, l := range m.listeners {
			l.OnStateChanged(next)
		}
	}

	return next
}

func (m *Machine) syncCountdownLocked(eff Effect) {
	want := Counting(m.state, m.policy)

	switch {
	case eff.Entered || !want:
		m.stopCountdownLocked()
		if want {
			m.startCountdownLocked()
		}
	case m.cancel == nil:
		m.startCountdownLocked()
	}
}

func (m *Machine) startCountdownLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	m.gen++
	m.cancel = cancel
	go m.countdown(ctx, m.gen)
}

func (m *Machine) stopCountdownLocked() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.cancel = nil
	// Invalidates a tick that already fired and waits for the lock.
	m.gen++
}

func (m *Machine) countdown(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(gen)
		}
	}
}

func (m *Machine) tick(gen uint64) {
	m.mu.Lock()
	if m.closed || gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.applyLocked(Tick())
}
