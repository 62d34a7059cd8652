package playback

import "golang.org/x/exp/constraints"

type ActionKind int

const (
	ActionNext ActionKind = iota
	ActionPrev
	ActionGoto
	ActionStart
	ActionTogglePause
	ActionTick
)

type Action struct {
	Kind  ActionKind
	Index int
}

func Next() Action        { return Action{Kind: ActionNext} }
func Prev() Action        { return Action{Kind: ActionPrev} }
func Goto(i int) Action   { return Action{Kind: ActionGoto, Index: i} }
func Start() Action       { return Action{Kind: ActionStart} }
func TogglePause() Action { return Action{Kind: ActionTogglePause} }
func Tick() Action        { return Action{Kind: ActionTick} }

// Effect describes what a reduction did beyond the new state.
type Effect struct {
	// Changed is set when any field of the state moved.
	Changed bool
	// Entered is set when a slide was (re-)entered: its timer was reset and
	// replicas must be told about the index.
	Entered bool
}

// Reduce applies a to s. It has no side effects; deck must not be empty.
func Reduce(deck Deck, s State, a Action, p Policy) (State, Effect) {
	n := len(deck)

	switch a.Kind {
	case ActionNext:
		return enter(deck, s, normalize(s.CurrentIndex+1, n, p.Boundary))
	case ActionPrev:
		return enter(deck, s, normalize(s.CurrentIndex-1, n, p.Boundary))
	case ActionGoto:
		return enter(deck, s, normalize(a.Index, n, p.Boundary))
	case ActionStart:
		if s.IsRunning && !s.IsPaused {
			return s, Effect{}
		}
		s.IsRunning = true
		s.IsPaused = false
		return enter(deck, s, normalize(s.CurrentIndex, n, BoundaryClamp))
	case ActionTogglePause:
		s.IsPaused = !s.IsPaused
		return s, Effect{Changed: true}
	case ActionTick:
		return tick(deck, s, p)
	}

	return s, Effect{}
}

// Counting reports whether the countdown should be live in state s.
func Counting(s State, p Policy) bool {
	if !s.IsRunning || s.IsPaused {
		return false
	}
	return s.TimeLeft > 0 || p.Expiry == ExpiryAdvance
}

func tick(deck Deck, s State, p Policy) (State, Effect) {
	if !s.IsRunning || s.IsPaused {
		return s, Effect{}
	}

	if s.TimeLeft > 0 {
		s.TimeLeft--
		if s.TimeLeft > 0 || p.Expiry == ExpiryHold {
			return s, Effect{Changed: true}
		}
	} else if p.Expiry == ExpiryHold {
		return s, Effect{}
	}

	// Expired with auto-advance: always loop back to the first slide.
	return enter(deck, s, wrap(s.CurrentIndex+1, len(deck)))
}

func enter(deck Deck, s State, index int) (State, Effect) {
	s.CurrentIndex = index
	s.TimeLeft = deck[index].Duration
	return s, Effect{Changed: true, Entered: true}
}

func normalize(i, n int, b BoundaryPolicy) int {
	if b == BoundaryWrap {
		return wrap(i, n)
	}
	return clamp(i, 0, n-1)
}

func clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func wrap[T constraints.Integer](i, n T) T {
	return ((i % n) + n) % n
}
