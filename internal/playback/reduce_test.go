package playback

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeck() Deck {
	return Deck{
		{Page: 1, Command: "Intro", Duration: 10},
		{Page: 2, Command: "Financials", Duration: 20},
		{Page: 3, Command: "Roadmap", Duration: 5},
	}
}

func TestReduceNextPrevClamp(t *testing.T) {
	deck := testDeck()
	p := Policy{Boundary: BoundaryClamp}

	s, eff := Reduce(deck, State{}, Prev(), p)
	assert.Equal(t, 0, s.CurrentIndex)
	assert.True(t, eff.Entered)

	s, _ = Reduce(deck, s, Next(), p)
	s, _ = Reduce(deck, s, Next(), p)
	assert.Equal(t, 2, s.CurrentIndex)

	s, eff = Reduce(deck, s, Next(), p)
	assert.Equal(t, 2, s.CurrentIndex)
	assert.True(t, eff.Entered, "clamped next re-enters the last slide")
	assert.Equal(t, 5, s.TimeLeft)
}

func TestReduceNextPrevWrap(t *testing.T) {
	deck := testDeck()
	p := Policy{Boundary: BoundaryWrap}

	s, _ := Reduce(deck, State{}, Prev(), p)
	assert.Equal(t, 2, s.CurrentIndex)

	s, _ = Reduce(deck, s, Next(), p)
	assert.Equal(t, 0, s.CurrentIndex)
	assert.Equal(t, 10, s.TimeLeft)
}

func TestReduceGotoNormalizes(t *testing.T) {
	deck := testDeck()

	s, _ := Reduce(deck, State{}, Goto(42), Policy{Boundary: BoundaryClamp})
	assert.Equal(t, 2, s.CurrentIndex)

	s, _ = Reduce(deck, State{}, Goto(-7), Policy{Boundary: BoundaryClamp})
	assert.Equal(t, 0, s.CurrentIndex)

	s, _ = Reduce(deck, State{}, Goto(4), Policy{Boundary: BoundaryWrap})
	assert.Equal(t, 1, s.CurrentIndex)

	s, _ = Reduce(deck, State{}, Goto(-1), Policy{Boundary: BoundaryWrap})
	assert.Equal(t, 2, s.CurrentIndex)
}

func TestReduceIndexStaysInRange(t *testing.T) {
	deck := testDeck()
	rng := rand.New(rand.NewSource(7))

	for _, b := range []BoundaryPolicy{BoundaryClamp, BoundaryWrap} {
		s := State{}
		for i := 0; i < 1000; i++ {
			a := Next()
			if rng.Intn(2) == 0 {
				a = Prev()
			}
			s, _ = Reduce(deck, s, a, Policy{Boundary: b})
			require.GreaterOrEqual(t, s.CurrentIndex, 0)
			require.Less(t, s.CurrentIndex, len(deck))
		}
	}
}

func TestReduceGotoWhileStoppedResetsTimer(t *testing.T) {
	deck := testDeck()

	s, eff := Reduce(deck, State{TimeLeft: 3}, Goto(1), Policy{})
	assert.True(t, eff.Entered)
	assert.False(t, s.IsRunning)
	assert.Equal(t, 20, s.TimeLeft)
	assert.False(t, Counting(s, Policy{}))
}

func TestReduceStart(t *testing.T) {
	deck := testDeck()
	p := Policy{}

	s, eff := Reduce(deck, State{CurrentIndex: 1, TimeLeft: 3}, Start(), p)
	assert.True(t, s.IsRunning)
	assert.False(t, s.IsPaused)
	assert.Equal(t, 20, s.TimeLeft)
	assert.True(t, eff.Entered)

	s.TimeLeft = 12
	again, eff := Reduce(deck, s, Start(), p)
	assert.Equal(t, s, again, "start while running is a no-op")
	assert.False(t, eff.Changed)

	paused := State{CurrentIndex: 1, IsRunning: true, IsPaused: true, TimeLeft: 4}
	s, eff = Reduce(deck, paused, Start(), p)
	assert.False(t, s.IsPaused)
	assert.Equal(t, 20, s.TimeLeft, "start re-enters the slide")
	assert.True(t, eff.Entered)
}

func TestReducePauseToggleKeepsTimeLeft(t *testing.T) {
	deck := testDeck()
	p := Policy{}

	before := State{CurrentIndex: 1, IsRunning: true, TimeLeft: 13}

	s, eff := Reduce(deck, before, TogglePause(), p)
	assert.True(t, s.IsPaused)
	assert.False(t, eff.Entered)
	assert.False(t, Counting(s, p))

	s, _ = Reduce(deck, s, Tick(), p)
	assert.Equal(t, 13, s.TimeLeft, "no countdown while paused")

	s, _ = Reduce(deck, s, TogglePause(), p)
	assert.Equal(t, before, s)
}

func TestReduceTickOnlyWhileRunning(t *testing.T) {
	deck := testDeck()

	s, eff := Reduce(deck, State{TimeLeft: 10}, Tick(), Policy{})
	assert.Equal(t, 10, s.TimeLeft)
	assert.False(t, eff.Changed)

	s, eff = Reduce(deck, State{IsRunning: true, TimeLeft: 10}, Tick(), Policy{})
	assert.Equal(t, 9, s.TimeLeft)
	assert.True(t, eff.Changed)
	assert.False(t, eff.Entered)
}

func TestReduceExpiryHold(t *testing.T) {
	deck := testDeck()
	p := Policy{Expiry: ExpiryHold}

	s := State{CurrentIndex: 2, IsRunning: true, TimeLeft: 1}
	s, eff := Reduce(deck, s, Tick(), p)
	assert.Equal(t, 0, s.TimeLeft)
	assert.Equal(t, 2, s.CurrentIndex)
	assert.True(t, eff.Changed)
	assert.False(t, Counting(s, p))

	s, eff = Reduce(deck, s, Tick(), p)
	assert.Equal(t, 0, s.TimeLeft)
	assert.False(t, eff.Changed)
}

func TestReduceExpiryAdvanceWraps(t *testing.T) {
	deck := testDeck()
	p := Policy{Boundary: BoundaryClamp, Expiry: ExpiryAdvance}

	s := State{CurrentIndex: 2, IsRunning: true, TimeLeft: 1}
	s, eff := Reduce(deck, s, Tick(), p)
	assert.True(t, eff.Entered)
	assert.Equal(t, 0, s.CurrentIndex)
	assert.Equal(t, 10, s.TimeLeft)

	zero := Deck{{Page: 1, Command: "a", Duration: 0}, {Page: 2, Command: "b", Duration: 3}}
	s, eff = Reduce(zero, State{IsRunning: true}, Tick(), p)
	assert.True(t, eff.Entered)
	assert.Equal(t, 1, s.CurrentIndex)
}

func TestUpcoming(t *testing.T) {
	deck := testDeck()

	assert.Equal(t, "Next: Financials", Upcoming(deck, State{CurrentIndex: 0}, Policy{}))
	assert.Equal(t, "End of Presentation", Upcoming(deck, State{CurrentIndex: 2}, Policy{Boundary: BoundaryClamp}))
	assert.Equal(t, "Loop to Start", Upcoming(deck, State{CurrentIndex: 2}, Policy{Boundary: BoundaryWrap}))
}

func TestProgress(t *testing.T) {
	deck := testDeck()

	assert.Equal(t, 0.0, Progress(deck, State{CurrentIndex: 0, TimeLeft: 10}))
	assert.Equal(t, 0.5, Progress(deck, State{CurrentIndex: 0, TimeLeft: 5}))
	assert.Equal(t, 1.0, Progress(deck, State{CurrentIndex: 0, TimeLeft: 0}))
	assert.Equal(t, 1.0, Progress(Deck{{Page: 1, Command: "x"}}, State{}))
}

func TestParsePolicies(t *testing.T) {
	b, err := ParseBoundaryPolicy("WRAP")
	require.NoError(t, err)
	assert.Equal(t, BoundaryWrap, b)

	_, err = ParseBoundaryPolicy("bounce")
	assert.Error(t, err)

	e, err := ParseExpiryPolicy("advance")
	require.NoError(t, err)
	assert.Equal(t, ExpiryAdvance, e)

	e, err = ParseExpiryPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ExpiryHold, e)
}

func TestDefaultDeck(t *testing.T) {
	deck := DefaultDeck(3)
	require.Len(t, deck, 3)
	assert.Equal(t, Slide{Page: 2, Command: "Slide 2", Duration: 20}, deck[1])
	assert.Equal(t, []string{"Slide 1", "Slide 2", "Slide 3"}, deck.Labels())
}
