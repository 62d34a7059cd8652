package playback

const (
	endOfPresentation = "End of Presentation"
	loopToStart       = "Loop to Start"
)

// Upcoming is the presenter's hint for what "next slide" will show.
func Upcoming(deck Deck, s State, p Policy) string {
	if s.CurrentIndex+1 < len(deck) {
		return "Next: " + deck[s.CurrentIndex+1].Command
	}
	if p.Boundary == BoundaryWrap {
		return loopToStart
	}
	return endOfPresentation
}

// Progress is the elapsed share of the current slide's duration, in [0, 1].
func Progress(deck Deck, s State) float64 {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(deck) {
		return 0
	}
	total := deck[s.CurrentIndex].Duration
	if total <= 0 {
		return 1
	}
	return float64(total-clamp(s.TimeLeft, 0, total)) / float64(total)
}
