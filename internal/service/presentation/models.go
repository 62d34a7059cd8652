package presentation

import (
	"github.com/sharetube/smartpresent/internal/playback"
	"github.com/sharetube/smartpresent/internal/repository/presentation"
)

// PlaybackState is what the presenter view renders.
type PlaybackState struct {
	playback.State
	Page       int     `json:"page"`
	Label      string  `json:"label"`
	Upcoming   string  `json:"upcoming"`
	Progress   float64 `json:"progress"`
	SlideCount int     `json:"slide_count"`
}

func newPlaybackState(deck playback.Deck, policy playback.Policy, state playback.State) PlaybackState {
	slide := deck[state.CurrentIndex]
	return PlaybackState{
		State:      state,
		Page:       slide.Page,
		Label:      slide.Command,
		Upcoming:   playback.Upcoming(deck, state, policy),
		Progress:   playback.Progress(deck, state),
		SlideCount: len(deck),
	}
}

type LogKind string

const (
	LogNeutral LogKind = "neutral"
	LogCommand LogKind = "cmd"
	LogError   LogKind = "error"
)

type LogEntry struct {
	Text string  `json:"text"`
	Kind LogKind `json:"kind"`
}

type MicStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// SlideView is what an audience screen shows.
type SlideView struct {
	Index int `json:"index"`
	Page  int `json:"page"`
}

type Presentation struct {
	ID           string            `json:"id"`
	Meta         presentation.Meta `json:"meta"`
	Slides       playback.Deck     `json:"slides"`
	CurrentIndex *int              `json:"current_index"`
}
