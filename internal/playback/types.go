// Package playback holds the presenter's single source of truth: which slide
// is showing, whether the presentation runs, and how much time is left.
package playback

import (
	"errors"
	"fmt"
	"strings"
)

var ErrEmptyDeck = errors.New("deck has no slides")

// Slide is the presenter's configuration for one page of the deck.
type Slide struct {
	Page     int    `json:"page" toml:"page" validate:"min=1"`
	Command  string `json:"command" toml:"command" validate:"required,max=64"`
	Duration int    `json:"duration" toml:"duration" validate:"min=0"`
}

// Deck is the ordered, index-addressed slide sequence.
type Deck []Slide

func (d Deck) Labels() []string {
	labels := make([]string, len(d))
	for i, s := range d {
		labels[i] = s.Command
	}
	return labels
}

// DefaultDeck labels every page "Slide N" with a 20 second duration.
func DefaultDeck(pages int) Deck {
	deck := make(Deck, 0, pages)
	for i := 1; i <= pages; i++ {
		deck = append(deck, Slide{
			Page:     i,
			Command:  fmt.Sprintf("Slide %d", i),
			Duration: 20,
		})
	}
	return deck
}

type State struct {
	CurrentIndex int  `json:"current_index"`
	IsRunning    bool `json:"is_running"`
	IsPaused     bool `json:"is_paused"`
	TimeLeft     int  `json:"time_left"`
}

// BoundaryPolicy decides what next/prev do past either end of the deck.
type BoundaryPolicy int

const (
	BoundaryClamp BoundaryPolicy = iota
	BoundaryWrap
)

func (p BoundaryPolicy) String() string {
	if p == BoundaryWrap {
		return "wrap"
	}
	return "clamp"
}

func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp":
		return BoundaryClamp, nil
	case "wrap":
		return BoundaryWrap, nil
	}
	return BoundaryClamp, fmt.Errorf("unknown boundary policy %q", s)
}

// ExpiryPolicy decides what happens when a slide's countdown reaches zero.
type ExpiryPolicy int

const (
	ExpiryHold ExpiryPolicy = iota
	ExpiryAdvance
)

func (p ExpiryPolicy) String() string {
	if p == ExpiryAdvance {
		return "advance"
	}
	return "hold"
}

func ParseExpiryPolicy(s string) (ExpiryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hold":
		return ExpiryHold, nil
	case "advance":
		return ExpiryAdvance, nil
	}
	return ExpiryHold, fmt.Errorf("unknown expiry policy %q", s)
}

type Policy struct {
	Boundary BoundaryPolicy
	Expiry   ExpiryPolicy
}
