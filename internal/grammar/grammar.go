// Package grammar turns speech transcripts into playback commands.
//
// Trigger phrases are matched strictly (equality or substring) so that
// incidental speech never moves the deck. Fuzziness is only applied when a
// "go to" target is resolved against slide labels.
package grammar

import (
	"strings"

	"github.com/sharetube/smartpresent/pkg/fuzzy"
)

const gotoPrefix = "go to"

var (
	nextContains = []string{"next slide"}
	nextEquals   = []string{"go next", "next page"}
	prevContains = []string{"previous slide"}
	prevEquals   = []string{"go back", "last slide"}
	pauseEquals  = []string{"pause presentation", "stop presentation", "pause"}
	startEquals  = []string{"start presentation", "resume presentation"}
)

// Parse classifies a transcript. Rules are evaluated in a fixed order so
// overlapping phrases resolve the same way every time.
func Parse(transcript string) Command {
	clean := strings.TrimSpace(strings.ToLower(transcript))

	switch {
	case containsAny(clean, nextContains) || equalsAny(clean, nextEquals):
		return Command{Kind: KindNext, Raw: transcript}
	case containsAny(clean, prevContains) || equalsAny(clean, prevEquals):
		return Command{Kind: KindPrev, Raw: transcript}
	case equalsAny(clean, pauseEquals):
		return Command{Kind: KindPause, Raw: transcript}
	case equalsAny(clean, startEquals):
		return Command{Kind: KindStart, Raw: transcript}
	}

	if strings.HasPrefix(clean, gotoPrefix) {
		if target := strings.TrimSpace(strings.TrimPrefix(clean, gotoPrefix)); target != "" {
			return Command{Kind: KindGoto, Target: target, Raw: transcript}
		}
	}

	return Unrecognized(transcript)
}

// FromAction maps the remote-control vocabulary onto commands.
func FromAction(action, payload string) Command {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "next":
		return Command{Kind: KindNext, Raw: action}
	case "prev":
		return Command{Kind: KindPrev, Raw: action}
	case "pause":
		return Command{Kind: KindPause, Raw: action}
	case "start":
		return Command{Kind: KindStart, Raw: action}
	case "goto":
		if target := strings.TrimSpace(payload); target != "" {
			return Command{Kind: KindGoto, Target: target, Raw: action}
		}
	}

	return Unrecognized(action)
}

// Resolve returns the index of the slide label named by target.
//
// A label equal to target after case folding is preferred; otherwise the
// first label in deck order within fuzzy tolerance wins. Presenters with
// several similar labels disambiguate by ordering.
func Resolve(labels []string, target string) (int, bool) {
	for i, label := range labels {
		if strings.EqualFold(strings.TrimSpace(label), target) {
			return i, true
		}
	}

	for i, label := range labels {
		if fuzzy.IsMatch(strings.TrimSpace(label), target) {
			return i, true
		}
	}

	return -1, false
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func equalsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if s == p {
			return true
		}
	}
	return false
}
