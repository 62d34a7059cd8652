package grammar

// Kind tags a Command.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindNext
	KindPrev
	KindPause
	KindStart
	KindGoto
)

func (k Kind) String() string {
	switch k {
	case KindNext:
		return "next"
	case KindPrev:
		return "prev"
	case KindPause:
		return "pause"
	case KindStart:
		return "start"
	case KindGoto:
		return "goto"
	default:
		return "unrecognized"
	}
}

// Command is one classified utterance or remote action. Target is set for
// KindGoto, Raw keeps the input as it arrived.
type Command struct {
	Kind   Kind
	Target string
	Raw    string
}

func Next() Command  { return Command{Kind: KindNext} }
func Prev() Command  { return Command{Kind: KindPrev} }
func Pause() Command { return Command{Kind: KindPause} }
func Start() Command { return Command{Kind: KindStart} }

func GotoByName(target string) Command {
	return Command{Kind: KindGoto, Target: target}
}

func Unrecognized(raw string) Command {
	return Command{Kind: KindUnrecognized, Raw: raw}
}
