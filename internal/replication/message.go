package replication

type MessageType string

const (
	TypeChangeSlide   MessageType = "CHANGE_SLIDE"
	TypeRemoteCommand MessageType = "REMOTE_CMD"
)

// Remote-control actions carried by REMOTE_CMD.
const (
	ActionNext  = "next"
	ActionPrev  = "prev"
	ActionPause = "pause"
	ActionStart = "start"
	ActionGoto  = "goto"
)

// Message is what travels over the push channel. It is never persisted.
type Message struct {
	Type    MessageType `json:"type"`
	Index   *int        `json:"index,omitempty"`
	Action  string      `json:"action,omitempty"`
	Payload *string     `json:"payload,omitempty"`
}

func SlideChanged(index int) Message {
	return Message{Type: TypeChangeSlide, Index: &index}
}

func RemoteCommand(action, payload string) Message {
	msg := Message{Type: TypeRemoteCommand, Action: action}
	if payload != "" {
		msg.Payload = &payload
	}
	return msg
}

// SlideIndex returns the index of a CHANGE_SLIDE message.
func (m Message) SlideIndex() (int, bool) {
	if m.Type != TypeChangeSlide || m.Index == nil {
		return 0, false
	}
	return *m.Index, true
}

func (m Message) PayloadString() string {
	if m.Payload == nil {
		return ""
	}
	return *m.Payload
}

// Topic is the broadcast topic shared by every context of a presentation.
func Topic(presentationID string) string {
	return "smartpresent:" + presentationID + ":sync"
}
