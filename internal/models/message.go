package models

import "time"

// SenderRole tells whose line a message is, from the log owner's point of view.
type SenderRole string

const (
	SenderSelf    SenderRole = "self"
	SenderPartner SenderRole = "partner"
	SenderSystem  SenderRole = "system"
)

// MessageKind separates ordinary lines from the refreshable searching notice.
type MessageKind string

const (
	KindText      MessageKind = "text"
	KindNotice    MessageKind = "notice"
	KindSearching MessageKind = "searching"
)

// Message is one line of a session's chat log.
type Message struct {
	// At is the UTC wall-clock time truncated to the minute.
	At     time.Time   `json:"at"`
	Sender SenderRole  `json:"sender"`
	Kind   MessageKind `json:"kind"`
	// Text is already sanitized for markup embedding.
	Text string `json:"text"`
}

// NewMessage builds a log line stamped with minute resolution.
func NewMessage(now time.Time, sender SenderRole, kind MessageKind, text string) Message {
	return Message{
		At:     now.UTC().Truncate(time.Minute),
		Sender: sender,
		Kind:   kind,
		Text:   text,
	}
}

// Clock renders the timestamp as HH:MM.
func (m Message) Clock() string {
	return m.At.Format("15:04")
}

// IsSystem reports whether the line was produced by the service itself.
func (m Message) IsSystem() bool {
	return m.Sender == SenderSystem
}

// Mirror returns the copy of a Self line as the partner sees it.
func (m Message) Mirror() Message {
	out := m
	out.Sender = SenderPartner
	return out
}
