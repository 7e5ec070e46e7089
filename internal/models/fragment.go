package models

// FragmentKind names the kind of update pushed over a live connection.
type FragmentKind string

const (
	// FragmentLog carries the full chat log; it is sent once per connection.
	FragmentLog FragmentKind = "log"
	// FragmentMessage carries one new line for the log.
	FragmentMessage FragmentKind = "message"
	// FragmentSearching replaces the text of the searching notice.
	FragmentSearching FragmentKind = "searching"
	// FragmentKeepalive keeps intermediaries from closing an idle stream.
	FragmentKeepalive FragmentKind = "keepalive"
	// FragmentError reports a rejected submission on a bidirectional connection.
	FragmentError FragmentKind = "error"
)

// Fragment is one asynchronous update delivered to a session's live connection.
type Fragment struct {
	Kind     FragmentKind `json:"kind"`
	Seq      uint64       `json:"seq,omitempty"`
	Message  *Message     `json:"message,omitempty"`
	Messages []Message    `json:"messages,omitempty"`
	Text     string       `json:"text,omitempty"`
}

// MessageFragment wraps a single log line.
func MessageFragment(m Message) Fragment {
	return Fragment{Kind: FragmentMessage, Message: &m}
}
