package models

import "time"

// SessionState is the lifecycle stage of a chat slot.
type SessionState string

const (
	// StateSearching means the session has no partner yet.
	StateSearching SessionState = "searching"
	// StatePaired means the session and its partner point at each other.
	StatePaired SessionState = "paired"
	// StateAbandoned means the partner left or was reaped.
	StateAbandoned SessionState = "abandoned"
)

// Session is one participant's slot in the random chat.
// Sessions live only in memory and are owned by the session directory.
type Session struct {
	// ID is the opaque public identifier of the session.
	ID string `json:"id"`
	// AuthToken is the secret that must accompany ID on every request.
	AuthToken string `json:"-"`
	// PartnerID is empty while searching or after the partner left.
	PartnerID string       `json:"partner_id,omitempty"`
	State     SessionState `json:"state"`

	CreatedAt       time.Time `json:"created_at"`
	SearchStartedAt time.Time `json:"search_started_at"`
	LastActiveAt    time.Time `json:"last_active_at"`

	// Messages is the append-only chat log shown to this participant.
	Messages []Message `json:"messages"`
}

// IsPaired reports whether the session currently references a partner.
func (s *Session) IsPaired() bool {
	return s.State == StatePaired && s.PartnerID != ""
}

// Clone returns a deep copy that is safe to hand out after the session lock is released.
func (s *Session) Clone() Session {
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return out
}

// PendingEntry is one session waiting in the matchmaking queue.
type PendingEntry struct {
	SessionID  string
	EnqueuedAt time.Time
}

// PairingOutcome is returned by the matcher.
type PairingOutcome struct {
	Paired    bool
	PartnerID string
	// Notice is the "partner found" line appended to the requester's log.
	Notice *Message
}
