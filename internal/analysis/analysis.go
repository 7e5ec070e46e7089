// Package analysis keeps lightweight usage statistics about the chat,
// such as how many distinct people chatted recently.
package analysis

import (
	"sync"
	"time"
)

type sighting struct {
	addr string
	at   time.Time
}

// ChatterTracker is a bounded ring of recent client addresses.
// Only set membership inside the trailing window matters, so the order in which
// concurrent Record calls land is not significant.
type ChatterTracker struct {
	mu    sync.Mutex
	ring  []sighting
	next  int
	count int
}

// NewChatterTracker creates a tracker remembering at most capacity sightings.
func NewChatterTracker(capacity int) *ChatterTracker {
	if capacity < 1 {
		capacity = 1
	}
	return &ChatterTracker{ring: make([]sighting, capacity)}
}

// Record remembers that addr was seen at the given time, evicting the oldest
// sighting once the ring is full.
func (t *ChatterTracker) Record(addr string, at time.Time) {
	if addr == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ring[t.next] = sighting{addr: addr, at: at}
	t.next = (t.next + 1) % len(t.ring)
	if t.count < len(t.ring) {
		t.count++
	}
}

// UniqueSince counts distinct addresses seen at or after cutoff.
func (t *ChatterTracker) UniqueSince(cutoff time.Time) int {
	t.mu.Lock()
	snapshot := make([]sighting, t.count)
	copy(snapshot, t.ring[:t.count])
	t.mu.Unlock()

	seen := make(map[string]struct{}, len(snapshot))
	for _, s := range snapshot {
		if !s.at.Before(cutoff) {
			seen[s.addr] = struct{}{}
		}
	}
	return len(seen)
}
