package chathub

import (
	"randomchat/backend/internal/models"
	"sync"
	"time"
)

// Channel is the outbound queue of one live connection.
// Producers never block on it; the connection drains it once per tick.
type Channel struct {
	mu      sync.Mutex
	queue   []models.Fragment
	touched time.Time
	closed  bool
}

// Closed reports whether the channel was replaced by a newer connection or discarded.
func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Channel) push(f models.Fragment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.queue = append(c.queue, f)
	}
}

func (c *Channel) drain(now time.Time) []models.Fragment {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touched = now
	out := c.queue
	c.queue = nil
	return out
}

func (c *Channel) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.queue = nil
}

func (c *Channel) idleSince(cutoff time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touched.Before(cutoff)
}

// UpdateChannels maps session ids to their current channel registration.
// A session lock may be held while calling into UpdateChannels, never the reverse.
type UpdateChannels struct {
	mu       sync.Mutex
	channels map[string]*Channel
}

// NewUpdateChannels creates an empty registry.
func NewUpdateChannels() *UpdateChannels {
	return &UpdateChannels{channels: make(map[string]*Channel)}
}

// Register installs a fresh channel for id, closing the previous one.
func (u *UpdateChannels) Register(id string, now time.Time) *Channel {
	ch := &Channel{touched: now}
	u.mu.Lock()
	old := u.channels[id]
	u.channels[id] = ch
	u.mu.Unlock()

	if old != nil {
		old.close()
	}
	return ch
}

// Touch keeps the registration of id alive, creating one if needed.
func (u *UpdateChannels) Touch(id string, now time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if ch, ok := u.channels[id]; ok {
		ch.mu.Lock()
		ch.touched = now
		ch.mu.Unlock()
		return
	}
	u.channels[id] = &Channel{touched: now}
}

// Push queues f for id. Fragments for ids without a registration are dropped;
// the session log still holds the underlying line.
func (u *UpdateChannels) Push(id string, f models.Fragment) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	ch, ok := u.channels[id]
	if !ok {
		return false
	}
	ch.push(f)
	return true
}

// Drain empties ch without blocking and marks it as active.
func (u *UpdateChannels) Drain(ch *Channel, now time.Time) []models.Fragment {
	return ch.drain(now)
}

// Has reports whether id has a registration.
func (u *UpdateChannels) Has(id string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.channels[id]
	return ok
}

// Remove discards the registration of id.
func (u *UpdateChannels) Remove(id string) {
	u.mu.Lock()
	ch, ok := u.channels[id]
	delete(u.channels, id)
	u.mu.Unlock()
	if ok {
		ch.close()
	}
}

// Sweep discards registrations idle since before cutoff or whose session is
// no longer alive according to alive. alive runs without the registry lock held,
// so it may take session locks. It returns the discarded ids.
func (u *UpdateChannels) Sweep(cutoff time.Time, alive func(id string) bool) []string {
	u.mu.Lock()
	snapshot := make(map[string]*Channel, len(u.channels))
	for id, ch := range u.channels {
		snapshot[id] = ch
	}
	u.mu.Unlock()

	var ids []string
	for id, ch := range snapshot {
		if !ch.idleSince(cutoff) && (alive == nil || alive(id)) {
			continue
		}
		u.mu.Lock()
		current := u.channels[id] == ch
		if current {
			delete(u.channels, id)
		}
		u.mu.Unlock()
		if current {
			ch.close()
			ids = append(ids, id)
		}
	}
	return ids
}

// Len returns the number of registrations.
func (u *UpdateChannels) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.channels)
}
