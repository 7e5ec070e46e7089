package storage

import (
	"randomchat/backend/internal/models"
	"sync"
	"time"
)

// PairAttempt is the result of one atomic pass over the pending queue.
type PairAttempt struct {
	// Pruned lists sessions dropped for waiting longer than the timeout.
	Pruned []string
	// Partner is the claimed oldest waiting session, empty when none was eligible.
	Partner string
	// PartnerEnqueuedAt is when Partner joined the queue, for Restore.
	PartnerEnqueuedAt time.Time
	// Enqueued is true when the requester was appended to the tail.
	Enqueued bool
	// Busy is true when the requester is already waiting or being paired.
	Busy bool
}

// queue is a FIFO of waiting sessions plus the set of sessions claimed by an
// in-flight pairing. A session is never both queued and claimed.
type queue struct {
	mu      sync.Mutex
	entries []models.PendingEntry
	claimed map[string]struct{}
}

func newQueue() *queue {
	return &queue{claimed: make(map[string]struct{})}
}

func (q *queue) indexOf(id string) int {
	for i, e := range q.entries {
		if e.SessionID == id {
			return i
		}
	}
	return -1
}

func (q *queue) remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i := q.indexOf(id); i >= 0 {
		q.entries = append(q.entries[:i], q.entries[i+1:]...)
		return true
	}
	return false
}

// prune drops entries enqueued before cutoff. q.mu must be held.
func (q *queue) prune(cutoff time.Time) []string {
	var pruned []string
	kept := q.entries[:0]
	for _, e := range q.entries {
		if e.EnqueuedAt.Before(cutoff) {
			pruned = append(pruned, e.SessionID)
			continue
		}
		kept = append(kept, e)
	}
	q.entries = kept
	return pruned
}

// TryPair prunes entries enqueued before cutoff, then either claims the oldest
// waiting session other than requester (claiming requester too) or appends
// requester to the tail.
func (s *Service) TryPair(requester string, now, cutoff time.Time) PairAttempt {
	q := s.queue
	q.mu.Lock()
	defer q.mu.Unlock()

	res := PairAttempt{Pruned: q.prune(cutoff)}

	if _, ok := q.claimed[requester]; ok || q.indexOf(requester) >= 0 {
		res.Busy = true
		return res
	}

	for i, e := range q.entries {
		if e.SessionID == requester {
			continue
		}
		q.entries = append(q.entries[:i], q.entries[i+1:]...)
		q.claimed[e.SessionID] = struct{}{}
		q.claimed[requester] = struct{}{}
		res.Partner = e.SessionID
		res.PartnerEnqueuedAt = e.EnqueuedAt
		return res
	}

	q.entries = append(q.entries, models.PendingEntry{SessionID: requester, EnqueuedAt: now})
	res.Enqueued = true
	return res
}

// Prune drops entries enqueued before cutoff and returns their ids.
func (s *Service) Prune(cutoff time.Time) []string {
	q := s.queue
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.prune(cutoff)
}

// Restore ends the claim on e.SessionID and puts it back in the queue at its
// original position, as if the aborted pairing never popped it.
func (s *Service) Restore(e models.PendingEntry) bool {
	q := s.queue
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.claimed, e.SessionID)
	if q.indexOf(e.SessionID) >= 0 {
		return false
	}
	i := len(q.entries)
	for j, cur := range q.entries {
		if e.EnqueuedAt.Before(cur.EnqueuedAt) {
			i = j
			break
		}
	}
	q.entries = append(q.entries, models.PendingEntry{})
	copy(q.entries[i+1:], q.entries[i:])
	q.entries[i] = e
	return true
}

// Enqueue appends id to the tail unless it is already queued or claimed.
func (s *Service) Enqueue(id string, at time.Time) bool {
	q := s.queue
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.claimed[id]; ok || q.indexOf(id) >= 0 {
		return false
	}
	q.entries = append(q.entries, models.PendingEntry{SessionID: id, EnqueuedAt: at})
	return true
}

// Remove drops id from the pending queue.
func (s *Service) Remove(id string) bool {
	return s.queue.remove(id)
}

// Release ends the claim an in-flight pairing holds on the given sessions.
func (s *Service) Release(ids ...string) {
	q := s.queue
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, id := range ids {
		delete(q.claimed, id)
	}
}

func (s *Service) IsPending(id string) bool {
	q := s.queue
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.indexOf(id) >= 0
}

func (s *Service) IsClaimed(id string) bool {
	q := s.queue
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.claimed[id]
	return ok
}

func (s *Service) QueueLen() int {
	q := s.queue
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
