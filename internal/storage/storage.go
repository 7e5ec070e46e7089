// Package storage is the in-memory session directory: the only owner of session
// records, message logs, auth tokens, per-session locks and the pending queue.
package storage

import (
	"errors"
	"randomchat/backend/internal/models"
	"sync"
	"time"
)

var (
	// ErrSessionNotFound signals that the id is unknown or was already removed.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned when Create is called with a taken id.
	ErrSessionExists = errors.New("session already exists")
)

// Storage is the contract of the session directory.
//
// WithLock and DeleteIf run their callback while holding the session lock.
// Callbacks may query the pending queue but must not call Get, WithLock,
// Delete or DeleteIf.
type Storage interface {
	Create(id, token string, now time.Time) (models.Session, error)
	Get(id string) (models.Session, bool)
	AuthToken(id string) (string, bool)
	WithLock(id string, fn func(s *models.Session) error) error
	Delete(id string) bool
	DeleteIf(id string, pred func(s *models.Session) bool) (models.Session, bool)
	IDs() []string
	Len() int

	TryPair(requester string, now, cutoff time.Time) PairAttempt
	Prune(cutoff time.Time) []string
	Enqueue(id string, at time.Time) bool
	Restore(e models.PendingEntry) bool
	Remove(id string) bool
	Release(ids ...string)
	IsPending(id string) bool
	IsClaimed(id string) bool
	QueueLen() int
}

type record struct {
	mu      sync.Mutex
	session models.Session
	deleted bool
}

// Service keeps everything in process memory.
type Service struct {
	mu      sync.RWMutex
	records map[string]*record

	queue *queue
}

// NewStorageService creates an empty directory.
func NewStorageService() *Service {
	return &Service{
		records: make(map[string]*record),
		queue:   newQueue(),
	}
}

// Create registers a new Searching session.
func (s *Service) Create(id, token string, now time.Time) (models.Session, error) {
	rec := &record{session: models.Session{
		ID:              id,
		AuthToken:       token,
		State:           models.StateSearching,
		CreatedAt:       now,
		SearchStartedAt: now,
		LastActiveAt:    now,
		Messages:        []models.Message{},
	}}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; ok {
		return models.Session{}, ErrSessionExists
	}
	s.records[id] = rec
	return rec.session.Clone(), nil
}

func (s *Service) lookup(id string) (*record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok
}

// Get returns a snapshot of the session. A missing id is not an error.
func (s *Service) Get(id string) (models.Session, bool) {
	rec, ok := s.lookup(id)
	if !ok {
		return models.Session{}, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return models.Session{}, false
	}
	return rec.session.Clone(), true
}

// WithLock gives fn exclusive access to one session. The lock is released on
// every exit path, including a panic inside fn.
func (s *Service) WithLock(id string, fn func(sess *models.Session) error) error {
	rec, ok := s.lookup(id)
	if !ok {
		return ErrSessionNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return ErrSessionNotFound
	}
	return fn(&rec.session)
}

// Delete removes the session and its pending entry. It reports whether anything was removed.
func (s *Service) Delete(id string) bool {
	_, ok := s.DeleteIf(id, func(*models.Session) bool { return true })
	return ok
}

// DeleteIf removes the session only when pred holds under the session lock,
// returning the final snapshot of the removed session.
func (s *Service) DeleteIf(id string, pred func(sess *models.Session) bool) (models.Session, bool) {
	rec, ok := s.lookup(id)
	if !ok {
		return models.Session{}, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted || !pred(&rec.session) {
		return models.Session{}, false
	}
	rec.deleted = true

	s.mu.Lock()
	if s.records[id] == rec {
		delete(s.records, id)
	}
	s.mu.Unlock()

	s.queue.remove(id)
	return rec.session.Clone(), true
}

// IDs returns a snapshot of all session ids.
func (s *Service) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of sessions held.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// AuthToken returns the stored auth token of a session.
func (s *Service) AuthToken(id string) (string, bool) {
	sess, ok := s.Get(id)
	if !ok {
		return "", false
	}
	return sess.AuthToken, true
}
