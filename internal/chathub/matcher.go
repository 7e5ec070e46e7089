package chathub

import (
	"context"
	"errors"
	"randomchat/backend/internal/localization"
	"randomchat/backend/internal/logger"
	"randomchat/backend/internal/metrics"
	"randomchat/backend/internal/models"
	"randomchat/backend/internal/storage"

	"go.uber.org/zap"
)

var errNotWaiting = errors.New("session is no longer waiting")

// MatcherService pairs sessions waiting in the pending queue.
type MatcherService struct {
	*core
}

func newMatcherService(c *core) *MatcherService {
	return &MatcherService{core: c}
}

// EnqueueOrPair pairs id with the oldest waiting session, or appends id to the
// queue when nobody else is waiting.
//
// Entries older than the pending timeout are dropped first. The waiting side is
// updated first and notified through its update channel; the requester learns
// the result from the returned outcome. The two session locks are taken one
// after the other, never together.
func (m *MatcherService) EnqueueOrPair(ctx context.Context, id string) (models.PairingOutcome, error) {
	if out, waiting, err := m.current(id); !waiting {
		return out, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return models.PairingOutcome{}, err
		}

		now := m.clock.Now()
		attempt := m.store.TryPair(id, now, now.Add(-m.settings.PendingTimeout))
		for _, pruned := range attempt.Pruned {
			m.log.Debug("pending entry expired", logger.ShortID(pruned))
		}

		switch {
		case attempt.Busy:
			return models.PairingOutcome{}, nil
		case attempt.Enqueued:
			// Someone may have paired id between the first read and TryPair.
			if out, waiting, err := m.current(id); !waiting {
				m.store.Remove(id)
				m.observe()
				return out, err
			}
			m.log.Debug("waiting for a partner", logger.ShortID(id), zap.Int("queue", m.store.QueueLen()))
			m.observe()
			return models.PairingOutcome{}, nil
		}

		partnerID := attempt.Partner
		entry := models.PendingEntry{SessionID: partnerID, EnqueuedAt: attempt.PartnerEnqueuedAt}

		// id is claimed from here on, so its state can only change through this call.
		if out, waiting, err := m.current(id); !waiting {
			m.store.Restore(entry)
			m.store.Release(id)
			return out, err
		}

		found := m.notice(now, localization.KeyPartnerFound)

		err := m.store.WithLock(partnerID, func(p *models.Session) error {
			if p.State != models.StateSearching || p.PartnerID != "" {
				return errNotWaiting
			}
			p.PartnerID = id
			p.State = models.StatePaired
			p.LastActiveAt = now
			p.Messages = append(p.Messages, found)
			m.channels.Push(partnerID, models.MessageFragment(found))
			return nil
		})
		if errors.Is(err, storage.ErrSessionNotFound) || errors.Is(err, errNotWaiting) {
			// The waiting side vanished; try the next entry.
			m.store.Release(partnerID, id)
			continue
		}
		if err != nil {
			m.store.Release(partnerID, id)
			return models.PairingOutcome{}, err
		}

		err = m.store.WithLock(id, func(r *models.Session) error {
			if r.State != models.StateSearching || r.PartnerID != "" {
				return errNotWaiting
			}
			r.PartnerID = partnerID
			r.State = models.StatePaired
			r.LastActiveAt = now
			r.Messages = append(r.Messages, found)
			return nil
		})
		if err != nil {
			m.unpair(partnerID, id, found)
			m.store.Restore(entry)
			m.store.Release(id)
			m.observe()
			if errors.Is(err, errNotWaiting) {
				out, _, err := m.current(id)
				return out, err
			}
			return models.PairingOutcome{}, ErrSessionGone
		}
		m.store.Release(id, partnerID)

		metrics.Pairings.Inc()
		m.observe()
		m.log.Info("pair formed", logger.ShortID(id), logger.Short("partner", partnerID))
		return models.PairingOutcome{Paired: true, PartnerID: partnerID, Notice: &found}, nil
	}
}

// current reports id's existing pairing. waiting is true only while id is
// searching with no partner.
func (m *MatcherService) current(id string) (out models.PairingOutcome, waiting bool, err error) {
	sess, ok := m.store.Get(id)
	switch {
	case !ok:
		return models.PairingOutcome{}, false, ErrSessionGone
	case sess.IsPaired():
		return models.PairingOutcome{Paired: true, PartnerID: sess.PartnerID}, false, nil
	case sess.State != models.StateSearching || sess.PartnerID != "":
		return models.PairingOutcome{}, false, nil
	}
	return models.PairingOutcome{}, true, nil
}

// unpair returns partnerID to searching when its half of a pairing with id
// could not be completed.
func (m *MatcherService) unpair(partnerID, id string, found models.Message) {
	err := m.store.WithLock(partnerID, func(p *models.Session) error {
		if p.PartnerID != id {
			return nil
		}
		p.PartnerID = ""
		p.State = models.StateSearching
		if n := len(p.Messages); n > 0 && p.Messages[n-1] == found {
			p.Messages = p.Messages[:n-1]
		}
		return nil
	})
	if err != nil {
		m.log.Debug("rollback skipped", logger.ShortID(partnerID), zap.Error(err))
	}
}
