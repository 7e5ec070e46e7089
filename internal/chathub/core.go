package chathub

import (
	"errors"
	"randomchat/backend/internal/analysis"
	"randomchat/backend/internal/clock"
	"randomchat/backend/internal/config"
	"randomchat/backend/internal/localization"
	"randomchat/backend/internal/logger"
	"randomchat/backend/internal/metrics"
	"randomchat/backend/internal/models"
	"randomchat/backend/internal/storage"
	"strings"
	"time"

	"go.uber.org/zap"
)

// core holds the collaborators every engine component shares.
type core struct {
	store    storage.Storage
	channels *UpdateChannels
	clock    clock.Clock
	log      *zap.Logger
	sanitize func(string) string
	texts    *localization.Localizer
	chatters *analysis.ChatterTracker
	settings Settings
}

func newCore(o Options) *core {
	o = o.withDefaults()
	return &core{
		store:    o.Storage,
		channels: NewUpdateChannels(),
		clock:    o.Clock,
		log:      o.Logger,
		sanitize: o.Sanitizer,
		texts:    o.Localizer,
		chatters: o.Chatters,
		settings: o.Settings,
	}
}

func (c *core) notice(now time.Time, key string) models.Message {
	return models.NewMessage(now, models.SenderSystem, models.KindNotice, c.texts.GetString(c.settings.Language, key))
}

// searchingText renders the searching notice. The dot count grows with the
// wait and stops at config.MaxSearchDots.
func (c *core) searchingText(now, since time.Time) string {
	dots := 1 + int(now.Sub(since)/config.SearchDotStep)
	if dots < 1 {
		dots = 1
	}
	if dots > config.MaxSearchDots {
		dots = config.MaxSearchDots
	}
	chatters := c.chatters.UniqueSince(now.Add(-config.ChatterWindow))
	return c.texts.Format(c.settings.Language, localization.KeySearchProgress, strings.Repeat(".", dots), chatters)
}

// checkPartnerLeft turns a partner reference that no longer points back into
// a "partner left" notice in id's log. With notify set the notice is also
// queued on id's own channel. It returns the notice, or nil when nothing changed.
func (c *core) checkPartnerLeft(id string, notify bool) (*models.Message, error) {
	sess, ok := c.store.Get(id)
	if !ok {
		return nil, ErrSessionGone
	}
	if !sess.IsPaired() {
		return nil, nil
	}
	partnerID := sess.PartnerID
	// Both sides are claimed while a pairing is half-applied.
	if c.store.IsClaimed(id) || c.store.IsClaimed(partnerID) {
		return nil, nil
	}
	if partner, ok := c.store.Get(partnerID); ok && partner.IsPaired() && partner.PartnerID == id {
		return nil, nil
	}

	var left *models.Message
	err := c.store.WithLock(id, func(s *models.Session) error {
		if !s.IsPaired() || s.PartnerID != partnerID {
			return nil
		}
		m := c.notice(c.clock.Now(), localization.KeyPartnerLeft)
		s.PartnerID = ""
		s.State = models.StateAbandoned
		s.Messages = append(s.Messages, m)
		if notify {
			c.channels.Push(id, models.MessageFragment(m))
		}
		left = &m
		return nil
	})
	if errors.Is(err, storage.ErrSessionNotFound) {
		return nil, ErrSessionGone
	}
	if left != nil {
		c.log.Debug("partner left", logger.ShortID(id))
	}
	return left, err
}

// abandon clears the partner reference of id if it still points at gone,
// appending the notice and queueing it for id's connection.
func (c *core) abandon(id, gone string, now time.Time) bool {
	changed := false
	_ = c.store.WithLock(id, func(s *models.Session) error {
		if !s.IsPaired() || s.PartnerID != gone {
			return nil
		}
		m := c.notice(now, localization.KeyPartnerLeft)
		s.PartnerID = ""
		s.State = models.StateAbandoned
		s.Messages = append(s.Messages, m)
		c.channels.Push(id, models.MessageFragment(m))
		changed = true
		return nil
	})
	return changed
}

func (c *core) observe() {
	metrics.Sessions.Set(float64(c.store.Len()))
	metrics.PendingQueue.Set(float64(c.store.QueueLen()))
}
