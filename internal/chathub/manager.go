package chathub

import (
	"context"
	"errors"
	"randomchat/backend/internal/auth"
	"randomchat/backend/internal/config"
	"randomchat/backend/internal/logger"
	"randomchat/backend/internal/metrics"
	"randomchat/backend/internal/models"
	"randomchat/backend/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BeginRequest is one page load or poll of the chat surface.
type BeginRequest struct {
	ID       string
	Token    string
	Message  string
	ClientIP string
	// Replace discards the presented session, if owned, and starts a new one.
	Replace bool
}

// BeginResult describes the session the caller now owns.
type BeginResult struct {
	ID      string
	Token   string
	Created bool
	Session models.Session
}

// ManagerService is the entry point of the chat engine. It owns the shared
// state and the components working on it.
type ManagerService struct {
	*core

	Auth     *auth.Authenticator
	Matcher  *MatcherService
	Relay    *Relay
	Reaper   *Reaper
	// Channels is the update channel registry, exposed for inspection in tests.
	Channels *UpdateChannels
}

// NewManagerService wires an engine from opts. Zero-valued options get defaults.
func NewManagerService(opts Options) *ManagerService {
	c := newCore(opts)
	a := auth.NewAuthenticator(c.store)
	return &ManagerService{
		core:     c,
		Auth:     a,
		Matcher:  newMatcherService(c),
		Relay:    newRelay(c, a),
		Reaper:   newReaper(c),
		Channels: c.channels,
	}
}

// Storage exposes the session directory for tests and diagnostics.
func (m *ManagerService) Storage() storage.Storage {
	return m.store
}

// Run blocks running the background reaper until ctx is cancelled.
func (m *ManagerService) Run(ctx context.Context) {
	m.Reaper.Run(ctx)
}

// BeginOrResume resumes the session identified by req, or mints a new one
// when the credentials do not match or replacement was requested.
//
// An optional message is relayed first; a message that fails validation is
// dropped without an error so the page still loads.
func (m *ManagerService) BeginOrResume(ctx context.Context, req BeginRequest) (BeginResult, error) {
	now := m.clock.Now()
	m.chatters.Record(req.ClientIP, now)

	owned := req.ID != "" && m.Auth.Validate(req.ID, req.Token)
	if owned && req.Replace {
		m.discard(req.ID)
		owned = false
	}
	if !owned {
		return m.begin(ctx)
	}

	id := req.ID
	if req.Message != "" {
		if err := m.Relay.validate(req.Message); err == nil {
			if _, err := m.Relay.send(id, req.Message); err != nil {
				return BeginResult{}, err
			}
		}
	}
	if _, err := m.checkPartnerLeft(id, false); err != nil {
		return BeginResult{}, err
	}
	if _, err := m.requeue(ctx, id); err != nil {
		return BeginResult{}, err
	}
	m.channels.Touch(id, m.clock.Now())

	sess, ok := m.store.Get(id)
	if !ok {
		return BeginResult{}, ErrSessionGone
	}
	return BeginResult{ID: id, Token: req.Token, Session: sess}, nil
}

func (m *ManagerService) begin(ctx context.Context) (BeginResult, error) {
	id, token, err := m.Auth.Mint()
	if err != nil {
		return BeginResult{}, err
	}

	now := m.clock.Now()
	if _, err := m.store.Create(id, token, now); err != nil {
		return BeginResult{}, err
	}
	searching := models.NewMessage(now, models.SenderSystem, models.KindSearching, m.searchingText(now, now))
	if err := m.store.WithLock(id, func(s *models.Session) error {
		s.Messages = append(s.Messages, searching)
		return nil
	}); err != nil {
		return BeginResult{}, ErrSessionGone
	}
	m.channels.Touch(id, now)
	metrics.SessionsCreated.Inc()
	m.log.Info("session created", logger.ShortID(id))

	if _, err := m.Matcher.EnqueueOrPair(ctx, id); err != nil {
		return BeginResult{}, err
	}
	sess, ok := m.store.Get(id)
	if !ok {
		return BeginResult{}, ErrSessionGone
	}
	return BeginResult{ID: id, Token: token, Created: true, Session: sess}, nil
}

func (m *ManagerService) discard(id string) {
	if m.store.Delete(id) {
		m.channels.Remove(id)
		m.observe()
		m.log.Info("session replaced", logger.ShortID(id))
	}
}

// requeue puts a searching session whose pending entry expired back into the
// queue. Sessions still waiting in time are left where they are.
func (m *ManagerService) requeue(ctx context.Context, id string) (models.PairingOutcome, error) {
	sess, ok := m.store.Get(id)
	if !ok {
		return models.PairingOutcome{}, ErrSessionGone
	}
	if sess.State != models.StateSearching {
		return models.PairingOutcome{}, nil
	}
	return m.Matcher.EnqueueOrPair(ctx, id)
}

// Owns reports whether token authenticates id.
func (m *ManagerService) Owns(id, token string) bool {
	return m.Auth.Validate(id, token)
}

// Submit relays text from the session owner to the current partner.
func (m *ManagerService) Submit(ctx context.Context, id, token, text string) (SendResult, error) {
	return m.Relay.Send(ctx, id, token, text)
}

// Stream feeds the live connection of one session through emit until ctx is
// cancelled, emit fails, a newer connection takes over the session or the
// session is reaped.
func (m *ManagerService) Stream(ctx context.Context, id, token string, emit func(models.Fragment) error) error {
	if !m.Auth.Validate(id, token) {
		return ErrInvalidSession
	}

	var (
		ch      *Channel
		history []models.Message
	)
	err := m.store.WithLock(id, func(s *models.Session) error {
		ch = m.channels.Register(id, m.clock.Now())
		history = s.Clone().Messages
		return nil
	})
	if err != nil {
		return ErrSessionGone
	}

	l := m.log.With(logger.ShortID(id), zap.String("conn", uuid.NewString()))
	l.Debug("stream opened")
	metrics.Streams.Inc()
	defer metrics.Streams.Dec()

	if err := emit(models.Fragment{Kind: models.FragmentLog, Messages: history}); err != nil {
		return err
	}

	ticker := m.clock.NewTicker(m.settings.StreamTick)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			l.Debug("stream closed by peer")
			return nil
		case <-ticker.C():
		}

		seq++
		if ch.Closed() {
			if _, ok := m.store.Get(id); !ok {
				l.Debug("session removed while streaming")
				return ErrSessionGone
			}
			l.Debug("stream superseded")
			return nil
		}
		if err := m.tick(ctx, id, seq, emit); err != nil {
			if errors.Is(err, ErrSessionGone) {
				l.Debug("session removed while streaming")
			}
			return err
		}
		for _, f := range m.channels.Drain(ch, m.clock.Now()) {
			if err := emit(f); err != nil {
				return err
			}
		}
	}
}

func (m *ManagerService) tick(ctx context.Context, id string, seq uint64, emit func(models.Fragment) error) error {
	if _, err := m.checkPartnerLeft(id, true); err != nil {
		return err
	}

	outcome, err := m.requeue(ctx, id)
	if err != nil && ctx.Err() == nil {
		return err
	}
	if outcome.Notice != nil {
		if err := emit(models.MessageFragment(*outcome.Notice)); err != nil {
			return err
		}
	}

	if seq%config.SearchRefreshTicks == 0 {
		if f, ok := m.refreshSearching(id); ok {
			if err := emit(f); err != nil {
				return err
			}
		}
	}
	return emit(models.Fragment{Kind: models.FragmentKeepalive, Seq: seq})
}

// refreshSearching rewrites the searching notice of a session still waiting
// for a partner.
func (m *ManagerService) refreshSearching(id string) (models.Fragment, bool) {
	var (
		f  models.Fragment
		ok bool
	)
	now := m.clock.Now()
	_ = m.store.WithLock(id, func(s *models.Session) error {
		if s.State != models.StateSearching {
			return nil
		}
		for i := len(s.Messages) - 1; i >= 0; i-- {
			if s.Messages[i].Kind != models.KindSearching {
				continue
			}
			s.Messages[i].Text = m.searchingText(now, s.SearchStartedAt)
			msg := s.Messages[i]
			f = models.Fragment{Kind: models.FragmentSearching, Message: &msg}
			ok = true
			return nil
		}
		return nil
	})
	return f, ok
}
