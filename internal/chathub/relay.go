package chathub

import (
	"context"
	"randomchat/backend/internal/auth"
	"randomchat/backend/internal/logger"
	"randomchat/backend/internal/metrics"
	"randomchat/backend/internal/models"
	"unicode/utf8"

	"go.uber.org/zap"
)

// SendResult carries the lines appended to the sender's own log.
type SendResult struct {
	Messages  []models.Message
	Delivered bool
}

// Relay validates, stores and mirrors chat messages.
type Relay struct {
	*core
	auth *auth.Authenticator
}

func newRelay(c *core, a *auth.Authenticator) *Relay {
	return &Relay{core: c, auth: a}
}

// validate checks text before anything is mutated. Length is counted in code
// points on the raw input.
func (r *Relay) validate(text string) error {
	n := utf8.RuneCountInString(text)
	switch {
	case n == 0:
		metrics.MessagesRejected.WithLabelValues("empty").Inc()
		return &ValidationError{Err: ErrEmptyMessage, Limit: r.settings.MaxMessageLength}
	case n > r.settings.MaxMessageLength:
		metrics.MessagesRejected.WithLabelValues("too_long").Inc()
		return &ValidationError{Err: ErrMessageTooLong, Length: n, Limit: r.settings.MaxMessageLength}
	}
	return nil
}

// Send appends text to the sender's log and, when the pairing is still mutual,
// mirrors it into the partner's log and queues it on the partner's channel.
//
// A partner that already left is reported as a system line in the result,
// before the sender's own message.
func (r *Relay) Send(ctx context.Context, id, token, text string) (SendResult, error) {
	if !r.auth.Validate(id, token) {
		return SendResult{}, ErrInvalidSession
	}
	if err := r.validate(text); err != nil {
		return SendResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}
	return r.send(id, text)
}

func (r *Relay) send(id, text string) (SendResult, error) {
	var res SendResult
	left, err := r.checkPartnerLeft(id, false)
	if err != nil {
		return res, err
	}
	if left != nil {
		res.Messages = append(res.Messages, *left)
	}

	now := r.clock.Now()
	line := models.NewMessage(now, models.SenderSelf, models.KindText, r.sanitize(text))

	var partnerID string
	err = r.store.WithLock(id, func(s *models.Session) error {
		s.Messages = append(s.Messages, line)
		s.LastActiveAt = now
		if s.IsPaired() {
			partnerID = s.PartnerID
		}
		return nil
	})
	if err != nil {
		return SendResult{}, ErrSessionGone
	}
	res.Messages = append(res.Messages, line)

	if partnerID != "" {
		mirrored := line.Mirror()
		_ = r.store.WithLock(partnerID, func(p *models.Session) error {
			if !p.IsPaired() || p.PartnerID != id {
				return nil
			}
			p.Messages = append(p.Messages, mirrored)
			r.channels.Push(partnerID, models.MessageFragment(mirrored))
			res.Delivered = true
			return nil
		})
	}

	outcome := "stored"
	if res.Delivered {
		outcome = "delivered"
	}
	metrics.MessagesRelayed.WithLabelValues(outcome).Inc()
	r.log.Debug("message relayed", logger.ShortID(id), zap.String("outcome", outcome))
	return res, nil
}
