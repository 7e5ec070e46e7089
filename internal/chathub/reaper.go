package chathub

import (
	"context"
	"randomchat/backend/internal/logger"
	"randomchat/backend/internal/metrics"
	"randomchat/backend/internal/models"
	"time"

	"go.uber.org/zap"
)

// SweepReport counts what one sweep evicted.
type SweepReport struct {
	PairedDropped     int
	PendingExpired    int
	ChannelsDiscarded int
	SessionsDiscarded int
}

// Empty reports whether the sweep changed nothing.
func (r SweepReport) Empty() bool {
	return r == SweepReport{}
}

// Reaper evicts idle pairings, stale channel registrations and orphaned sessions.
type Reaper struct {
	*core
}

func newReaper(c *core) *Reaper {
	return &Reaper{core: c}
}

// Run sweeps on every reap interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(r.settings.ReapInterval)
	defer ticker.Stop()

	r.log.Info("reaper started", zap.Duration("interval", r.settings.ReapInterval))
	for {
		select {
		case <-ctx.Done():
			r.log.Info("reaper stopped")
			return
		case <-ticker.C():
			report := r.Sweep(r.clock.Now())
			if !report.Empty() {
				r.log.Info("sweep finished",
					zap.Int("paired_dropped", report.PairedDropped),
					zap.Int("pending_expired", report.PendingExpired),
					zap.Int("channels_discarded", report.ChannelsDiscarded),
					zap.Int("sessions_discarded", report.SessionsDiscarded),
				)
			}
		}
	}
}

// Sweep runs one eviction pass as of now. Entries that disappear while the
// pass is running count as already cleaned, so Sweep is safe to repeat.
func (r *Reaper) Sweep(now time.Time) SweepReport {
	var report SweepReport

	idle := now.Add(-r.settings.PairedIdleTimeout)
	for _, id := range r.store.IDs() {
		gone, ok := r.store.DeleteIf(id, func(s *models.Session) bool {
			return s.IsPaired() && s.LastActiveAt.Before(idle)
		})
		if !ok {
			continue
		}
		report.PairedDropped++
		r.channels.Remove(id)
		r.abandon(gone.PartnerID, id, now)
		r.log.Debug("idle pairing dropped", logger.ShortID(id))
	}

	report.PendingExpired = len(r.store.Prune(now.Add(-r.settings.PendingTimeout)))

	alive := func(id string) bool {
		_, ok := r.store.Get(id)
		return ok
	}
	report.ChannelsDiscarded = len(r.channels.Sweep(now.Add(-r.settings.ChannelIdleTimeout), alive))

	// Sessions younger than one interval may still be mid-setup.
	settled := now.Add(-r.settings.ReapInterval)
	for _, id := range r.store.IDs() {
		_, ok := r.store.DeleteIf(id, func(s *models.Session) bool {
			return !s.CreatedAt.After(settled) && !s.IsPaired() && !r.store.IsPending(id) && !r.store.IsClaimed(id) && !r.channels.Has(id)
		})
		if ok {
			report.SessionsDiscarded++
			r.log.Debug("orphaned session discarded", logger.ShortID(id))
		}
	}

	metrics.Reaped.WithLabelValues("paired").Add(float64(report.PairedDropped))
	metrics.Reaped.WithLabelValues("pending").Add(float64(report.PendingExpired))
	metrics.Reaped.WithLabelValues("channel").Add(float64(report.ChannelsDiscarded))
	metrics.Reaped.WithLabelValues("session").Add(float64(report.SessionsDiscarded))
	r.observe()
	return report
}
