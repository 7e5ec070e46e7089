// Package metrics exposes Prometheus instruments for the chat engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "randomchat_sessions_created_total",
			Help: "Total number of sessions minted",
		},
	)

	Pairings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "randomchat_pairings_total",
			Help: "Total number of pairs formed by the matcher",
		},
	)

	MessagesRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "randomchat_messages_total",
			Help: "Messages accepted by the relay, by delivery outcome",
		},
		[]string{"outcome"},
	)

	MessagesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "randomchat_messages_rejected_total",
			Help: "Messages rejected before any mutation",
		},
		[]string{"reason"},
	)

	Reaped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "randomchat_reaped_total",
			Help: "Entries evicted by the reaper",
		},
		[]string{"kind"},
	)

	PendingQueue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "randomchat_pending_queue_length",
			Help: "Sessions waiting for a partner",
		},
	)

	Sessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "randomchat_sessions",
			Help: "Sessions held in memory",
		},
	)

	Streams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "randomchat_streams_active",
			Help: "Open live update connections",
		},
	)
)
