package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pushMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_push_messages_total",
		Help: "Inbound push messages by event name.",
	}, []string{"event"})

	pushDiscardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_push_discarded_total",
		Help: "Push messages dropped without a store update.",
	}, []string{"reason"})

	roomsJoinedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telemetry_rooms_joined_total",
		Help: "Join messages sent to the push server.",
	})

	roomsLeftTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telemetry_rooms_left_total",
		Help: "Leave messages sent to the push server.",
	})

	connectedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "telemetry_session_connected",
		Help: "1 while the push session is connected.",
	})
)
