// Package metrics registers the watchdog's Prometheus counters. They are
// exposed on the status probe's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsReceived counts dispute events accepted by the event loop.
	EventsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disputewatch_events_received_total",
		Help: "Dispute events accepted from the relay stream.",
	})

	// AlertsSent counts messages delivered to the notifier, by kind.
	AlertsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "disputewatch_alerts_sent_total",
		Help: "Messages successfully delivered to the notification sink.",
	}, []string{"kind"})

	// AlertsSuppressed counts dispute events dropped by a disabled gate.
	AlertsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disputewatch_alerts_suppressed_total",
		Help: "Dispute events whose status gate was disabled.",
	})

	// SendFailures counts failed notifier deliveries, by kind.
	SendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "disputewatch_send_failures_total",
		Help: "Failed deliveries to the notification sink.",
	}, []string{"kind"})

	// RelayReconnects counts reconnect attempts issued by the
	// connectivity task.
	RelayReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disputewatch_relay_reconnects_total",
		Help: "Relay reconnect attempts triggered by the connectivity check.",
	})
)

// Message kinds used as the "kind" label value.
const (
	KindDispute      = "dispute"
	KindHeartbeat    = "heartbeat"
	KindSilence      = "silence"
	KindConnectivity = "connectivity"
)
