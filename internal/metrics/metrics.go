// Package metrics exposes Prometheus collectors for the webhook path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsTotal counts inbound message events by outcome: "replied",
	// "ignored" or "error".
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgerbot",
		Name:      "events_total",
		Help:      "Inbound message events by outcome.",
	}, []string{"outcome"})

	// HandleDuration observes end-to-end handling time per event.
	HandleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ledgerbot",
		Name:      "handle_duration_seconds",
		Help:      "Time spent handling one inbound event.",
		Buckets:   prometheus.DefBuckets,
	})
)
