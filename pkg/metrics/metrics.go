// Package metrics provides Prometheus metrics for the Fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BatchesTotal tracks resolved batches by outcome
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "resolution",
			Name:      "batches_total",
			Help:      "Total number of resolution batches by status",
		},
		[]string{"status"},
	)

	// BatchDuration tracks end-to-end batch duration in seconds
	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "resolution",
			Name:      "batch_duration_seconds",
			Help:      "Duration of resolution batches in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"status"},
	)

	// MentionsTotal counts mentions submitted for resolution
	MentionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "resolution",
			Name:      "mentions_total",
			Help:      "Total number of entity mentions submitted",
		},
	)

	// ResolvedPairsTotal counts mention/entity pairs produced by the gateway
	ResolvedPairsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "resolution",
			Name:      "resolved_pairs_total",
			Help:      "Total number of resolved mention/entity pairs",
		},
	)

	// DisambiguationDuration tracks single gateway call duration
	DisambiguationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "disambiguation",
			Name:      "call_duration_seconds",
			Help:      "Duration of disambiguation calls in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"status"},
	)

	// RelationsDroppedTotal counts declared relations whose target never resolved
	RelationsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "graph",
			Name:      "relations_dropped_total",
			Help:      "Total number of declared relations dropped because the target did not resolve",
		},
	)

	// GraphWritesTotal counts store round trips by commit mode
	GraphWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "graph",
			Name:      "writes_total",
			Help:      "Total number of graph store writes by mode and status",
		},
		[]string{"mode", "status"},
	)

	// GraphStatementsTotal counts merge statements sent to the store
	GraphStatementsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "graph",
			Name:      "statements_total",
			Help:      "Total number of relationship merge statements committed",
		},
	)

	// CacheLookupsTotal tracks entity cache hits and misses
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of entity cache lookups by result",
		},
		[]string{"result"},
	)

	// EventsPublishedTotal tracks resolution events published to Kafka
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of events published by status",
		},
		[]string{"event_type", "status"},
	)

	// BatchesInFlight tracks batches currently being resolved
	BatchesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fern",
			Subsystem: "resolution",
			Name:      "batches_in_flight",
			Help:      "Number of batches currently being resolved",
		},
	)
)
