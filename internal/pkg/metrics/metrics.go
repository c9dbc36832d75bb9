// Package metrics defines and registers the custom Prometheus metrics of the
// allergy tracker API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation (promauto); HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "allergy_tracker"

// ── Storage metrics ───────────────────────────────────────────────────────────

// TransactionDuration measures how long a MySQL transaction holds its
// connection, from BEGIN to COMMIT or ROLLBACK.
// Labels:
//   - op: repository operation (e.g. "assign_allergy", "delete_user")
//   - outcome: "commit" or "rollback"
var TransactionDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "transaction_duration_seconds",
		Help:      "Duration of storage transactions, by operation and outcome.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op", "outcome"},
)

// ── Relationship metrics ──────────────────────────────────────────────────────

// AssignmentsTotal counts allergy assignment attempts.
// Label:
//   - result: "created", "conflict", "not_found", "invalid" or "error"
var AssignmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assignments_total",
		Help:      "Total number of allergy assignment attempts, by result.",
	},
	[]string{"result"},
)

// ── Stats cache metrics ───────────────────────────────────────────────────────

// StatsCacheTotal counts cache lookups for aggregate reports.
// Label:
//   - result: "hit", "miss" or "error"
var StatsCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stats_cache_total",
		Help:      "Total number of stats cache lookups, labelled by result.",
	},
	[]string{"result"},
)

// ── Change event metrics ──────────────────────────────────────────────────────

// EventsDeliveredTotal counts change events handed successfully to a sink.
// Labels:
//   - sink: "audit" or "kafka"
//   - action: the change action (e.g. "created", "allergy_assigned")
var EventsDeliveredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_delivered_total",
		Help:      "Total number of change events delivered, by sink and action.",
	},
	[]string{"sink", "action"},
)

// EventsFailedTotal counts change events a sink rejected.
var EventsFailedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_failed_total",
		Help:      "Total number of change events that failed delivery, by sink.",
	},
	[]string{"sink"},
)

// EventsDroppedTotal counts events discarded because a worker queue was full
// or the dispatcher had already been closed.
var EventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of change events dropped on a full or closed dispatcher queue.",
	},
)

// EventsQueueDepth tracks the number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of change events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
