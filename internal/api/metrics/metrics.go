// Package metrics defines and registers all custom Prometheus metrics for the
// posts service. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry through promauto
// when the package is imported; /metrics serves them alongside the HTTP
// metrics collected by echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "posts"

// Operation results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// ── Lifecycle metrics ─────────────────────────────────────────────────────────

// OperationsTotal counts lifecycle operations handled by the API.
// Labels:
//   - operation: list_public, list_owned, get, create, update, set_published, delete
//   - result: "ok" or the error kind (e.g. "not_found", "validation")
var OperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Total number of post lifecycle operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// ── Event metrics ─────────────────────────────────────────────────────────────

// EventsRecordedTotal counts post events written to the audit trail.
// Label:
//   - type: created, updated, published, unpublished, deleted
var EventsRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_recorded_total",
		Help:      "Total number of post events persisted, by type.",
	},
	[]string{"type"},
)

// EventsErrorsTotal counts events the audit worker failed to persist.
var EventsErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_errors_total",
		Help:      "Total number of post events that failed to persist.",
	},
)

// EventsDroppedTotal counts events discarded because a worker buffer was full.
var EventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of post events dropped on a full dispatcher buffer.",
	},
)

// EventsQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Identity metrics ──────────────────────────────────────────────────────────

// SessionsTotal counts sign-ins that produced a credential.
// Label:
//   - provider: local, google, github
var SessionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_total",
		Help:      "Total number of successful sign-ins, by provider.",
	},
	[]string{"provider"},
)
