// Package metrics defines and registers all custom Prometheus metrics for the
// roster API. It is the single source of truth for metric names, labels, and
// help strings. Metrics register with the default registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "roster"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts sign-in attempts.
// Label:
//   - result: "success" or "rejected"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of sign-in attempts, by result.",
	},
	[]string{"result"},
)

// SessionEventsTotal counts session-change notifications fanned out to watchers.
// Label:
//   - reason: "signed_out" or "expired"
var SessionEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_events_total",
		Help:      "Total number of session events dispatched, by reason.",
	},
	[]string{"reason"},
)

// SessionEventsQueueDepth tracks pending events in each dispatcher worker channel.
var SessionEventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_events_queue_depth",
		Help:      "Current number of session events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// SessionEventsDropped counts session events discarded because the dispatcher
// stopped before a worker could take them.
var SessionEventsDropped = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_events_dropped_total",
		Help:      "Total number of session events dropped during shutdown, by reason.",
	},
	[]string{"reason"},
)

// SessionStreamsActive is the number of open session-change streams.
var SessionStreamsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_streams_active",
		Help:      "Number of clients currently watching their session.",
	},
)

// ── Student metrics ───────────────────────────────────────────────────────────

// StudentsCreatedTotal counts newly created students.
// Label:
//   - source: "api" or "import"
var StudentsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "students_created_total",
		Help:      "Total number of students created, by source.",
	},
	[]string{"source"},
)

// StudentsDeletedTotal counts delete requests that reached the store.
var StudentsDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "students_deleted_total",
		Help:      "Total number of student removals.",
	},
)

// StoreErrorsTotal counts failed store operations.
// Label:
//   - op: "list", "create", "delete", "import"
var StoreErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_errors_total",
		Help:      "Total number of failed student store operations.",
	},
	[]string{"op"},
)
