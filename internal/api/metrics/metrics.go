// Package metrics defines and registers all custom Prometheus metrics for the
// finance tracker API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// init via promauto; HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "finance"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthEventsTotal counts authentication operations.
// Labels:
//   - event: "signup", "login", "refresh", "logout", "forgot_password", "reset_password"
//   - outcome: "success" or the error class ("invalid_credentials", "throttled", "invalid_token", …)
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of authentication operations, by event and outcome.",
	},
	[]string{"event", "outcome"},
)

// ── Entry metrics ─────────────────────────────────────────────────────────────

// EntryMutationsTotal counts successful entry writes.
// Label:
//   - op: "create", "update" or "delete"
var EntryMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entry_mutations_total",
		Help:      "Total number of successful entry mutations, by operation.",
	},
	[]string{"op"},
)

// EntryAmountTotal sums the amounts of created entries.
// Label:
//   - type: "earning" or "expense"
var EntryAmountTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entry_amount_total",
		Help:      "Sum of amounts of created entries, by entry type.",
	},
	[]string{"type"},
)

// ── Report metrics ────────────────────────────────────────────────────────────

// ReportQueryDuration measures how long report queries take.
// Label:
//   - report: "monthly" or "summary"
var ReportQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "report_query_duration_seconds",
		Help:      "Duration of report queries against the entry store.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"report"},
)
