// Package metrics defines all custom Prometheus metrics for the newsletter
// service. It is the single source of truth for metric names, labels, and
// help strings; metrics register themselves with the default registry via
// promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "newsletter"

// SubscriptionsTotal counts signup attempts.
// Label:
//   - result: "ok", "invalid_input", "duplicate" or "error"
var SubscriptionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "subscriptions_total",
		Help:      "Total number of subscription attempts, by result.",
	},
	[]string{"result"},
)

// ConfirmationsTotal counts confirmation-link visits.
// Label:
//   - result: "ok", "invalid_input", "rejected" or "error"
var ConfirmationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "confirmations_total",
		Help:      "Total number of subscription confirmation attempts, by result.",
	},
	[]string{"result"},
)

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "ok", "rejected" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// PublishTotal counts newsletter publish requests.
// Label:
//   - result: "ok", "invalid_input" or "error"
var PublishTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "publish_total",
		Help:      "Total number of newsletter publish requests, by outcome.",
	},
	[]string{"result"},
)
