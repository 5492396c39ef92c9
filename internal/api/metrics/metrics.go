// Package metrics defines all custom Prometheus metrics for the user
// directory API. It is the single source of truth for metric names, labels,
// and help strings; metrics self-register with the default registry via
// promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "user_directory"

// RoleUpdatesTotal counts role mutation attempts by outcome.
// Labels:
//   - outcome: "success", "unauthenticated", "forbidden", "invalid",
//     "not_found", or "error"
var RoleUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_updates_total",
		Help:      "Total number of role mutation requests, by outcome.",
	},
	[]string{"outcome"},
)

// UsersProvisionedTotal counts provisioning visits.
// Label:
//   - result: "created" (first visit) or "existing" (returning visit)
var UsersProvisionedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_provisioned_total",
		Help:      "Total number of provisioning visits, by result (created/existing).",
	},
	[]string{"result"},
)

// RateLimitedTotal counts requests rejected by the mutation rate limiter.
var RateLimitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
)
