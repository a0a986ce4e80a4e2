// Package metrics defines and registers all custom Prometheus metrics for
// the GearGuard identity API. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics use promauto, so importing the package registers them with the
// default registry; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gearguard"

// LoginsTotal counts login attempts.
// Label:
//   - outcome: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// UsersProvisionedTotal counts accounts created through the API, including
// the one-time admin bootstrap.
// Label:
//   - role: the role of the created account
var UsersProvisionedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_provisioned_total",
		Help:      "Total number of user accounts created, by role.",
	},
	[]string{"role"},
)

// TokensRevokedTotal counts tokens placed on the denylist by logout.
var TokensRevokedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_revoked_total",
		Help:      "Total number of bearer tokens revoked via logout.",
	},
)

// PasswordResetsTotal counts password-reset flow steps.
// Label:
//   - stage: "requested", "verified", or "completed"
var PasswordResetsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Total number of password reset flow steps, by stage.",
	},
	[]string{"stage"},
)

// AuthRejectionsTotal counts requests bounced by the auth middleware.
// Label:
//   - reason: "missing_header", "invalid_token", or "revoked"
var AuthRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rejections_total",
		Help:      "Total number of requests rejected by authentication, by reason.",
	},
	[]string{"reason"},
)
