// Package metrics defines and registers all custom Prometheus metrics for
// the edge gateway. It is the single source of truth for metric names,
// labels, and help strings; promauto registers everything with the default
// registry at package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gateway"

// Rejection reasons recorded by the authentication gate. Externally every
// rejection is the same generic 401; these labels are the internal view.
const (
	ReasonMissingHeader   = "missing_header"
	ReasonMalformedHeader = "malformed_header"
	ReasonTokenExpired    = "token_expired"
	ReasonTokenInvalid    = "token_invalid"
)

// AuthRejectionsTotal counts requests the gate refused to forward.
// Label:
//   - reason: one of the Reason* constants above
var AuthRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rejections_total",
		Help:      "Total number of requests rejected by the authentication gate.",
	},
	[]string{"reason"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure" (failure covers unknown email and wrong
//     password alike; the split is deliberately not observable)
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "created", "conflict" or "invalid"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// TokensIssuedTotal counts tokens minted at login.
var TokensIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of bearer tokens issued.",
	},
)
