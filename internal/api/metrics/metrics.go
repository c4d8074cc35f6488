// Package metrics defines and registers all custom Prometheus metrics for the
// identity API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Collectors are registered with the default Prometheus registry on import
// (promauto) and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginsTotal counts authentication attempts.
// Label:
//   - result: "success", "unauthorized", "throttled" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RefreshRotationsTotal counts refresh token exchanges.
// Label:
//   - result: "success", "unauthorized" or "error"
var RefreshRotationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_rotations_total",
		Help:      "Total number of refresh token rotations, by result.",
	},
	[]string{"result"},
)

// RevocationsTotal counts logout revocations that succeeded.
var RevocationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_revocations_total",
		Help:      "Total number of refresh tokens revoked by logout.",
	},
)

// PasswordResetsTotal counts issued password resets.
var PasswordResetsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Total number of generated passwords issued by forgot-password.",
	},
)

// ── Verification metrics ──────────────────────────────────────────────────────

// CodesSentTotal counts issued verification codes.
var CodesSentTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_codes_sent_total",
		Help:      "Total number of verification codes issued.",
	},
)

// CodeValidationsTotal counts code submissions.
// Label:
//   - result: "success", "invalid" or "error"
var CodeValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_code_checks_total",
		Help:      "Total number of verification code submissions, by result.",
	},
	[]string{"result"},
)

// ── Outbox metrics ────────────────────────────────────────────────────────────

// EmailsTotal counts outbox deliveries.
// Label:
//   - result: "sent", "failed" or "dropped" (shard buffer full)
var EmailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_total",
		Help:      "Total number of outbound emails, by delivery result.",
	},
	[]string{"result"},
)

// OutboxDepth tracks the number of emails waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var OutboxDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "outbox_depth",
		Help:      "Current number of emails pending in each outbox worker channel.",
	},
	[]string{"worker_id"},
)

// EmailSendDuration measures transport latency per delivery.
var EmailSendDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "email_send_duration_seconds",
		Help:      "Duration of a single email delivery through the configured transport.",
		Buckets:   prometheus.DefBuckets,
	},
)
