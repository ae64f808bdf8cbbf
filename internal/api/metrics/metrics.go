// Package metrics defines and registers the custom Prometheus metrics for the
// clinic API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default registry on package init through
// promauto; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clinic"

// Result label values shared by the auth counters.
const (
	ResultSuccess = "success"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// SignupsTotal counts signup attempts.
// Label:
//   - result: "success", "duplicate_email", "invalid" or "error"
var SignupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "signups_total",
		Help:      "Total number of clinic signups, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "invalid" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// InvitationsIssuedTotal counts invitations created, by invited role.
var InvitationsIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "invitations_issued_total",
		Help:      "Total number of staff invitations issued, by role.",
	},
	[]string{"role"},
)

// InvitationsAcceptedTotal counts acceptance attempts.
// Label:
//   - result: "success", "invalid_token", "already_used", "expired",
//     "duplicate_email", "invalid" or "error"
var InvitationsAcceptedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "invitations_accepted_total",
		Help:      "Total number of invitation acceptance attempts, by result.",
	},
	[]string{"result"},
)

// ── Delivery metrics ──────────────────────────────────────────────────────────

// InvitationNotificationsTotal counts delivery attempts made by the dispatcher.
// Label:
//   - result: "success", "error" or "dropped"
var InvitationNotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invitation_notifications_total",
		Help:      "Total number of invitation notifications handed to the notifier, by result.",
	},
	[]string{"result"},
)

// NotificationQueueDepth tracks pending notifications in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "invitation_queue_depth",
		Help:      "Current number of invitation notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// NotificationDuration measures a single notifier call.
var NotificationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "invitation_notification_duration_seconds",
		Help:      "Duration of a single invitation notifier call.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)
