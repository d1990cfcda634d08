package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	validationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "urlguard_validation_total",
		Help: "Total number of outbound URL validation decisions by outcome and reason",
	}, []string{"outcome", "reason"})
)

// RecordValidation records one validation decision.
func RecordValidation(allowed bool, reason string) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	validationTotal.WithLabelValues(outcome, normalizeReasonLabel(reason)).Inc()
}

// normalizeReasonLabel folds free-form denial reasons into a bounded label
// set to keep cardinality under control.
func normalizeReasonLabel(reason string) string {
	switch {
	case reason == "":
		return "none"
	case strings.HasPrefix(reason, "Redirect to unsafe URL"):
		return "redirect"
	case strings.HasPrefix(reason, "Invalid URL"):
		return "malformed_url"
	case strings.HasPrefix(reason, "Protocol"):
		return "protocol"
	case strings.HasPrefix(reason, "Hostname"):
		return "reserved_host"
	case strings.Contains(reason, "not in the allowlist"):
		return "allowlist"
	case strings.Contains(reason, "in the blocklist"):
		return "blocklist"
	case strings.HasPrefix(reason, "Loopback"):
		return "loopback"
	case strings.HasPrefix(reason, "Private"):
		return "private"
	case strings.Contains(reason, "credentials"):
		return "credentials"
	default:
		return "other"
	}
}
