package service

import "github.com/prometheus/client_golang/prometheus"

// Auth event names and outcomes for videotube_auth_events_total.
const (
	eventRegister       = "register"
	eventLogin          = "login"
	eventLogout         = "logout"
	eventRefresh        = "refresh"
	eventChangePassword = "change_password"

	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// AuthMetrics counts session manager outcomes. A nil *AuthMetrics is valid
// and records nothing.
type AuthMetrics struct {
	events *prometheus.CounterVec
}

// NewAuthMetrics registers the counters with reg.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	m := &AuthMetrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "videotube",
			Name:      "auth_events_total",
			Help:      "Authentication events by kind and outcome.",
		}, []string{"event", "outcome"}),
	}
	reg.MustRegister(m.events)
	return m
}

func (m *AuthMetrics) observe(event, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(event, outcome).Inc()
}
