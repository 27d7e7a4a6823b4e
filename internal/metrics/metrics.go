// Package metrics exposes Prometheus counters for the auth flows and the
// event-service forwarder.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reward_auth"

// Login and signup outcome labels.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeDuplicate          = "duplicate"
	OutcomeInvalidInput       = "invalid_input"
	OutcomeError              = "error"
)

// Metrics groups the collectors. A nil *Metrics records nothing.
type Metrics struct {
	logins     *prometheus.CounterVec
	signups    *prometheus.CounterVec
	attendance prometheus.Counter
	referrals  prometheus.Counter
	forwarded  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signups_total",
			Help:      "Signup attempts by outcome.",
		}, []string{"outcome"}),
		attendance: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_increments_total",
			Help:      "Logins that incremented a user's attendance counter.",
		}),
		referrals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "referrals_credited_total",
			Help:      "Signups that credited an existing referrer.",
		}),
		forwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forwarded_requests_total",
			Help:      "Requests forwarded to the event service by route and status code.",
		}, []string{"route", "code"}),
	}
	reg.MustRegister(m.logins, m.signups, m.attendance, m.referrals, m.forwarded)
	return m
}

func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SignUp(outcome string) {
	if m == nil {
		return
	}
	m.signups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AttendanceIncrement() {
	if m == nil {
		return
	}
	m.attendance.Inc()
}

func (m *Metrics) ReferralCredited() {
	if m == nil {
		return
	}
	m.referrals.Inc()
}

// Forwarded records a forwarded request. code 0 means the event service was
// unreachable.
func (m *Metrics) Forwarded(route string, code int) {
	if m == nil {
		return
	}
	m.forwarded.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
