package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Login(OutcomeSuccess)
	m.Login(OutcomeSuccess)
	m.Login(OutcomeInvalidCredentials)
	m.SignUp(OutcomeDuplicate)
	m.AttendanceIncrement()
	m.ReferralCredited()
	m.Forwarded("GET /event", 200)
	m.Forwarded("GET /event", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues(OutcomeInvalidCredentials)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.signups.WithLabelValues(OutcomeDuplicate)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attendance))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.referrals))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.forwarded.WithLabelValues("GET /event", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.forwarded.WithLabelValues("GET /event", "0")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Login(OutcomeSuccess)
		m.SignUp(OutcomeSuccess)
		m.AttendanceIncrement()
		m.ReferralCredited()
		m.Forwarded("GET /event", 200)
	})
}
