package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seoul(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	return loc
}

func TestNew(t *testing.T) {
	loc := seoul(t)

	for _, name := range []string{"", PolicyLegacy, PolicyCalendarDay} {
		p, err := New(name, loc)
		require.NoError(t, err, name)
		assert.NotNil(t, p)
	}

	_, err := New("weekly", loc)
	assert.Error(t, err)

	_, err = New(PolicyLegacy, nil)
	assert.Error(t, err)
}

func TestLegacy(t *testing.T) {
	p := Legacy(seoul(t))
	now := time.Date(2025, 5, 2, 3, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		prev       time.Time
		loginCount int64
		want       bool
	}{
		{"zero counter always increments", now.Add(-time.Minute), 0, true},
		{"same day does not increment", now.Add(-time.Minute), 1, false},
		{"previous day still does not increment", now.Add(-48 * time.Hour), 5, false},
		{"zero time previous login", time.Time{}, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p(tt.prev, now, tt.loginCount))
		})
	}
}

func TestCalendarDay(t *testing.T) {
	loc := seoul(t)
	p := CalendarDay(loc)

	// 2025-05-02 08:30 in Seoul.
	now := time.Date(2025, 5, 1, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		prev       time.Time
		loginCount int64
		want       bool
	}{
		{"zero counter", now.Add(-time.Minute), 0, true},
		{"same Seoul day", time.Date(2025, 5, 1, 15, 30, 0, 0, time.UTC), 3, false},
		{"previous Seoul day though same UTC day", time.Date(2025, 5, 1, 14, 30, 0, 0, time.UTC), 3, true},
		{"days ago", now.Add(-72 * time.Hour), 3, true},
		{"previous login after now", now.Add(time.Hour), 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p(tt.prev, now, tt.loginCount))
		})
	}
}

func TestDateBeforeInstant(t *testing.T) {
	now := time.UnixMilli(1_000)
	assert.False(t, dateBeforeInstant("2025-05-01", now))
	assert.True(t, dateBeforeInstant("999", now))
	assert.False(t, dateBeforeInstant("1000", now))
}
