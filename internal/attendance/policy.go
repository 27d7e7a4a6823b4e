// Package attendance decides whether a login earns a daily attendance
// increment. The decision is isolated here so the comparison rule can change
// without touching the login flow.
package attendance

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	PolicyLegacy      = "legacy"
	PolicyCalendarDay = "calendar-day"

	dateLayout = "2006-01-02"
)

// Policy reports whether a login at now, following a previous login at prev
// by a user whose counter currently reads loginCount, increments the counter.
type Policy func(prev, now time.Time, loginCount int64) bool

// New returns the named policy evaluated in loc.
func New(name string, loc *time.Location) (Policy, error) {
	if loc == nil {
		return nil, fmt.Errorf("attendance policy %q: nil location", name)
	}
	switch name {
	case PolicyLegacy, "":
		return Legacy(loc), nil
	case PolicyCalendarDay:
		return CalendarDay(loc), nil
	}
	return nil, fmt.Errorf("unknown attendance policy %q", name)
}

// Legacy formats the previous login as a calendar date in loc and orders that
// string against the current instant as a loose numeric comparison. A
// formatted date is never numeric, so in practice only a zero counter
// qualifies.
func Legacy(loc *time.Location) Policy {
	return func(prev, now time.Time, loginCount int64) bool {
		return dateBeforeInstant(prev.In(loc).Format(dateLayout), now) || loginCount == 0
	}
}

// CalendarDay increments when the previous login fell on an earlier calendar
// date in loc than now, or when the counter is still zero.
func CalendarDay(loc *time.Location) Policy {
	return func(prev, now time.Time, loginCount int64) bool {
		return prev.In(loc).Format(dateLayout) < now.In(loc).Format(dateLayout) || loginCount == 0
	}
}

// dateBeforeInstant coerces date to a number and compares it with now in Unix
// milliseconds. A non-numeric string compares false against everything.
func dateBeforeInstant(date string, now time.Time) bool {
	n, err := strconv.ParseFloat(strings.TrimSpace(date), 64)
	if err != nil {
		return false
	}
	return n < float64(now.UnixMilli())
}
