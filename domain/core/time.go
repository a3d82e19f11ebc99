package core

import (
	"math"
	"time"
)

// Micros is an absolute Unix timestamp with microsecond resolution
type Micros = int64

// Clock supplies the current time. Validation and analysis take a Clock so
// tests can freeze it.
type Clock func() time.Time

// SystemClock is the wall clock
func SystemClock() time.Time {
	return time.Now()
}

// FixedClock returns a Clock frozen at t
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// ToMicros converts a time to Unix microseconds
func ToMicros(t time.Time) Micros {
	return t.UnixMicro()
}

// FromMicros converts Unix microseconds to a UTC time
func FromMicros(us Micros) time.Time {
	return time.UnixMicro(us).UTC()
}

// AbsDuration returns |a - b| as a duration, saturating at the maximum
// Duration when the gap does not fit.
func AbsDuration(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d == math.MinInt64 {
		return math.MaxInt64
	}
	if d < 0 {
		return -d
	}
	return d
}
