package core

import (
	"math"
	"testing"
	"time"
)

func TestAbsDuration(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b time.Time
		want time.Duration
	}{
		{"past", now, now.Add(-3 * time.Second), 3 * time.Second},
		{"future", now, now.Add(3 * time.Second), 3 * time.Second},
		{"equal", now, now, 0},
		{"saturated below", now, FromMicros(math.MaxInt64), math.MaxInt64},
		{"saturated above", FromMicros(math.MaxInt64), now, math.MaxInt64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AbsDuration(tt.a, tt.b); got != tt.want {
				t.Errorf("AbsDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}
