package timeutil

import (
	"testing"
	"time"
)

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}
	before := time.Now()
	now := c.Now()
	if now.Before(before) {
		t.Errorf("Now() = %v, before %v", now, before)
	}
	if c.Since(before) < 0 {
		t.Error("Since returned a negative duration")
	}
}

func TestMockClock(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	if got := c.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}
	if got := c.Now(); !got.Equal(start) {
		t.Errorf("Now() moved without auto-advance: %v", got)
	}

	c.Advance(90 * time.Second)
	if got := c.Since(start); got != 90*time.Second {
		t.Errorf("Since() = %v, want 90s", got)
	}

	later := start.Add(time.Hour)
	c.Set(later)
	if got := c.Now(); !got.Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", got, later)
	}
}

func TestMockClock_AutoAdvance(t *testing.T) {
	start := time.Unix(1700000000, 0)
	c := NewMockClock(start)
	c.AutoAdvance(time.Second)

	first, second := c.Now(), c.Now()
	if !first.Equal(start) {
		t.Errorf("first reading = %v, want %v", first, start)
	}
	if got := second.Sub(first); got != time.Second {
		t.Errorf("readings %v apart, want 1s", got)
	}
	if got := c.Since(start); got != 2*time.Second {
		t.Errorf("Since() = %v, want 2s", got)
	}
}
