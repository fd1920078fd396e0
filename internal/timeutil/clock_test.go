package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("RealClock.Now() = %v, want between %v and %v", now, before, after)
	}
	if clock.Since(before) < 0 {
		t.Error("RealClock.Since() returned a negative duration")
	}
}

func TestMockClock_SetAndAdvance(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := NewMockClock(start)

	if got := clock.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}
	clock.Advance(90 * time.Second)
	if got := clock.Since(start); got != 90*time.Second {
		t.Errorf("Since() = %v, want 90s", got)
	}
	later := start.Add(time.Hour)
	clock.Set(later)
	if got := clock.Now(); !got.Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", got, later)
	}
}

func TestMockClock_Step(t *testing.T) {
	start := time.Unix(1000, 0)
	clock := NewMockClock(start)
	clock.Step = time.Second

	first, second := clock.Now(), clock.Now()
	if !first.Equal(start) || second.Sub(first) != time.Second {
		t.Errorf("stepped reads = %v, %v", first, second)
	}
	if clock.Since(start) != 2*time.Second {
		t.Errorf("Since() = %v, want 2s", clock.Since(start))
	}
}
