package engine

import (
	"testing"
	"time"
)

func TestSystemTime(t *testing.T) {
	var clock SystemTime
	t1 := clock.Now()
	time.Sleep(10 * time.Millisecond)
	t2 := clock.Now()

	if diff := t2.Sub(t1); diff < 10*time.Millisecond {
		t.Errorf("Expected at least 10ms difference, got %v", diff)
	}
}

func TestMockTimeProvider(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock := NewMockTimeProvider(start)

	if now := mock.Now(); !now.Equal(start) {
		t.Errorf("Expected initial time %v, got %v", start, now)
	}

	mock.Advance(16 * time.Millisecond)
	mock.Advance(16 * time.Millisecond)
	if got := mock.Now().Sub(start); got != 32*time.Millisecond {
		t.Errorf("Expected 32ms elapsed, got %v", got)
	}
}
