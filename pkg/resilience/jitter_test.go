package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewJitterRejectsBadBounds(t *testing.T) {
	if _, err := NewJitter(-time.Second, time.Second); !errors.Is(err, ErrDelayRange) {
		t.Fatalf("negative min should be rejected, got %v", err)
	}
	if _, err := NewJitter(2*time.Second, time.Second); !errors.Is(err, ErrDelayRange) {
		t.Fatalf("max < min should be rejected, got %v", err)
	}
}

func TestNextDelayWithinBounds(t *testing.T) {
	min, max := 10*time.Millisecond, 30*time.Millisecond
	j, err := NewJitter(min, max)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 1000; i++ {
		d := j.NextDelay()
		if d < min || d > max {
			t.Fatalf("delay %v outside [%v, %v]", d, min, max)
		}
	}
}

func TestNextDelayDegenerateRange(t *testing.T) {
	j, err := NewJitter(5*time.Millisecond, 5*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if d := j.NextDelay(); d != 5*time.Millisecond {
			t.Fatalf("expected fixed delay, got %v", d)
		}
	}
}

func TestSleepHonorsCancellation(t *testing.T) {
	j, err := NewJitter(time.Minute, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := j.Sleep(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSleepZeroDelay(t *testing.T) {
	j, err := NewJitter(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Sleep(context.Background()); err != nil {
		t.Fatalf("zero delay sleep should return immediately, got %v", err)
	}
}
