// Package resilience provides client-side politeness primitives for
// outbound scraping traffic.
package resilience

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Jitter produces uniformly random inter-request delays in [Min, Max].
//
// It is deliberately memoryless: each draw is independent, so there is no
// token accounting and no synchronized burst across workers sharing one
// instance. Strict aggregate rate enforcement across workers is a non-goal;
// callers that need a hard ceiling should layer a token bucket on top.
type Jitter struct {
	min, max time.Duration
}

// ErrDelayRange is returned when the configured bounds are invalid.
var ErrDelayRange = errors.New("delay range must satisfy 0 <= min <= max")

// NewJitter creates a Jitter with the given bounds.
func NewJitter(min, max time.Duration) (*Jitter, error) {
	if min < 0 || max < min {
		return nil, ErrDelayRange
	}
	return &Jitter{min: min, max: max}, nil
}

// NextDelay returns a delay drawn uniformly from [min, max]. Safe for
// concurrent use; there is no shared mutable state beyond the bounds.
func (j *Jitter) NextDelay() time.Duration {
	span := j.max - j.min
	if span <= 0 {
		return j.min
	}
	return j.min + time.Duration(rand.Int63n(int64(span)+1))
}

// Sleep blocks for NextDelay() or until ctx is cancelled.
func (j *Jitter) Sleep(ctx context.Context) error {
	d := j.NextDelay()
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
