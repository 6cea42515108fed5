package scrape

import (
	"context"
	"math/rand/v2"
	"time"
)

// Throttle spaces consecutive requests of one source by a random delay drawn
// uniformly from [min, max].
type Throttle struct {
	min, max time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	jitter   func(n int64) int64
}

// NewThrottle creates a Throttle for the politeness range [min, max].
func NewThrottle(min, max time.Duration) *Throttle {
	if max < min {
		max = min
	}
	return &Throttle{
		min:    min,
		max:    max,
		sleep:  sleepCtx,
		jitter: rand.Int64N,
	}
}

// WithSleeper replaces the sleep function. Tests use it to record delays.
func (t *Throttle) WithSleeper(sleep func(ctx context.Context, d time.Duration) error) *Throttle {
	t.sleep = sleep
	return t
}

// Next draws the next delay.
func (t *Throttle) Next() time.Duration {
	span := int64(t.max - t.min)
	if span <= 0 {
		return t.min
	}
	return t.min + time.Duration(t.jitter(span+1))
}

// Wait sleeps for the next delay, or floor if that is longer. It returns
// early with the context error when ctx is cancelled.
func (t *Throttle) Wait(ctx context.Context, floor time.Duration) error {
	d := t.Next()
	if floor > d {
		d = floor
	}
	if d <= 0 {
		return ctx.Err()
	}
	return t.sleep(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
