package ratelimit

import (
	"context"
	"fmt"
	"time"
)

const defaultRatePerSec = 80.0

// Pacer spaces out consecutive dispatches.
type Pacer interface {
	Wait(ctx context.Context) error
}

// IntervalPacer sleeps a fixed 1/ratePerSec between dispatches. Bursts are
// prevented by construction rather than absorbed, so no token bucket is
// needed; the account-level budget shared with other processes stays out of
// scope here.
type IntervalPacer struct {
	interval time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewIntervalPacer(ratePerSec float64) (*IntervalPacer, error) {
	return newIntervalPacer(ratePerSec, sleepWithContext)
}

func newIntervalPacer(ratePerSec float64, sleepFn func(ctx context.Context, d time.Duration) error) (*IntervalPacer, error) {
	if ratePerSec < 0 {
		return nil, fmt.Errorf("rate must be positive, got %f", ratePerSec)
	}
	if ratePerSec == 0 {
		ratePerSec = defaultRatePerSec
	}
	if sleepFn == nil {
		sleepFn = sleepWithContext
	}

	return &IntervalPacer{
		interval: time.Duration(float64(time.Second) / ratePerSec),
		sleep:    sleepFn,
	}, nil
}

// Interval is the fixed gap between dispatches.
func (p *IntervalPacer) Interval() time.Duration {
	if p == nil {
		return 0
	}
	return p.interval
}

// Wait blocks one interval or until ctx is canceled.
func (p *IntervalPacer) Wait(ctx context.Context) error {
	if p == nil {
		return fmt.Errorf("pacer is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return p.sleep(ctx, p.interval)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
