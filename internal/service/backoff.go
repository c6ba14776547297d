package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"reelpublisher/internal/core/domain"
)

// PollBackOff is the status polling schedule: start at InitialInterval, grow by
// Multiplier (whole seconds, truncated) and cap at MaxInterval. With the default
// policy it yields 5, 7, 10, 15, 22, 33, 49, 60, 60... seconds.
// The wait ceiling is enforced by the caller, so it never returns backoff.Stop.
type PollBackOff struct {
	policy  domain.PollPolicy
	current time.Duration
}

var _ backoff.BackOff = (*PollBackOff)(nil)

func NewPollBackOff(policy domain.PollPolicy) *PollBackOff {
	return &PollBackOff{policy: policy}
}

func (b *PollBackOff) NextBackOff() time.Duration {
	d := b.current
	if d == 0 {
		d = capInterval(b.policy.InitialInterval, b.policy.MaxInterval)
	}
	b.current = nextInterval(d, b.policy)
	return d
}

func (b *PollBackOff) Reset() { b.current = 0 }

func nextInterval(d time.Duration, p domain.PollPolicy) time.Duration {
	next := time.Duration(float64(d) * p.Multiplier)
	if next >= time.Second {
		next = next.Truncate(time.Second)
	}
	return capInterval(next, p.MaxInterval)
}

func capInterval(d, max time.Duration) time.Duration {
	if max > 0 && d > max {
		return max
	}
	return d
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the production Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
