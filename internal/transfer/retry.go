package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

const (
	DefaultBaseDelay   = 300 * time.Millisecond
	DefaultMaxAttempts = 3
)

// RetryPolicy bounds how lock conflicts are retried.
type RetryPolicy struct {
	BaseDelay   time.Duration
	MaxAttempts int
	// Jitter draws each wait uniformly from [0, delay) instead of waiting the full delay.
	Jitter bool
}

// DefaultRetryPolicy returns 300ms base delay and 3 attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{BaseDelay: DefaultBaseDelay, MaxAttempts: DefaultMaxAttempts}
}

// Delay returns the wait before the attempt following attempt (1-based): base * 2^(attempt-1).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 || attempt < 1 {
		return 0
	}
	shift := attempt - 1
	if shift > 30 {
		shift = 30
	}
	d := p.BaseDelay << shift
	if d < p.BaseDelay {
		return p.BaseDelay
	}
	if p.Jitter {
		d = time.Duration(rand.Int64N(int64(d)))
	}
	return d
}

// Retrier repeats a Runner while it fails with KindLockAcquisitionFailed.
type Retrier struct {
	runner  Runner
	policy  RetryPolicy
	logger  *slog.Logger
	metrics *Metrics
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewRetrier wraps runner with policy. A policy with MaxAttempts < 1 runs once.
func NewRetrier(runner Runner, policy RetryPolicy, logger *slog.Logger, metrics *Metrics) *Retrier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Retrier{runner: runner, policy: policy, logger: logger, metrics: metrics, sleep: sleepContext}
}

// Execute runs the transfer, retrying lock conflicts with exponential backoff. Any
// other failure is returned as is after a single call.
func (r *Retrier) Execute(ctx context.Context, req Request) error {
	start := time.Now()
	err := r.run(ctx, req)
	r.metrics.observe(err, time.Since(start))
	return err
}

func (r *Retrier) run(ctx context.Context, req Request) error {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		err := r.runner.Execute(ctx, req)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err
		if attempt == r.policy.MaxAttempts {
			break
		}

		delay := r.policy.Delay(attempt)
		r.logger.Warn("transfer failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", r.policy.MaxAttempts),
			slog.Duration("delay", delay),
			slog.Any("error", err),
		)
		r.metrics.retried()
		if err := r.sleep(ctx, delay); err != nil {
			return &Error{
				Kind:    KindLockAcquisitionFailed,
				Message: ErrLockAcquisitionFailed.Message,
				Err:     fmt.Errorf("%w: %w", err, lastErr),
			}
		}
	}

	r.logger.Warn("transfer failed, max retry attempts reached", slog.Int("attempts", r.policy.MaxAttempts))
	return &Error{
		Kind:        KindMaxRetryExceeded,
		Message:     ErrMaxRetryExceeded.Message,
		MaxAttempts: r.policy.MaxAttempts,
		Err:         lastErr,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("transfer retry wait: %w", ctx.Err())
	}
}
