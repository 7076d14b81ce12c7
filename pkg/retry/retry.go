// Package retry runs operations under a bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	goretry "github.com/sethvargo/go-retry"

	"github.com/Abhijit5011/Electromart/pkg/config"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
)

// Policy bounds how many times an operation is attempted after the first failure.
type Policy struct {
	MaxRetries uint64
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

const jitterPercent = 10

// DefaultPolicy matches the configuration defaults.
var DefaultPolicy = Policy{MaxRetries: 3, BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second}

// PolicyFromConfig converts the retry config section into a Policy.
func PolicyFromConfig(cfg config.RetryConfig) Policy {
	p := Policy{MaxRetries: cfg.MaxRetries, BaseDelay: cfg.BaseDelay, MaxDelay: cfg.MaxDelay}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultPolicy.BaseDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	return p
}

func (p Policy) backoff() goretry.Backoff {
	b := goretry.NewExponential(p.BaseDelay)
	b = goretry.WithJitterPercent(jitterPercent, b)
	b = goretry.WithCappedDuration(p.MaxDelay, b)
	return goretry.WithMaxRetries(p.MaxRetries, b)
}

// Do calls fn until it succeeds, returns a non-retryable error, or the policy is exhausted.
// Only errors classified retryable by pkg/errors are retried; the last error is returned unchanged.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	return goretry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if IsTransient(err) {
			return goretry.RetryableError(err)
		}
		return err
	})
}

// IsTransient reports whether err is worth another attempt.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return pkgerrors.IsRetryable(err)
}
