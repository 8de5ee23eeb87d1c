package retry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/ca-srg/webgate/internal/types"
)

// TokenAcquirer is the admission-control dependency. Every attempt, retries
// included, consumes one token so a retry storm can never exceed the
// provider's quota.
type TokenAcquirer interface {
	Acquire(ctx context.Context) error
}

// Operation is a single provider call to run under the retry budget.
type Operation func(ctx context.Context) error

// Executor wraps provider calls with bounded attempts, a per-attempt deadline
// and exponential backoff between attempts.
type Executor struct {
	limiter TokenAcquirer
	policy  types.RetryPolicy
}

// NewExecutor validates the policy and builds an executor. Zero values fall
// back to sane defaults rather than failing construction.
func NewExecutor(limiter TokenAcquirer, policy types.RetryPolicy) *Executor {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 3
	}
	if policy.AttemptTimeout <= 0 {
		policy.AttemptTimeout = 30 * time.Second
	}
	if policy.BackoffBase <= 0 {
		policy.BackoffBase = 2.0
	}
	return &Executor{limiter: limiter, policy: policy}
}

// Policy returns the effective policy after defaulting.
func (e *Executor) Policy() types.RetryPolicy {
	return e.policy
}

// Execute runs op under the retry budget and returns the last classified
// error once attempts are exhausted. Timeouts and generic API failures are
// retried; provider throttling (rate_limit) and configuration errors
// propagate immediately so the caller can apply its own policy.
//
// The total blocking time is bounded by
// maxAttempts * (attemptTimeout + backoff delay).
func (e *Executor) Execute(ctx context.Context, op Operation, operationName string) error {
	var lastErr error

	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := e.backoffDelay(attempt)
			log.Printf("Retrying %s after %v (attempt %d/%d)",
				operationName, delay, attempt, e.policy.MaxAttempts)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		// Admission control applies to every attempt, not just the first.
		if err := e.limiter.Acquire(ctx); err != nil {
			return fmt.Errorf("%s: %w", operationName, err)
		}

		err := e.runAttempt(ctx, op)
		if err == nil {
			if attempt > 1 {
				log.Printf("%s succeeded after %d attempts", operationName, attempt)
			}
			return nil
		}

		lastErr = err

		var gwErr *types.GatewayError
		if errors.As(err, &gwErr) {
			switch gwErr.Type {
			case types.ErrorTypeRateLimit, types.ErrorTypeConfig:
				log.Printf("%s failed with non-retryable %s error: %v", operationName, gwErr.Type, err)
				return err
			}
		}

		if ctx.Err() != nil {
			// The caller gave up; do not burn further attempts.
			return lastErr
		}

		log.Printf("%s attempt %d/%d failed: %v", operationName, attempt, e.policy.MaxAttempts, err)
	}

	return lastErr
}

// runAttempt executes op under the per-attempt deadline and classifies the
// outcome into the gateway error taxonomy.
func (e *Executor) runAttempt(ctx context.Context, op Operation) error {
	attemptCtx, cancel := context.WithTimeout(ctx, e.policy.AttemptTimeout)
	defer cancel()

	err := op(attemptCtx)
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return types.NewRetryableGatewayError(types.ErrorTypeTimeout,
			fmt.Sprintf("attempt exceeded %v deadline", e.policy.AttemptTimeout), 0)
	}

	var gwErr *types.GatewayError
	if errors.As(err, &gwErr) {
		return err
	}

	return types.NewRetryableGatewayError(types.ErrorTypeAPI, err.Error(), 0)
}

// backoffDelay computes the sleep preceding the given attempt:
// base^1 before attempt 2, base^2 before attempt 3, and so on.
func (e *Executor) backoffDelay(attempt int) time.Duration {
	seconds := math.Pow(e.policy.BackoffBase, float64(attempt-1))
	return time.Duration(seconds * float64(time.Second))
}
