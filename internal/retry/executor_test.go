package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-srg/webgate/internal/types"
)

// countingAcquirer records how many tokens were handed out.
type countingAcquirer struct {
	acquired int
}

func (a *countingAcquirer) Acquire(ctx context.Context) error {
	a.acquired++
	return ctx.Err()
}

func testPolicy(maxAttempts int, backoffBase float64) types.RetryPolicy {
	return types.RetryPolicy{
		MaxAttempts:    maxAttempts,
		AttemptTimeout: 50 * time.Millisecond,
		BackoffBase:    backoffBase,
	}
}

func TestExecute_SuccessFirstAttempt(t *testing.T) {
	acquirer := &countingAcquirer{}
	executor := NewExecutor(acquirer, testPolicy(3, 0.01))

	calls := 0
	err := executor.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	}, "test-op")

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, acquirer.acquired)
}

func TestExecute_TimeoutPerformsAllAttemptsWithBackoff(t *testing.T) {
	acquirer := &countingAcquirer{}
	const backoffBase = 0.1
	executor := NewExecutor(acquirer, testPolicy(3, backoffBase))

	attempts := 0
	start := time.Now()
	err := executor.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		<-ctx.Done() // block until the per-attempt deadline fires
		return ctx.Err()
	}, "always-times-out")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, acquirer.acquired, "every attempt must consume a token")

	var gwErr *types.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, types.ErrorTypeTimeout, gwErr.Type)

	// Sleeps of base^1 + base^2 seconds separate the three attempts.
	minBackoff := time.Duration((backoffBase + backoffBase*backoffBase) * float64(time.Second))
	assert.GreaterOrEqual(t, elapsed, minBackoff)
}

func TestExecute_APIErrorRetriedThenSucceeds(t *testing.T) {
	acquirer := &countingAcquirer{}
	executor := NewExecutor(acquirer, testPolicy(3, 0.01))

	attempts := 0
	err := executor.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("upstream hiccup")
		}
		return nil
	}, "flaky-op")

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, acquirer.acquired)
}

func TestExecute_RateLimitErrorNotRetried(t *testing.T) {
	acquirer := &countingAcquirer{}
	executor := NewExecutor(acquirer, testPolicy(5, 0.01))

	attempts := 0
	throttle := types.NewRetryableGatewayError(types.ErrorTypeRateLimit, "throttled", time.Second)
	err := executor.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return throttle
	}, "throttled-op")

	require.Error(t, err)
	assert.Equal(t, 1, attempts, "provider throttling must propagate without internal retries")

	var gwErr *types.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, types.ErrorTypeRateLimit, gwErr.Type)
}

func TestExecute_LastErrorSurfacesAfterExhaustion(t *testing.T) {
	acquirer := &countingAcquirer{}
	executor := NewExecutor(acquirer, testPolicy(2, 0.01))

	err := executor.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("persistent failure")
	}, "doomed-op")

	require.Error(t, err)
	var gwErr *types.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, types.ErrorTypeAPI, gwErr.Type)
	assert.Contains(t, gwErr.Message, "persistent failure")
}

func TestExecute_CallerCancellationStopsRetries(t *testing.T) {
	acquirer := &countingAcquirer{}
	executor := NewExecutor(acquirer, testPolicy(5, 1.0))

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := executor.Execute(ctx, func(c context.Context) error {
		attempts++
		cancel()
		return errors.New("failed just before caller gave up")
	}, "cancelled-op")

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestNewExecutor_DefaultsPolicy(t *testing.T) {
	executor := NewExecutor(&countingAcquirer{}, types.RetryPolicy{})
	policy := executor.Policy()

	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, 30*time.Second, policy.AttemptTimeout)
	assert.Equal(t, 2.0, policy.BackoffBase)
}
