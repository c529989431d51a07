package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, Backoff: time.Millisecond}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetry(3), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return MarkTransient(eris.New("flaky"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetry(5), func(ctx context.Context) error {
		calls++
		return eris.New("bad request")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsBudget(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetry(3), func(ctx context.Context) error {
		calls++
		return MarkTransient(eris.New("still down"))
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ZeroConfigUsesDefaultPolicy(t *testing.T) {
	def := DefaultRetryConfig()
	assert.Equal(t, 3, def.MaxAttempts)
	assert.Equal(t, time.Second, def.Backoff)

	calls := 0
	err := Do(context.Background(), RetryConfig{Backoff: time.Millisecond}, func(ctx context.Context) error {
		calls++
		return MarkTransient(eris.New("still down"))
	})
	require.Error(t, err)
	assert.Equal(t, def.MaxAttempts, calls)
}

func TestDo_ContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, fastRetry(10), func(ctx context.Context) error {
		calls++
		cancel()
		return MarkTransient(eris.New("down"))
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_ReturnsSuccessfulValue(t *testing.T) {
	calls := 0
	got, err := DoVal(context.Background(), fastRetry(2), func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", MarkTransient(eris.New("once"))
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestDo_OnRetryReportsAttempts(t *testing.T) {
	var reported []int
	cfg := fastRetry(3)
	cfg.OnRetry = func(attempt int, err error) { reported = append(reported, attempt) }

	_ = Do(context.Background(), cfg, func(ctx context.Context) error {
		return MarkTransient(eris.New("down"))
	})
	assert.Equal(t, []int{1, 2}, reported)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(eris.New("validation failed")))
	assert.False(t, IsTransient(context.Canceled))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsTransient(eris.New("upstream returned status 529")))
	assert.True(t, IsTransient(eris.New("rate limit exceeded")))
	assert.True(t, IsTransient(MarkTransient(eris.New("anything"))))
}

func TestCircuitBreaker_OpensAndProbes(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, 10*time.Millisecond)

	require.True(t, cb.Allow())
	cb.Record(eris.New("boom"))
	require.True(t, cb.Allow())
	cb.Record(eris.New("boom"))

	// Tripped: rejected without a call.
	assert.False(t, cb.Allow())

	time.Sleep(15 * time.Millisecond)

	// Cooldown elapsed: one probe allowed, concurrent calls still rejected.
	require.True(t, cb.Allow())
	assert.False(t, cb.Allow())

	cb.Record(nil)
	assert.True(t, cb.Allow())
	cb.Record(nil)
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)

	require.True(t, cb.Allow())
	cb.Record(eris.New("boom"))
	assert.False(t, cb.Allow())

	time.Sleep(15 * time.Millisecond)
	require.True(t, cb.Allow())
	cb.Record(eris.New("boom again"))

	assert.False(t, cb.Allow())
}
