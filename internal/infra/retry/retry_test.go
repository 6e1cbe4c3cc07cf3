package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr struct {
	code       int
	retryAfter time.Duration
}

func (e *statusErr) Error() string                 { return fmt.Sprintf("status %d", e.code) }
func (e *statusErr) HTTPStatus() int               { return e.code }
func (e *statusErr) RetryAfterHint() time.Duration { return e.retryAfter }

func TestDoRetriesRetryableStatus(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Options{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return &statusErr{code: 503}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Options{MaxRetries: 5, BaseDelay: time.Millisecond}, func() error {
		calls++
		return fmt.Errorf("wrapped: %w", &statusErr{code: 404})
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var se StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 404, se.HTTPStatus())
}

func TestDoZeroRetriesCallsOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Options{}, func() error {
		calls++
		return &statusErr{code: 500}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, Options{MaxRetries: 3}, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, ParseRetryAfter("3"))
	assert.Equal(t, time.Duration(0), ParseRetryAfter(""))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("soon"))
}

func TestFullJitterSleepBounded(t *testing.T) {
	for attempt := 0; attempt < 10; attempt++ {
		d := FullJitterSleep(attempt, 10*time.Millisecond, 50*time.Millisecond)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 50*time.Millisecond)
	}
	assert.Equal(t, time.Duration(0), FullJitterSleep(1, 0, time.Second))
}
