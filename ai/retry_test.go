package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return ErrRateLimited
		}
		return nil
	}, 5, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		return ErrUnavailable
	}, 3, time.Millisecond)

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_StopsOnDeadContext(t *testing.T) {
	// An operation surfacing its context's cancellation cannot succeed on
	// a later attempt; the loop must not sleep and try again.
	attempts := 0
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		return context.Canceled
	}, 5, time.Minute)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoff_InvalidAttempts(t *testing.T) {
	err := RetryWithBackoff(context.Background(), func() error { return nil }, 0, time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", ErrRateLimited, true},
		{"unavailable", ErrUnavailable, true},
		{"provider-side timeout", ErrTimeout, true},
		{"canceled context", context.Canceled, false},
		{"exceeded deadline classified as timeout", errors.Join(ErrTimeout, context.DeadlineExceeded), false},
		{"unclassified", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
