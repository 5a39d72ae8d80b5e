package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithBackoff_Success(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), func(context.Context) error {
		attempts++
		return nil
	}, 3, 10*time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "should succeed on first try")
}

func TestWithBackoff_EventualSuccess(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, 5, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithBackoff_AllAttemptsFail(t *testing.T) {
	attempts := 0
	expectedErr := errors.New("persistent error")
	err := WithBackoff(context.Background(), func(context.Context) error {
		attempts++
		return expectedErr
	}, 3, time.Millisecond)

	assert.Equal(t, expectedErr, err, "should return the last error")
	assert.Equal(t, 3, attempts)
}

func TestWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	attempts := 0
	err := WithBackoff(ctx, func(context.Context) error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}, 10, time.Millisecond)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestWithBackoff_ContextTimeoutDuringWait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	attempts := 0
	err := WithBackoff(ctx, func(context.Context) error {
		attempts++
		return errors.New("error")
	}, 5, time.Hour)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, attempts)
}

func TestWithBackoff_InvalidMaxAttempts(t *testing.T) {
	for _, n := range []int{0, -1} {
		attempts := 0
		err := WithBackoff(context.Background(), func(context.Context) error {
			attempts++
			return nil
		}, n, time.Millisecond)

		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
		assert.Equal(t, 0, attempts)
	}
}

func TestDo_Permanent(t *testing.T) {
	attempts := 0
	bad := errors.New("invalid goal")
	err := Do(context.Background(), Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}, func(context.Context) error {
		attempts++
		return Permanent(bad)
	})

	assert.Equal(t, bad, err)
	assert.Equal(t, 1, attempts)
	assert.Nil(t, Permanent(nil))
}

func TestPolicyDelay(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{name: "first", policy: Policy{BaseDelay: 2 * time.Second}, attempt: 1, want: 2 * time.Second},
		{name: "doubles", policy: Policy{BaseDelay: 2 * time.Second}, attempt: 3, want: 8 * time.Second},
		{name: "capped", policy: Policy{BaseDelay: 2 * time.Second, MaxDelay: 7 * time.Second}, attempt: 3, want: 7 * time.Second},
		{name: "base above cap", policy: Policy{BaseDelay: 10 * time.Second, MaxDelay: 7 * time.Second}, attempt: 1, want: 7 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Delay(tt.attempt))
		})
	}
}
