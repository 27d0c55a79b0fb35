package jobcontext

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobBegin_Metadata(t *testing.T) {
	id := uuid.New()
	ctx, cancel := JobBegin(context.Background(), id, "attribution", 2, WithMaxRetries(5), WithTimeout(time.Second))
	defer cancel()

	md := GetJobMetadata(ctx)
	assert.Equal(t, id, md.JobID)
	assert.Equal(t, "attribution", md.JobType)
	assert.Equal(t, 2, md.WorkerID)
	assert.Equal(t, 5, md.MaxRetries)
	assert.False(t, md.StartTime.IsZero())

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 100*time.Millisecond)
}

func TestJobEnd_RetriesTransientErrors(t *testing.T) {
	ctx, cancel := JobBegin(context.Background(), uuid.New(), "attribution", 0, WithBaseDelay(time.Millisecond))
	defer cancel()

	var attempts []int
	err := JobEnd(ctx, func(ctx context.Context) error {
		attempts = append(attempts, GetRetryAttempt(ctx))
		if len(attempts) < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, attempts)
}

func TestJobEnd_StopsOnNonRetryable(t *testing.T) {
	ctx, cancel := JobBegin(context.Background(), uuid.New(), "attribution", 0, WithBaseDelay(time.Millisecond))
	defer cancel()

	calls := 0
	err := JobEnd(ctx, func(context.Context) error {
		calls++
		return errors.New("utterance 3: invalid utterance")
	})
	assert.ErrorIs(t, err, ErrNonRetryable)
	assert.Equal(t, 1, calls)
}

func TestJobEnd_ExhaustsRetries(t *testing.T) {
	ctx, cancel := JobBegin(context.Background(), uuid.New(), "attribution", 0,
		WithBaseDelay(time.Millisecond), WithMaxRetries(2))
	defer cancel()

	calls := 0
	err := JobEnd(ctx, func(context.Context) error {
		calls++
		return fmt.Errorf("provider: %w", errors.New("service unavailable"))
	})
	assert.ErrorContains(t, err, "max retries (2) exceeded")
	assert.Equal(t, 2, calls)
}

func TestJobEnd_RecoversPanic(t *testing.T) {
	ctx, cancel := JobBegin(context.Background(), uuid.New(), "attribution", 0)
	defer cancel()

	err := JobEnd(ctx, func(context.Context) error { panic("boom") })
	assert.ErrorIs(t, err, ErrNonRetryable)
	assert.ErrorContains(t, err, "boom")
}

func TestNewBackOff(t *testing.T) {
	b := NewBackOff(5 * time.Second)
	var got []time.Duration
	for i := 0; i < 5; i++ {
		got = append(got, b.NextBackOff())
	}
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second, 40 * time.Second, time.Minute, time.Minute}, got)

	b.Reset()
	assert.Equal(t, 10*time.Second, b.NextBackOff())
}

func TestJobEnd_StopsWhenContextEnds(t *testing.T) {
	ctx, cancel := JobBegin(context.Background(), uuid.New(), "attribution", 0,
		WithBaseDelay(time.Hour), WithMaxRetries(3))
	defer cancel()

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- JobEnd(ctx, func(context.Context) error {
			calls++
			return errors.New("service unavailable")
		})
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "context cancelled during retry")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(2 * time.Second):
		t.Fatal("JobEnd kept waiting after cancel")
	}
}

func TestJobEnd_NoAttemptsLeft(t *testing.T) {
	ctx, cancel := JobBegin(context.Background(), uuid.New(), "attribution", 0, WithMaxRetries(2))
	defer cancel()
	ctx = SetRetryAttempt(ctx, 2)

	calls := 0
	err := JobEnd(ctx, func(context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, ErrNonRetryable)
	assert.Zero(t, calls)
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(errors.New("429 Too Many Requests")))
	assert.True(t, IsRetryableError(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.True(t, IsRetryableError(errors.New("transcript not completed: status processing")))
	assert.False(t, IsRetryableError(errors.New("record not found")))
	assert.False(t, IsRetryableError(fmt.Errorf("%w: connection refused", ErrNonRetryable)))
	assert.False(t, IsRetryableError(nil))
}
