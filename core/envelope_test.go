package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMode_String(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeSync, "sync"},
		{ModeAsync, "async"},
		{ModeSyncStream, "sync-stream"},
		{ModeAsyncStream, "async-stream"},
		{Mode(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.mode.String())
	}
}

func TestNewBase_GeneratesID(t *testing.T) {
	a := newBase(ModeSync)
	b := newBase(ModeSync)

	assert.NotEmpty(t, a.id)
	assert.NotEqual(t, a.id, b.id)
	assert.False(t, a.createdAt.IsZero())
}

func TestNewBase_Options(t *testing.T) {
	notified := false
	b := newBase(ModeAsync,
		WithJobID("custom-id"),
		WithCancelNotify(func() { notified = true }),
	)

	assert.Equal(t, "custom-id", b.id)
	require.NotNil(t, b.onCancel)
	b.onCancel()
	assert.True(t, notified)
}

func TestEnvelopeBase_CancelPending(t *testing.T) {
	b := newBase(ModeSync)

	assert.True(t, b.cancel())
	assert.False(t, b.cancel(), "second cancel finds nothing to do")
	assert.False(t, b.beginRun(func() {}), "cancelled envelope must not run")
}

func TestEnvelopeBase_CancelRunning(t *testing.T) {
	b := newBase(ModeSync)
	cancelled := false

	require.True(t, b.beginRun(func() { cancelled = true }))
	assert.True(t, b.cancel())
	assert.True(t, cancelled, "running envelope's job context is cancelled")

	b.endRun()
	b.fireFinish(OutcomeCancelled)
	assert.False(t, b.cancel(), "finished envelope is not cancellable")
}

func TestInvoke_PanicRecovery(t *testing.T) {
	_, err := invoke(context.Background(), func(ctx context.Context) (int, error) {
		panic("boom")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: boom")
}

func TestAwaitResult_Value(t *testing.T) {
	job := func(ctx context.Context) <-chan Result[string] {
		ch := make(chan Result[string], 1)
		ch <- Result[string]{Value: "done"}
		return ch
	}

	v, err := awaitResult(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestAwaitResult_NilChannel(t *testing.T) {
	job := func(ctx context.Context) <-chan Result[int] { return nil }

	_, err := awaitResult(context.Background(), job)
	assert.Error(t, err)
}

func TestAwaitResult_ClosedWithoutValue(t *testing.T) {
	job := func(ctx context.Context) <-chan Result[int] {
		ch := make(chan Result[int])
		close(ch)
		return ch
	}

	_, err := awaitResult(context.Background(), job)
	assert.Error(t, err)
}

func TestAwaitResult_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := func(ctx context.Context) <-chan Result[int] {
		return make(chan Result[int]) // never delivers
	}

	_, err := awaitResult(ctx, job)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAwaitStream_ValuesThenComplete(t *testing.T) {
	job := func(ctx context.Context) (<-chan int, <-chan error) {
		values := make(chan int, 3)
		errs := make(chan error)
		values <- 1
		values <- 2
		values <- 3
		close(values)
		close(errs)
		return values, errs
	}

	var got []int
	err := awaitStream(context.Background(), job, func(v int) { got = append(got, v) })
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestAwaitStream_ErrorTerminatesStream(t *testing.T) {
	streamErr := errors.New("stream broke")
	job := func(ctx context.Context) (<-chan int, <-chan error) {
		values := make(chan int)
		errs := make(chan error, 1)
		errs <- streamErr
		return values, errs
	}

	err := awaitStream(context.Background(), job, func(int) {})
	assert.ErrorIs(t, err, streamErr)
}

func TestAwaitStream_NilChannels(t *testing.T) {
	job := func(ctx context.Context) (<-chan int, <-chan error) { return nil, nil }

	err := awaitStream(context.Background(), job, func(int) {})
	assert.Error(t, err)
}

func TestAwaitStream_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := func(ctx context.Context) (<-chan int, <-chan error) {
		return make(chan int), make(chan error)
	}

	err := awaitStream(ctx, job, func(int) {})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFifo_PopN(t *testing.T) {
	var q fifo[int]
	for i := 1; i <= 5; i++ {
		q.push(i)
	}

	assert.Equal(t, 5, q.len())
	assert.Equal(t, []int{1, 2}, q.popN(2))
	assert.Equal(t, []int{3, 4, 5}, q.popN(0), "n <= 0 pops everything")
	assert.Nil(t, q.popN(1))
	assert.Equal(t, 0, q.len())
}

func TestFifo_PushAfterPop(t *testing.T) {
	var q fifo[int]
	q.push(1)
	q.push(2)

	first := q.popN(1)
	q.push(3)

	assert.Equal(t, []int{1}, first)
	assert.Equal(t, []int{2, 3}, q.popN(0))
}
