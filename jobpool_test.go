package jobpool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickforge/jobpool/core"
	joberrors "github.com/tickforge/jobpool/errors"
)

func TestInitAndShutdown(t *testing.T) {
	t.Cleanup(func() { Shutdown(time.Second) })

	assert.Nil(t, Default(), "no default pool before Init")

	p, err := Init(context.Background(), core.WithWorkers(1))
	require.NoError(t, err)
	assert.Same(t, p, Default())

	_, err = Init(context.Background())
	assert.ErrorIs(t, err, joberrors.ErrAlreadyInitialized)

	Shutdown(time.Second)
	assert.Nil(t, Default(), "Shutdown forgets the default pool")

	// Init is allowed again after Shutdown.
	_, err = Init(context.Background(), core.WithWorkers(1))
	require.NoError(t, err)
}

func TestShutdown_NoDefaultPool(t *testing.T) {
	Shutdown(time.Second) // no-op, must not panic
}

func TestDefaultPool_RunsJobs(t *testing.T) {
	t.Cleanup(func() { Shutdown(time.Second) })

	p, err := Init(context.Background(), core.WithWorkers(2))
	require.NoError(t, err)

	got := 0
	_, err = core.Submit(p,
		func(ctx context.Context) (int, error) { return 21 * 2, nil },
		func(v int) { got = v },
		nil,
	)
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && got == 0 {
		p.Drain(10)
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, 42, got)
}

func TestRunDrainLoop_StopsOnContext(t *testing.T) {
	t.Cleanup(func() { Shutdown(time.Second) })

	p, err := Init(context.Background(), core.WithWorkers(1))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		RunDrainLoop(ctx, p, 5*time.Millisecond, 10)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("drain loop did not stop on context cancellation")
	}
}
