package jobpool

import (
	"context"
	"sync"
	"time"

	"github.com/tickforge/jobpool/core"
	"github.com/tickforge/jobpool/errors"
)

var (
	initMutex   sync.Mutex
	defaultPool *core.Pool
)

// Init constructs and starts the process-wide default pool. The
// default instance only ever exists behind this explicit call; there
// is no implicit first-use creation. Init fails if a default pool is
// already live.
func Init(ctx context.Context, options ...core.Option) (*core.Pool, error) {
	initMutex.Lock()
	defer initMutex.Unlock()

	if defaultPool != nil {
		return nil, errors.ErrAlreadyInitialized
	}

	p := core.New(options...)
	if err := p.Start(ctx); err != nil {
		return nil, err
	}

	defaultPool = p
	return p, nil
}

// Default returns the process-wide default pool, or nil before Init
// (or after Shutdown).
func Default() *core.Pool {
	initMutex.Lock()
	defer initMutex.Unlock()
	return defaultPool
}

// Shutdown stops the default pool and forgets it, so Init may be
// called again. It is a no-op when no default pool exists.
func Shutdown(timeout time.Duration) {
	initMutex.Lock()
	p := defaultPool
	defaultPool = nil
	initMutex.Unlock()

	if p != nil {
		p.Shutdown(timeout)
	}
}

// RunDrainLoop drains the pool's callbacks on the caller's goroutine
// at the given interval, invoking at most batch thunks per worker per
// tick, until ctx is cancelled or a quit signal arrives. Hosts with
// their own frame loop call Pool.Drain directly instead.
func RunDrainLoop(ctx context.Context, p *core.Pool, interval time.Duration, batch int) {
	quit := signals()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-quit:
			return
		case <-ticker.C:
			p.Drain(batch)
		}
	}
}
