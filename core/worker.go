package core

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	joberrors "github.com/tickforge/jobpool/errors"
)

// Worker owns one bounded inbound queue of envelopes and a dedicated
// execution loop that processes them strictly in submission order, one
// at a time. Outcomes never surface on the worker goroutine; they are
// queued into the worker's outbox and delivered when the host drains.
type Worker struct {
	id    string
	queue chan envelope
	out   *outbox

	pending atomic.Int64
	busy    atomic.Bool
	running atomic.Bool
	closed  atomic.Bool

	processed atomic.Int64
	failed    atomic.Int64

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newWorker(id string, capacity int) *Worker {
	return &Worker{
		id:    id,
		queue: make(chan envelope, capacity),
		out:   newOutbox(),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// ID returns the worker's identifier within its pool.
func (w *Worker) ID() string { return w.id }

// Busy reports whether the worker is currently executing an envelope.
func (w *Worker) Busy() bool { return w.busy.Load() }

// Running reports whether the worker's loop is alive.
func (w *Worker) Running() bool { return w.running.Load() }

// Pending returns the number of accepted envelopes not yet started.
func (w *Worker) Pending() int64 { return w.pending.Load() }

// PendingCallbacks returns the number of queued thunks awaiting drain.
func (w *Worker) PendingCallbacks() int { return w.out.actions.len() }

// Start spawns the worker's execution loop.
func (w *Worker) Start(ctx context.Context) {
	w.running.Store(true)
	go w.loop(ctx)
}

// TryEnqueue offers an envelope to the worker without blocking. It
// reports false when the queue is at capacity or the worker has begun
// shutting down; rejection is the engine's only backpressure signal.
func (w *Worker) TryEnqueue(env envelope) bool {
	if w.closed.Load() || !w.running.Load() {
		return false
	}
	select {
	case w.queue <- env:
		w.pending.Add(1)
		return true
	default:
		return false
	}
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.done)
	defer w.running.Store(false)

	slog.Info("worker started", "id", w.id)
	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopping", "id", w.id, "reason", "context cancelled")
			return
		case <-w.stop:
			w.flush(ctx)
			slog.Info("worker stopped", "id", w.id)
			return
		case env := <-w.queue:
			w.process(ctx, env)
		}
	}
}

// flush runs whatever was accepted before Stop, then returns. Most of
// it is usually cancelled envelopes that skip in microseconds.
func (w *Worker) flush(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-w.queue:
			w.process(ctx, env)
		default:
			return
		}
	}
}

func (w *Worker) process(ctx context.Context, env envelope) {
	w.pending.Add(-1)
	w.busy.Store(true)
	defer w.busy.Store(false)

	switch env.run(ctx, w.out) {
	case OutcomeCompleted:
		w.processed.Add(1)
	case OutcomeFailed:
		w.failed.Add(1)
	}
}

// Drain invokes up to max queued callback thunks (all of them when max
// <= 0) in FIFO order, then flushes queued trace lines through slog.
// It returns the number of thunks invoked. Drain must only ever be
// called from the host's single designated consumer goroutine; the
// engine does not detect violations.
func (w *Worker) Drain(max int) int {
	thunks := w.out.actions.popN(max)
	for _, fn := range thunks {
		fn()
	}
	for _, line := range w.out.logs.popN(0) {
		slog.Debug(line, "worker", w.id)
	}
	return len(thunks)
}

// Stop refuses further insertions and signals the loop to exit once
// the in-flight envelope and the already-accepted queue are done.
func (w *Worker) Stop() {
	w.closed.Store(true)
	w.stopOnce.Do(func() { close(w.stop) })
}

// StopWait stops the worker and waits up to timeout for its loop to
// exit. On timeout the worker is abandoned, never force-killed: a job
// body that ignores cancellation keeps its goroutine until it returns.
// That orphaned goroutine is the engine's single allowed leak.
func (w *Worker) StopWait(timeout time.Duration) error {
	w.Stop()
	select {
	case <-w.done:
		return nil
	default:
	}
	select {
	case <-w.done:
		return nil
	case <-time.After(timeout):
		return joberrors.ErrStopTimeout
	}
}

// Stats returns a snapshot of the worker's counters.
func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		ID:        w.id,
		Processed: w.processed.Load(),
		Failed:    w.failed.Load(),
		Pending:   w.pending.Load(),
		Busy:      w.busy.Load(),
		Running:   w.running.Load(),
	}
}
