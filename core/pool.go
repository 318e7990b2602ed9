package core

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	joberrors "github.com/tickforge/jobpool/errors"
)

// Pool presents a single submission surface over a fixed set of
// workers. It is explicitly constructed and owned by the host; see the
// root jobpool package for the optional process-wide default instance.
type Pool struct {
	cfg *Config

	mu      sync.Mutex
	workers []*Worker
	tracked map[string]envelope // envelope id -> cancellation handle

	started atomic.Bool
	stopped atomic.Bool

	cancelAll context.CancelFunc
}

// New creates a pool. No workers exist until Start is called.
func New(options ...Option) *Pool {
	cfg := defaultConfig()
	for _, opt := range options {
		opt(cfg)
	}

	return &Pool{
		cfg:     cfg,
		tracked: make(map[string]envelope),
	}
}

// Start creates and launches the pool's workers. The worker set is
// fixed for the pool's lifetime; it is never resized.
func (p *Pool) Start(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return joberrors.ErrAlreadyStarted
	}

	p.mu.Lock()
	ctx, p.cancelAll = context.WithCancel(ctx)
	for i := 0; i < p.cfg.Workers; i++ {
		w := newWorker(strconv.Itoa(i), p.cfg.QueueCapacity)
		w.Start(ctx)
		p.workers = append(p.workers, w)
	}
	p.mu.Unlock()

	slog.Info("pool started", "workers", p.cfg.Workers, "queue_capacity", p.cfg.QueueCapacity)
	return nil
}

// Submit places a synchronous one-shot job on the pool. onResult is
// invoked exactly once with the job's value on the drain goroutine;
// onError replaces it if the job fails. A non-nil error means the job
// was rejected and no callback will ever fire for it.
func Submit[T any](p *Pool, job Job[T], onResult func(T), onError func(error), opts ...SubmitOption) (string, error) {
	if job == nil {
		return "", joberrors.NewSubmissionError(ModeSync.String(), joberrors.ErrNilJob)
	}
	env := &syncEnvelope[T]{
		envelopeBase: newBase(ModeSync, opts...),
		job:          job,
		onResult:     onResult,
		onError:      onError,
	}
	return p.enqueue(env)
}

// SubmitAsync places an asynchronous one-shot job on the pool. The
// job's result channel is fully awaited by its worker before the next
// envelope runs.
func SubmitAsync[T any](p *Pool, job AsyncJob[T], onResult func(T), onError func(error), opts ...SubmitOption) (string, error) {
	if job == nil {
		return "", joberrors.NewSubmissionError(ModeAsync.String(), joberrors.ErrNilJob)
	}
	env := &asyncEnvelope[T]{
		envelopeBase: newBase(ModeAsync, opts...),
		job:          job,
		onResult:     onResult,
		onError:      onError,
	}
	return p.enqueue(env)
}

// SubmitStream places a synchronous streaming job on the pool.
// onProgress fires once per emitted value, strictly in emission order,
// followed by exactly one onComplete; onError replaces onComplete if
// the job fails mid-stream.
func SubmitStream[T any](p *Pool, job StreamJob[T], onProgress func(T), onComplete func(), onError func(error), opts ...SubmitOption) (string, error) {
	if job == nil {
		return "", joberrors.NewSubmissionError(ModeSyncStream.String(), joberrors.ErrNilJob)
	}
	env := &streamEnvelope[T]{
		envelopeBase: newBase(ModeSyncStream, opts...),
		job:          job,
		onProgress:   onProgress,
		onComplete:   onComplete,
		onError:      onError,
	}
	return p.enqueue(env)
}

// SubmitAsyncStream places an asynchronous streaming job on the pool.
func SubmitAsyncStream[T any](p *Pool, job AsyncStreamJob[T], onProgress func(T), onComplete func(), onError func(error), opts ...SubmitOption) (string, error) {
	if job == nil {
		return "", joberrors.NewSubmissionError(ModeAsyncStream.String(), joberrors.ErrNilJob)
	}
	env := &asyncStreamEnvelope[T]{
		envelopeBase: newBase(ModeAsyncStream, opts...),
		job:          job,
		onProgress:   onProgress,
		onComplete:   onComplete,
		onError:      onError,
	}
	return p.enqueue(env)
}

// enqueue routes an envelope to a worker and tracks it for
// cancellation. Rejection is synchronous; a rejected envelope never
// enters the system.
func (p *Pool) enqueue(env envelope) (string, error) {
	mode := env.Mode().String()
	if !p.started.Load() {
		return "", joberrors.NewSubmissionError(mode, joberrors.ErrNotStarted)
	}
	if p.stopped.Load() {
		return "", joberrors.NewSubmissionError(mode, joberrors.ErrShuttingDown)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	w := p.selectWorker()
	if w == nil {
		return "", joberrors.NewSubmissionError(mode, joberrors.ErrNoWorkersAvailable)
	}

	env.setFinish(p.finishJob)
	if !w.TryEnqueue(env) {
		return "", joberrors.NewSubmissionError(mode, joberrors.ErrQueueFull)
	}

	p.tracked[env.ID()] = env
	return env.ID(), nil
}

// selectWorker picks the first running idle worker, falling back to
// the running worker with the shortest queue (ties broken by first
// discovered). Returns nil when no worker is running.
func (p *Pool) selectWorker() *Worker {
	var shortest *Worker
	for _, w := range p.workers {
		if !w.Running() {
			continue
		}
		if !w.Busy() {
			return w
		}
		if shortest == nil || w.Pending() < shortest.Pending() {
			shortest = w
		}
	}
	return shortest
}

// finishJob is installed on every accepted envelope and runs on the
// owning worker's goroutine when the terminal outcome is known.
func (p *Pool) finishJob(ev JobEvent) {
	p.mu.Lock()
	delete(p.tracked, ev.ID)
	p.mu.Unlock()

	if p.cfg.Observer != nil {
		p.cfg.Observer(ev)
	}
}

// Cancel requests best-effort cancellation of the job with the given
// id. A still-queued job is skipped without callbacks (unless a cancel
// notification was registered); a running job is only cancelled if its
// body observes its context. Reports whether a cancellable job was
// found.
func (p *Pool) Cancel(id string) bool {
	p.mu.Lock()
	env, ok := p.tracked[id]
	p.mu.Unlock()
	if !ok {
		return false
	}
	return env.cancel()
}

// Drain invokes up to max pending callback thunks per worker (all of
// them when max <= 0) plus queued trace lines, and returns the total
// number of thunks invoked. The host must call this periodically from
// its single designated consumer goroutine; nothing else ever runs job
// callbacks.
func (p *Pool) Drain(max int) int {
	p.mu.Lock()
	workers := p.workers
	p.mu.Unlock()

	n := 0
	for _, w := range workers {
		n += w.Drain(max)
	}
	return n
}

// Stats returns a point-in-time snapshot, safe to call from any
// goroutine.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	workers := p.workers
	p.mu.Unlock()

	s := PoolStats{PoolSize: len(workers)}
	for _, w := range workers {
		if w.Busy() {
			s.ActiveWorkers++
		}
		s.QueuedJobs += int(w.Pending())
		s.PendingCallbacks += w.PendingCallbacks()
	}
	return s
}

// WorkerSnapshots returns per-worker statistics.
func (p *Pool) WorkerSnapshots() []WorkerStats {
	p.mu.Lock()
	workers := p.workers
	p.mu.Unlock()

	stats := make([]WorkerStats, 0, len(workers))
	for _, w := range workers {
		stats = append(stats, w.Stats())
	}
	return stats
}

// Shutdown stops accepting submissions, cancels all outstanding work,
// and waits up to timeout overall for workers to exit. Idempotent.
// Workers that miss the deadline are abandoned with a warning; their
// goroutines exit whenever their current job returns.
func (p *Pool) Shutdown(timeout time.Duration) {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}
	slog.Info("pool shutting down", "timeout", timeout)

	p.mu.Lock()
	workers := p.workers
	cancelAll := p.cancelAll
	outstanding := make([]envelope, 0, len(p.tracked))
	for _, env := range p.tracked {
		outstanding = append(outstanding, env)
	}
	p.mu.Unlock()

	// Cancel first so queued envelopes skip and cooperative job bodies
	// bail out during the drain below.
	for _, env := range outstanding {
		env.cancel()
	}

	deadline := time.Now().Add(timeout)
	for _, w := range workers {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		if err := w.StopWait(remaining); err != nil {
			slog.Warn("abandoning worker", "id", w.ID(), "error", err)
		}
	}

	if cancelAll != nil {
		cancelAll()
	}
	slog.Info("pool stopped")
}

// Close shuts the pool down using the configured shutdown timeout.
func (p *Pool) Close() {
	p.Shutdown(p.cfg.ShutdownTimeout)
}
