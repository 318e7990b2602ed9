package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	joberrors "github.com/tickforge/jobpool/errors"
)

// Mode identifies the execution shape of a submitted job.
type Mode int

const (
	// ModeSync is a synchronous one-shot computation.
	ModeSync Mode = iota
	// ModeAsync is an asynchronous one-shot computation, fully awaited
	// by its worker before the next envelope runs.
	ModeAsync
	// ModeSyncStream is a synchronous computation emitting intermediate
	// progress values.
	ModeSyncStream
	// ModeAsyncStream is an asynchronous computation emitting
	// intermediate progress values over channels.
	ModeAsyncStream
)

func (m Mode) String() string {
	switch m {
	case ModeSync:
		return "sync"
	case ModeAsync:
		return "async"
	case ModeSyncStream:
		return "sync-stream"
	case ModeAsyncStream:
		return "async-stream"
	default:
		return "unknown"
	}
}

// Result carries the outcome of an asynchronous one-shot job.
type Result[T any] struct {
	Value T
	Err   error
}

// Job is a synchronous one-shot computation. It runs to completion on
// the worker goroutine and should watch ctx if it wants to support
// cooperative cancellation.
type Job[T any] func(ctx context.Context) (T, error)

// AsyncJob starts an asynchronous one-shot computation and returns a
// channel delivering its single result. The worker awaits the channel
// before moving on; concurrency comes from having multiple workers,
// not from overlapping jobs within one worker.
type AsyncJob[T any] func(ctx context.Context) <-chan Result[T]

// StreamJob is a synchronous streaming computation. It calls emit zero
// or more times with intermediate values; a nil return signals stream
// end, a non-nil return replaces completion with an error.
type StreamJob[T any] func(ctx context.Context, emit func(T)) error

// AsyncStreamJob starts an asynchronous streaming computation. Values
// received on the first channel become progress callbacks in order; a
// non-nil error on the second channel terminates the stream with an
// error, and closing both channels signals completion.
type AsyncStreamJob[T any] func(ctx context.Context) (<-chan T, <-chan error)

// Envelope lifecycle states.
const (
	statePending int32 = iota
	stateRunning
	stateDone
	stateCancelled
)

// envelope is the uniform, compile-time-typed execution contract that
// lets worker queues hold heterogeneous jobs.
type envelope interface {
	ID() string
	Mode() Mode
	CreatedAt() time.Time

	// run executes the job on the calling worker goroutine and queues
	// the outcome into out. It never panics and is called at most once.
	run(ctx context.Context, out *outbox) Outcome

	// cancel requests cancellation. A pending envelope moves straight
	// to cancelled and is skipped by the worker loop; a running
	// envelope has its job context cancelled, which only takes effect
	// if the job body cooperates. Reports whether the envelope was
	// still pending or running.
	cancel() bool

	// setFinish installs the pool's bookkeeping hook, fired once when
	// the terminal outcome is known.
	setFinish(func(JobEvent))
}

// envelopeBase carries identity, timestamps and the cancellation state
// machine shared by all four envelope shapes.
type envelopeBase struct {
	id        string
	mode      Mode
	createdAt time.Time

	state atomic.Int32

	mu        sync.Mutex
	cancelRun context.CancelFunc // set while running
	onCancel  func()             // optional cancellation notification
	onDone    func()             // optional completion notification for one-shot modes
	finish    func(JobEvent)     // pool bookkeeping hook, set at submission
}

func newBase(mode Mode, opts ...SubmitOption) envelopeBase {
	b := envelopeBase{
		id:        uuid.NewString(),
		mode:      mode,
		createdAt: time.Now(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// SubmitOption customizes a single submission.
type SubmitOption func(*envelopeBase)

// WithJobID overrides the generated envelope id with a caller-chosen
// one. The caller is responsible for uniqueness.
func WithJobID(id string) SubmitOption {
	return func(b *envelopeBase) {
		b.id = id
	}
}

// WithCancelNotify registers a callback invoked on the drain goroutine
// if the job is cancelled while still queued. By default a cancelled
// queued job vanishes silently.
func WithCancelNotify(fn func()) SubmitOption {
	return func(b *envelopeBase) {
		b.onCancel = fn
	}
}

// WithCompleteNotify registers a completion callback for one-shot
// modes, invoked after onResult. Streaming modes already take a
// required onComplete and ignore this option.
func WithCompleteNotify(fn func()) SubmitOption {
	return func(b *envelopeBase) {
		b.onDone = fn
	}
}

func (e *envelopeBase) ID() string           { return e.id }
func (e *envelopeBase) Mode() Mode           { return e.mode }
func (e *envelopeBase) CreatedAt() time.Time { return e.createdAt }

func (e *envelopeBase) setFinish(fn func(JobEvent)) {
	e.finish = fn
}

func (e *envelopeBase) fireFinish(outcome Outcome) {
	e.state.Store(stateDone)
	if e.finish != nil {
		e.finish(JobEvent{
			ID:       e.id,
			Mode:     e.mode,
			Outcome:  outcome,
			Duration: time.Since(e.createdAt),
		})
	}
}

func (e *envelopeBase) cancelNotify() func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.onCancel
}

// beginRun transitions pending to running and installs the job context
// cancel function. It reports false if the envelope was cancelled
// while queued.
func (e *envelopeBase) beginRun(cancel context.CancelFunc) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.CompareAndSwap(statePending, stateRunning) {
		return false
	}
	e.cancelRun = cancel
	return true
}

func (e *envelopeBase) endRun() {
	e.mu.Lock()
	e.cancelRun = nil
	e.mu.Unlock()
}

func (e *envelopeBase) cancel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state.Load() {
	case statePending:
		e.state.Store(stateCancelled)
		return true
	case stateRunning:
		if e.cancelRun != nil {
			e.cancelRun()
		}
		return true
	default:
		return false
	}
}

// succeed queues the terminal success thunk.
func (e *envelopeBase) succeed(out *outbox, thunk func()) Outcome {
	out.terminal(e, OutcomeCompleted, thunk, fmt.Sprintf(
		"job %s (%s) completed in %s",
		e.id, e.mode, time.Since(e.createdAt).Round(time.Microsecond)))
	return OutcomeCompleted
}

// fail translates an execution error into the terminal onError thunk.
// Context cancellation observed by the job body is reported as a
// cancelled outcome rather than a plain failure.
func (e *envelopeBase) fail(out *outbox, onError func(error), err error) Outcome {
	outcome := OutcomeFailed
	if errors.Is(err, context.Canceled) {
		outcome = OutcomeCancelled
		err = joberrors.ErrCancelled
	}

	werr := joberrors.NewExecutionError(e.id, e.mode.String(), err)
	thunk := func() {}
	if onError != nil {
		thunk = func() { onError(werr) }
	}

	out.terminal(e, outcome, thunk, fmt.Sprintf(
		"job %s (%s) %s after %s: %v",
		e.id, e.mode, outcome, time.Since(e.createdAt).Round(time.Microsecond), err))
	return outcome
}

// syncEnvelope wraps a synchronous one-shot job.
type syncEnvelope[T any] struct {
	envelopeBase
	job      Job[T]
	onResult func(T)
	onError  func(error)
}

func (e *syncEnvelope[T]) run(ctx context.Context, out *outbox) Outcome {
	jctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if !e.beginRun(cancel) {
		out.skipped(&e.envelopeBase)
		return OutcomeCancelled
	}

	v, err := invoke(jctx, e.job)
	e.endRun()
	if err != nil {
		return e.fail(out, e.onError, err)
	}
	return e.succeed(out, func() {
		if e.onResult != nil {
			e.onResult(v)
		}
		if e.onDone != nil {
			e.onDone()
		}
	})
}

// asyncEnvelope wraps an asynchronous one-shot job. The worker blocks
// on the job's result channel, so an async job still monopolizes its
// worker until it resolves.
type asyncEnvelope[T any] struct {
	envelopeBase
	job      AsyncJob[T]
	onResult func(T)
	onError  func(error)
}

func (e *asyncEnvelope[T]) run(ctx context.Context, out *outbox) Outcome {
	jctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if !e.beginRun(cancel) {
		out.skipped(&e.envelopeBase)
		return OutcomeCancelled
	}

	v, err := awaitResult(jctx, e.job)
	e.endRun()
	if err != nil {
		return e.fail(out, e.onError, err)
	}
	return e.succeed(out, func() {
		if e.onResult != nil {
			e.onResult(v)
		}
		if e.onDone != nil {
			e.onDone()
		}
	})
}

// streamEnvelope wraps a synchronous streaming job. Progress thunks
// are queued as the job emits them, so the host can observe progress
// while the job is still running.
type streamEnvelope[T any] struct {
	envelopeBase
	job        StreamJob[T]
	onProgress func(T)
	onComplete func()
	onError    func(error)
}

func (e *streamEnvelope[T]) run(ctx context.Context, out *outbox) Outcome {
	jctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if !e.beginRun(cancel) {
		out.skipped(&e.envelopeBase)
		return OutcomeCancelled
	}

	err := invokeStream(jctx, e.job, e.emit(out))
	e.endRun()
	if err != nil {
		return e.fail(out, e.onError, err)
	}
	return e.succeed(out, func() {
		if e.onComplete != nil {
			e.onComplete()
		}
	})
}

func (e *streamEnvelope[T]) emit(out *outbox) func(T) {
	return func(v T) {
		if e.onProgress == nil {
			return
		}
		out.pushAction(func() { e.onProgress(v) })
	}
}

// asyncStreamEnvelope wraps an asynchronous streaming job.
type asyncStreamEnvelope[T any] struct {
	envelopeBase
	job        AsyncStreamJob[T]
	onProgress func(T)
	onComplete func()
	onError    func(error)
}

func (e *asyncStreamEnvelope[T]) run(ctx context.Context, out *outbox) Outcome {
	jctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if !e.beginRun(cancel) {
		out.skipped(&e.envelopeBase)
		return OutcomeCancelled
	}

	err := awaitStream(jctx, e.job, func(v T) {
		if e.onProgress == nil {
			return
		}
		out.pushAction(func() { e.onProgress(v) })
	})
	e.endRun()
	if err != nil {
		return e.fail(out, e.onError, err)
	}
	return e.succeed(out, func() {
		if e.onComplete != nil {
			e.onComplete()
		}
	})
}

// invoke runs a one-shot job body with panic recovery.
func invoke[T any](ctx context.Context, job Job[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return job(ctx)
}

// awaitResult starts an async job and blocks until its single result
// arrives or the job context is cancelled. A job that ignores
// cancellation keeps its own goroutine alive until it returns; the
// worker simply stops waiting for it.
func awaitResult[T any](ctx context.Context, job AsyncJob[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	ch := job(ctx)
	if ch == nil {
		return v, errors.New("async job returned a nil result channel")
	}

	select {
	case r, ok := <-ch:
		if !ok {
			return v, errors.New("async job closed its result channel without a value")
		}
		return r.Value, r.Err
	case <-ctx.Done():
		return v, ctx.Err()
	}
}

// invokeStream runs a streaming job body with panic recovery.
func invokeStream[T any](ctx context.Context, job StreamJob[T], emit func(T)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return job(ctx, emit)
}

// awaitStream starts an async streaming job and pumps its values
// channel through emit until both channels close (completion), the
// error channel delivers a non-nil error, or the job context is
// cancelled.
func awaitStream[T any](ctx context.Context, job AsyncStreamJob[T], emit func(T)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	values, errs := job(ctx)
	if values == nil && errs == nil {
		return errors.New("async streaming job returned nil channels")
	}

	for values != nil || errs != nil {
		select {
		case v, ok := <-values:
			if !ok {
				values = nil
				continue
			}
			emit(v)
		case e, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if e != nil {
				return e
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
