package core

import "time"

// Outcome classifies how an envelope left the system.
type Outcome int

const (
	// OutcomeCompleted means the terminal result/complete callback was
	// queued for delivery.
	OutcomeCompleted Outcome = iota
	// OutcomeFailed means the job body returned an error or panicked.
	OutcomeFailed
	// OutcomeCancelled means the job was cancelled while queued or
	// observed cancellation while running.
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// JobEvent describes a terminal job outcome. Events are delivered to
// the pool's observer (if any) from worker goroutines, so observers
// must be safe for concurrent use.
type JobEvent struct {
	ID       string
	Mode     Mode
	Outcome  Outcome
	Duration time.Duration // submission to terminal outcome
}

// PoolStats is a point-in-time snapshot of pool state. Each field is
// read independently; the snapshot is not transactionally consistent
// across fields.
type PoolStats struct {
	// PoolSize is the configured, fixed number of workers.
	PoolSize int
	// ActiveWorkers counts workers currently executing an envelope.
	ActiveWorkers int
	// QueuedJobs counts envelopes accepted but not yet started, summed
	// across workers.
	QueuedJobs int
	// PendingCallbacks counts queued callback thunks awaiting a drain.
	PendingCallbacks int
}

// WorkerStats contains statistics for a single worker.
type WorkerStats struct {
	ID        string
	Processed int64
	Failed    int64
	Pending   int64
	Busy      bool
	Running   bool
}
