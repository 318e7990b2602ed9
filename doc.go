// Package jobpool is a background job-execution engine for
// latency-sensitive hosts. It offloads one-shot and streaming
// computations onto a fixed set of dedicated workers while delivering
// every completion, progress and error callback back on the host's own
// designated goroutine, never concurrently with the host's per-tick
// logic.
//
// The engine lives in the core package; this root package only holds
// the optional process-wide default instance and a convenience drain
// loop. Pools are explicitly constructed and owned:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"time"
//
//		"github.com/tickforge/jobpool/core"
//	)
//
//	func main() {
//		pool := core.New(core.WithWorkers(4))
//		pool.Start(context.Background())
//		defer pool.Close()
//
//		core.Submit(pool,
//			func(ctx context.Context) (int, error) { return 21 * 2, nil },
//			func(v int) { fmt.Println("result:", v) },
//			func(err error) { fmt.Println("failed:", err) },
//		)
//
//		// The host's tick loop flushes pending callbacks. Callbacks
//		// only ever run here, on the draining goroutine.
//		for range time.Tick(16 * time.Millisecond) {
//			pool.Drain(10)
//		}
//	}
//
// # Backpressure
//
// Each worker's inbound queue is bounded. Submissions never block:
// when the chosen worker's queue is full the submit call fails
// synchronously with ErrQueueFull and the job never enters the system.
//
// # Cancellation
//
// Cancellation is cooperative. A still-queued job is removed without
// executing and fires no callbacks; a running job is only interrupted
// if its body watches its context. Shutdown waits a bounded time and
// then abandons, rather than kills, any worker still running a
// non-cooperative job.
package jobpool
