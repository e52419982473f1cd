// Package worker provides a generic, thread-safe worker pool for concurrent task processing.
//
// # Overview
//
// The worker package implements a worker pool with:
//   - Generic type support for type-safe work processing
//   - Bounded queues with backpressure (non-blocking submit)
//   - Context-aware cancellation and graceful shutdown
//   - Always-on atomic statistics plus optional Prometheus metrics
//   - Configurable worker count and queue sizing
//
// The annotation service uses a pool to fan tagging work out across a
// fixed number of concurrent exchanges with the tagging server, with
// the bounded queue absorbing message bursts from NATS.
//
// # Core Concepts
//
// A fixed number of goroutines (workers) process work items from a
// bounded channel (queue). Submit is non-blocking: when the queue is
// full, the item is dropped and ErrQueueFull returned, which is the
// overload signal callers act on. Workers receive the context passed
// to Start and stop on cancellation or when the queue is closed.
//
// Generic type safety means the pool processes any work type T without
// type assertions:
//
//	type annotateTask struct {
//	    SubmissionID string
//	    Text         string
//	}
//
//	pool := worker.NewPool(
//	    8,    // workers, one in-flight exchange each
//	    256,  // queue size
//	    func(ctx context.Context, task annotateTask) error {
//	        _, err := client.ExtractEntities(ctx, task.Text)
//	        return err
//	    },
//	)
//
// # Lifecycle
//
//	ctx := context.Background()
//	if err := pool.Start(ctx); err != nil { ... }
//
//	if err := pool.Submit(task); err != nil {
//	    if errors.Is(err, worker.ErrQueueFull) {
//	        // overloaded, shed the task
//	    }
//	}
//
//	// Drains queued work, then returns. ErrStopTimeout if workers
//	// are still busy when the timeout expires.
//	err := pool.Stop(30 * time.Second)
//
// Start may be called once; Submit before Start returns
// ErrPoolNotStarted and after Stop returns ErrPoolStopped. All
// sentinels are returned unwrapped.
//
// # Observability
//
// Statistics are always tracked with atomics and exposed via Stats():
// submitted, processed, failed, dropped, and current queue depth.
//
// Prometheus metrics are opt-in through the shared registry:
//
//	pool := worker.NewPool(8, 256, processor,
//	    worker.WithMetricsRegistry[annotateTask](registry, "annotator"))
//
// The prefix becomes the metric subsystem, producing
// nertag_annotator_queue_depth, nertag_annotator_submitted_total,
// nertag_annotator_processed_total, nertag_annotator_failed_total,
// nertag_annotator_dropped_total, nertag_annotator_utilization, and
// nertag_annotator_processing_duration_seconds labeled by status.
// Queue depth and utilization refresh once a second while the pool
// runs.
//
// # Shutdown Semantics
//
// Stop closes the queue, lets workers drain what was already accepted,
// and waits up to the timeout. Per-item timeouts belong in the
// processor function via the context; the Stop timeout bounds the
// whole pool. After ErrStopTimeout the pool is not reusable.
package worker
