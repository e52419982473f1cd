// Package service provides the annotator bridge: a long-running
// component that connects NATS subjects to a tagging client.
//
// The Annotator queue-subscribes to the text submit subject, runs each
// accepted submission through the tagger on a bounded worker pool, and
// publishes exactly one EntityAnnotation per accepted submission,
// carrying extracted entities on success or a sanitized error message
// on failure.
//
// # Lifecycle
//
// The annotator follows the standard lifecycle pattern:
//
//	Stopped → Starting → Running → Stopping → Stopped
//
// Start launches the worker pool and subscribes to the submit subject.
// Stop marks the annotator stopped so new messages are ignored, then
// drains queued work up to the timeout. Starting a running annotator
// is an error; stopping a stopped one is a no-op. An Annotator runs
// once: create a fresh one to restart.
//
// # Message Flow
//
// Each message on the submit subject passes through a gate chain
// before any work is done:
//
//  1. Decode: undecodable JSON is dropped with a warning, no reply.
//  2. Validate: submissions with empty text are dropped, no reply.
//  3. Rate limit: over-limit submissions are dropped (when configured).
//  4. Queue: submissions are dropped when the worker queue is full.
//
// Accepted submissions are tagged with bounded retries. Transient
// failures (connection resets, timeouts) are retried with exponential
// backoff; invalid inputs fail immediately. After the final failure an
// error annotation is published so the submitter always hears back.
//
// # Basic Usage
//
//	cfg := config.DefaultConfig()
//
//	tagger, err := client.NewSocket(cfg.Client.Host, cfg.Client.Port)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	bus, err := natsclient.NewClient(cfg.NATS.URL)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	annotator, err := service.NewAnnotator(cfg, tagger, bus,
//		service.WithLogger(logger),
//		service.WithMetrics(registry),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := annotator.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer annotator.Stop(30 * time.Second)
//
// # Dependencies
//
// The annotator takes its two dependencies behind small interfaces:
// Tagger (satisfied by *client.Client) and Bus (satisfied by
// *natsclient.Client). Tests substitute in-memory fakes for both.
//
// # Counters
//
// Four monotonic counters track the pipeline: received (messages
// arriving on the subject), annotated (successful annotations
// published), failed (tagging or publish failures), dropped (messages
// rejected by the gate chain). GetStatus returns them all; Health
// folds the failure and success counts into the health metrics.
package service
