// Package retry provides simple exponential backoff retry logic for transient failures.
//
// # Overview
//
// This package offers a minimal retry mechanism with exponential backoff, designed to handle
// transient failures when talking to remote taggers: refused connections, dropped sockets,
// 5xx responses, and slow restarts of the annotation server.
//
// # Core Functions
//
//   - Do: Execute function with retry and exponential backoff
//   - DoWithResult: Execute function with retry, returns both result and error
//
// # Configuration Presets
//
//   - DefaultConfig(): 3 attempts, 100ms-5s delay (normal operations)
//   - Quick(): 10 attempts, 50ms-1s delay (service startup)
//   - Persistent(): 30 attempts, 200ms-10s delay (critical resources)
//
// # Usage Examples
//
// Basic retry with defaults:
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
//	    _, err := tagger.TagText(ctx, text)
//	    return err
//	})
//
// Service startup with quick retries:
//
//	cfg := retry.Quick()
//	err := retry.Do(ctx, cfg, func() error {
//	    return annotator.Start(ctx)
//	})
//
// Retry with result:
//
//	entities, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (format.EntityMap, error) {
//	    return tagger.ExtractEntities(ctx, text)
//	})
//
// Custom configuration:
//
//	cfg := retry.Config{
//	    MaxAttempts:  5,
//	    InitialDelay: 200 * time.Millisecond,
//	    MaxDelay:     10 * time.Second,
//	    Multiplier:   2.0,
//	    AddJitter:    true,
//	}
//	err := retry.Do(ctx, cfg, operation)
//
// # Non-Retryable Errors
//
// Wrap an error with NonRetryable to make Do fail immediately instead of burning the
// remaining attempts. Callers that classify errors with the errors package typically
// wrap anything that is not transient:
//
//	err := retry.Do(ctx, cfg, func() error {
//	    entities, err := tagger.ExtractEntities(ctx, text)
//	    if err != nil {
//	        if errors.IsTransient(err) {
//	            return err
//	        }
//	        return retry.NonRetryable(err)
//	    }
//	    return publish(entities)
//	})
//
// # Design Philosophy
//
// This package is intentionally minimal:
//
//   - No circuit breakers (the NATS client carries its own)
//   - No metrics collection (use instrumentation at call site)
//   - No complex error classification (caller decides what to retry)
//   - Just exponential backoff with jitter
//
// # Context Cancellation
//
// All retry operations respect context cancellation and will immediately stop retrying
// when the context is cancelled, either during operation execution or during backoff delay.
//
// # Thread Safety
//
// All functions are safe for concurrent use. The jitter mechanism uses a thread-safe
// random source to avoid contention.
package retry
