// Package health provides health monitoring for the pieces of a tagging
// deployment with thread-safe status tracking and aggregation.
//
// The health package enables tracking the health status of individual
// components (the NATS connection, the annotator service, the tagger backend)
// and aggregating system-wide health information for monitoring, alerting,
// and operational visibility.
//
// # Health States
//
// The package supports three health states:
//   - Healthy: component operating normally
//   - Degraded: component operating with reduced functionality
//   - Unhealthy: component not functioning properly
//
// This three-state model enables nuanced health reporting and appropriate
// operational responses. A tagger with rising latency might report degraded
// and trigger capacity scaling, while an unreachable tagger reports unhealthy
// and triggers immediate incident response.
//
// # Core Components
//
// Status: Individual component health state containing status level,
// descriptive message, timestamp, optional metrics, and hierarchical
// sub-statuses for composite systems.
//
// Monitor: Thread-safe centralized tracking for multiple component health
// statuses with concurrent read/write access and automatic timestamp
// management.
//
// Helpers: Convenience functions for creating status objects and aggregating
// system health.
//
// # Basic Usage
//
// Creating and tracking component health:
//
//	monitor := health.NewMonitor()
//
//	// Update component health
//	monitor.UpdateHealthy("nats", "Connected to cluster")
//	monitor.UpdateDegraded("annotator", "Submission backlog growing")
//	monitor.UpdateUnhealthy("tagger", "Connection refused after 5 attempts")
//
//	// Check individual component health
//	if status, exists := monitor.Get("nats"); exists {
//	    if status.IsHealthy() {
//	        log.Println("NATS is healthy")
//	    }
//	}
//
//	// Get all component statuses
//	allStatuses := monitor.GetAll()
//	for name, status := range allStatuses {
//	    log.Printf("%s: %s - %s", name, status.Status, status.Message)
//	}
//
// # System-Wide Health Aggregation
//
// Combining multiple component health statuses into system-wide indicators:
//
//	// Aggregate all monitored components
//	systemHealth := monitor.AggregateHealth("nertagd")
//	if systemHealth.IsUnhealthy() {
//	    log.Printf("System unhealthy: %s", systemHealth.Message)
//	    // Trigger alerts, failover, etc.
//	}
//
//	// Aggregation uses hierarchical rules:
//	// - Any unhealthy component → system unhealthy
//	// - Any degraded component (with no unhealthy) → system degraded
//	// - All healthy → system healthy
//
// # Hierarchical Status
//
// Building nested health status for composite components:
//
//	busStatus := health.NewHealthy("nats", "Connected")
//	poolStatus := health.NewDegraded("workers", "2 of 4 workers busy over 30s")
//
//	serviceHealth := health.NewHealthy("annotator", "Running").
//	    WithSubStatus(busStatus).
//	    WithSubStatus(poolStatus)
//
// # Health Metrics
//
// Attaching operational counters to health status:
//
//	metrics := &health.Metrics{
//	    Uptime:            time.Since(started),
//	    ErrorCount:        int(failed),
//	    MessagesProcessed: annotated,
//	    LastActivity:      lastAnnotation,
//	}
//
//	status := health.NewHealthy("annotator", "Processing submissions").
//	    WithMetrics(metrics)
//
// # Error Sanitization
//
// Error messages that leave the process (health endpoints, annotation error
// payloads) should pass through SanitizeErrorMessage first. FromError does
// this automatically when building a status from an operation's outcome:
//
//	status := health.FromError("tagger", err)
//
//	// Original error with sensitive data:
//	//   "failed to connect to https://tagger.internal:9021 with token=abc123"
//	// After sanitization:
//	//   "failed to connect to [URL] with [REDACTED]"
//
// Sanitization patterns:
//   - URLs: http://, https://, nats://, ws://, wss:// → [URL]
//   - File paths: /path/to/file, C:\path\to\file → [PATH]
//   - IP addresses: 192.168.1.100 → [IP]
//   - Ports: :8080 → [PORT]
//   - Credentials: password=X, token=X, key=X, secret=X → [REDACTED]
//
// Sanitization is applied by default (no opt-out) to prevent accidental
// credential exposure, even if it occasionally over-redacts during debugging.
//
// # Thread Safety
//
// All Monitor operations are thread-safe and can be safely called from
// multiple goroutines:
//
//	monitor := health.NewMonitor()
//
//	// Safe to call concurrently
//	go monitor.UpdateHealthy("nats", "Connected")
//	go monitor.UpdateHealthy("annotator", "Running")
//
//	// Read operations can happen concurrently with writes
//	go func() {
//	    for {
//	        systemHealth := monitor.AggregateHealth("nertagd")
//	        log.Printf("System health: %s", systemHealth.Status)
//	        time.Sleep(5 * time.Second)
//	    }
//	}()
//
// The Monitor uses an RWMutex internally to allow concurrent reads while
// protecting writes. Status objects are immutable - methods like WithMetrics
// and WithSubStatus return new copies rather than modifying the original.
//
// # Error Handling Philosophy
//
// The health package does not return errors because it represents the
// *result* of error handling, not part of error propagation. Health status
// is an observability output.
//
// Components creating Status objects should use the errors package for any
// error wrapping before converting to health status messages. The health
// package then sanitizes these messages for safe display.
//
// # Architecture Integration
//
// The health package integrates with the rest of the module:
//   - service: the annotator implements Health() returning health.Status
//   - natsclient: connection state feeds the "nats" component status
//   - cmd/nertagd: the /healthz endpoint serializes Monitor.AggregateHealth
//   - message: annotation error payloads carry sanitized failure text
//
// Data flow:
//
//	operation error → health.FromError → health.Status → Monitor → HTTP /healthz
//
// # Design Decisions
//
// Three-State Model: Chose healthy/degraded/unhealthy over binary
// healthy/unhealthy to enable nuanced operational responses. Degraded state
// allows the pipeline to keep serving while signaling that capacity or an
// upstream dependency needs attention.
//
// Value-Based Status: Status is a struct, not *Status, making it immutable
// and preventing accidental mutation. Methods like WithMetrics return new
// copies.
//
// Conservative Aggregation: System health follows "worst case" rules - a
// single unhealthy component marks the entire system unhealthy. This ensures
// problems are not masked by healthy components.
//
// # Examples
//
// HTTP health endpoint:
//
//	func healthHandler(monitor *health.Monitor) http.HandlerFunc {
//	    return func(w http.ResponseWriter, r *http.Request) {
//	        systemHealth := monitor.AggregateHealth("nertagd")
//
//	        statusCode := http.StatusOK
//	        if systemHealth.IsUnhealthy() {
//	            statusCode = http.StatusServiceUnavailable
//	        }
//
//	        w.Header().Set("Content-Type", "application/json")
//	        w.WriteHeader(statusCode)
//	        json.NewEncoder(w).Encode(systemHealth)
//	    }
//	}
package health
