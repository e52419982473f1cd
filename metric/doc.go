// Package metric provides Prometheus-based metrics collection and an
// HTTP server for monitoring nertag processes.
//
// The package offers a centralized metrics registry managing both core
// platform metrics (service status, message flow, NATS health) and
// component-specific metrics, plus an HTTP server exposing everything
// in Prometheus format.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Core Metrics: platform-level metrics registered automatically (Metrics type)
//  2. Registry: extensible registration for component metrics (MetricsRegistrar interface)
//  3. HTTP Server: metrics endpoint with a health check (Server type)
//
// Core metrics cover what every process has in common; components such
// as the tagging client or the annotation worker pool register their
// own collectors under a service-scoped name.
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Printf("metrics server error: %v", err)
//	    }
//	}()
//
//	coreMetrics := registry.CoreMetrics()
//	coreMetrics.RecordServiceStatus("annotator", 2) // running
//	coreMetrics.RecordMessageReceived("annotator", "text_submission")
//	coreMetrics.RecordNATSStatus(true)
//
// Metrics are served at http://localhost:9090/metrics and a health
// check at http://localhost:9090/health.
//
// # Core Metrics
//
// Registered automatically by NewMetricsRegistry:
//
//   - Service lifecycle: nertag_service_status (0=stopped, 1=starting, 2=running, 3=stopping, 4=failed)
//   - Message flow: nertag_messages_received_total, nertag_messages_processed_total, nertag_messages_published_total
//   - Processing performance: nertag_processing_duration_seconds
//   - Error tracking: nertag_errors_total
//   - Health checks: nertag_health_status
//   - NATS connectivity: nertag_nats_connected, nertag_nats_rtt_milliseconds,
//     nertag_nats_reconnects_total, nertag_nats_circuit_breaker
//
// Go runtime and process collectors are included as well.
//
// # Component Metrics
//
// Components register their own collectors through the registry:
//
//	exchanges := prometheus.NewCounterVec(
//	    prometheus.CounterOpts{
//	        Namespace: "nertag",
//	        Subsystem: "client",
//	        Name:      "exchanges_total",
//	        Help:      "Tagging exchanges by transport and outcome",
//	    },
//	    []string{"transport", "outcome"},
//	)
//	err := registry.RegisterCounterVec("client", "exchanges", exchanges)
//
// The registry tracks collectors under service.metric keys, so a
// duplicate registration fails with an invalid-classified error
// instead of a Prometheus panic. Unregister removes a collector when
// a component shuts down.
//
// # Conventions
//
// Component constructors take the registry as an optional dependency:
// a nil registry means metrics are disabled and the component's
// newMetrics helper returns nil, whose record methods are no-ops.
// This keeps metric calls unconditional at call sites.
package metric
