package natsclient

import (
	"context"
	"time"

	"github.com/c360/nertag/metric"
)

// Circuit breaker states as exported to the metrics gauge.
const (
	circuitStateClosed   = 0
	circuitStateOpen     = 1
	circuitStateHalfOpen = 2
)

// connMetrics records connection health into the core metrics registry.
// A nil *connMetrics is valid and makes every record method a no-op, so
// callers never need to guard on whether metrics were configured.
type connMetrics struct {
	core *metric.Metrics
}

// newConnMetrics creates a connection metrics recorder backed by the given
// registry. Returns nil if the registry is nil.
func newConnMetrics(registry *metric.MetricsRegistry) *connMetrics {
	if registry == nil {
		return nil
	}
	return &connMetrics{core: registry.CoreMetrics()}
}

func (cm *connMetrics) recordStatus(connected bool) {
	if cm == nil {
		return
	}
	cm.core.RecordNATSStatus(connected)
}

func (cm *connMetrics) recordRTT(rtt time.Duration) {
	if cm == nil {
		return
	}
	cm.core.RecordNATSRTT(rtt)
}

func (cm *connMetrics) recordReconnect() {
	if cm == nil {
		return
	}
	cm.core.RecordNATSReconnect()
}

func (cm *connMetrics) recordCircuitState(state int) {
	if cm == nil {
		return
	}
	cm.core.RecordCircuitBreakerState(state)
}

// startMetricsPoller launches a goroutine that periodically refreshes the
// connection status and RTT gauges. Event-driven metrics (reconnects,
// circuit transitions) are recorded where they happen; the poller only
// covers values that drift without an event, like RTT. Returns a cancel
// function that stops the poller.
func (m *Client) startMetricsPoller(ctx context.Context, interval time.Duration) context.CancelFunc {
	pollCtx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				m.pollConnectionStats()
			}
		}
	}()

	return cancel
}

// pollConnectionStats takes one reading of connection health for the gauges.
func (m *Client) pollConnectionStats() {
	connected := m.IsHealthy()
	m.metrics.recordStatus(connected)

	if !connected {
		return
	}

	if rtt, err := m.RTT(); err == nil {
		m.metrics.recordRTT(rtt)
	}
}
