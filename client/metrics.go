package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/nertag/format"
	"github.com/c360/nertag/metric"
)

// Metrics tracks exchange and extraction activity for one client.
type Metrics struct {
	exchanges     *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	sentBytes     prometheus.Histogram
	receivedBytes prometheus.Histogram
	entities      *prometheus.CounterVec
}

// newMetrics creates and registers client metrics. A nil registry
// yields nil metrics; the record methods treat a nil receiver as a
// no-op.
func newMetrics(registry *metric.MetricsRegistry) *Metrics {
	if registry == nil {
		return nil
	}

	m := &Metrics{
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nertag",
			Subsystem: "client",
			Name:      "exchanges_total",
			Help:      "Tagging exchanges by transport and outcome",
		}, []string{"transport", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nertag",
			Subsystem: "client",
			Name:      "exchange_duration_seconds",
			Help:      "Time spent on one tagging exchange",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"transport"}),
		sentBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nertag",
			Subsystem: "client",
			Name:      "sent_bytes",
			Help:      "Payload sizes sent to the tagger",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}),
		receivedBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nertag",
			Subsystem: "client",
			Name:      "received_bytes",
			Help:      "Tagged reply sizes received from the tagger",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}),
		entities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nertag",
			Subsystem: "client",
			Name:      "entities_total",
			Help:      "Entities extracted by type label",
		}, []string{"entity_type"}),
	}

	registry.RegisterCounterVec("client", "exchanges", m.exchanges)
	registry.RegisterHistogramVec("client", "exchange_duration", m.duration)
	registry.RegisterHistogram("client", "sent_bytes", m.sentBytes)
	registry.RegisterHistogram("client", "received_bytes", m.receivedBytes)
	registry.RegisterCounterVec("client", "entities", m.entities)

	return m
}

func (m *Metrics) recordExchange(transport, outcome string, duration time.Duration, sent, received int) {
	if m == nil {
		return
	}
	m.exchanges.WithLabelValues(transport, outcome).Inc()
	m.duration.WithLabelValues(transport).Observe(duration.Seconds())
	m.sentBytes.Observe(float64(sent))
	if received > 0 {
		m.receivedBytes.Observe(float64(received))
	}
}

func (m *Metrics) recordEntities(entities format.EntityMap) {
	if m == nil {
		return
	}
	for entityType, list := range entities {
		m.entities.WithLabelValues(entityType).Add(float64(len(list)))
	}
}
