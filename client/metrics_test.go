package client

import (
	"testing"
	"time"

	"github.com/c360/nertag/format"
	"github.com/c360/nertag/metric"
)

func TestClientMetrics_Creation(t *testing.T) {
	registry := metric.NewMetricsRegistry()

	metrics := newMetrics(registry)
	if metrics == nil {
		t.Fatal("Expected metrics to be created, but got nil")
	}

	if metrics.exchanges == nil {
		t.Fatal("Expected exchanges metric to be created")
	}
	if metrics.duration == nil {
		t.Fatal("Expected duration metric to be created")
	}
	if metrics.sentBytes == nil {
		t.Fatal("Expected sentBytes metric to be created")
	}
	if metrics.receivedBytes == nil {
		t.Fatal("Expected receivedBytes metric to be created")
	}
	if metrics.entities == nil {
		t.Fatal("Expected entities metric to be created")
	}
}

func TestClientMetrics_NilRegistry(t *testing.T) {
	metrics := newMetrics(nil)
	if metrics != nil {
		t.Fatal("Expected nil metrics when registry is nil")
	}
}

func TestClientMetrics_NilReceiverIsNoOp(t *testing.T) {
	var metrics *Metrics

	// Must not panic.
	metrics.recordExchange("socket", "success", time.Millisecond, 10, 20)
	metrics.recordEntities(format.EntityMap{"PERSON": {"John Smith"}})
}

func TestClientMetrics_Record(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	metrics := newMetrics(registry)

	metrics.recordExchange("socket", "success", 5*time.Millisecond, 26, 80)
	metrics.recordExchange("http", "error", time.Millisecond, 26, 0)
	metrics.recordEntities(format.EntityMap{
		"PERSON":   {"John Smith"},
		"LOCATION": {"Paris", "Berlin"},
	})
}
