package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAnnotator simulates a service that registers its own metrics
type mockAnnotator struct {
	name    string
	metrics struct {
		textsAnnotated prometheus.Counter
		queueDepth     prometheus.Gauge
	}
}

func newMockAnnotator(name string) *mockAnnotator {
	return &mockAnnotator{name: name}
}

// RegisterMetrics registers domain-specific metrics for the mock service
func (m *mockAnnotator) RegisterMetrics(registrar MetricsRegistrar) error {
	m.metrics.textsAnnotated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nertag",
		Subsystem: "mock_annotator",
		Name:      "texts_annotated_total",
		Help:      "Total number of texts annotated",
	})

	err := registrar.RegisterCounter(m.name, "texts_annotated_total", m.metrics.textsAnnotated)
	if err != nil {
		return err
	}

	m.metrics.queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nertag",
		Subsystem: "mock_annotator",
		Name:      "queue_depth",
		Help:      "Current depth of the annotation queue",
	})

	return registrar.RegisterGauge(m.name, "queue_depth", m.metrics.queueDepth)
}

// Annotate simulates work and updates metrics
func (m *mockAnnotator) Annotate(texts int, queueDepth int) {
	m.metrics.textsAnnotated.Add(float64(texts))
	m.metrics.queueDepth.Set(float64(queueDepth))
}

func TestMetricsIntegration_ServiceRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	annotator := newMockAnnotator("test-annotator")

	err := annotator.RegisterMetrics(registry)
	require.NoError(t, err)

	annotator.Annotate(10, 5)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	foundMetrics := make(map[string]bool)
	for _, mf := range metricFamilies {
		foundMetrics[mf.GetName()] = true
	}

	assert.True(t, foundMetrics["nertag_mock_annotator_texts_annotated_total"],
		"Custom texts_annotated metric should be registered")
	assert.True(t, foundMetrics["nertag_mock_annotator_queue_depth"],
		"Custom queue_depth metric should be registered")
}

func TestMetricsIntegration_NoDuplicateRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	// Two services with the same name should not both register
	service1 := newMockAnnotator("duplicate-service")
	service2 := newMockAnnotator("duplicate-service")

	err := service1.RegisterMetrics(registry)
	require.NoError(t, err)

	err = service2.RegisterMetrics(registry)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestMetricsIntegration_CoreAndServiceMetricsSeparate(t *testing.T) {
	registry := NewMetricsRegistry()
	coreMetrics := registry.CoreMetrics()

	annotator := newMockAnnotator("separation-test")
	err := annotator.RegisterMetrics(registry)
	require.NoError(t, err)

	// Use core metrics
	coreMetrics.RecordServiceStatus("separation-test", 2)
	coreMetrics.RecordMessageReceived("separation-test", "text_submission")

	// Use service-specific metrics
	annotator.Annotate(5, 3)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	foundMetrics := make(map[string]bool)
	for _, mf := range metricFamilies {
		foundMetrics[mf.GetName()] = true
	}

	assert.True(t, foundMetrics["nertag_service_status"],
		"core service status metric should be present")
	assert.True(t, foundMetrics["nertag_messages_received_total"],
		"core messages received metric should be present")

	assert.True(t, foundMetrics["nertag_mock_annotator_texts_annotated_total"],
		"Service-specific annotation metric should be present")
	assert.True(t, foundMetrics["nertag_mock_annotator_queue_depth"],
		"Service-specific queue depth metric should be present")
}

func TestMetricsIntegration_MetricsUnregistration(t *testing.T) {
	registry := NewMetricsRegistry()

	annotator := newMockAnnotator("unregister-test")

	err := annotator.RegisterMetrics(registry)
	require.NoError(t, err)

	annotator.Annotate(1, 1)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	foundBefore := make(map[string]bool)
	for _, mf := range metricFamilies {
		foundBefore[mf.GetName()] = true
	}

	assert.True(t, foundBefore["nertag_mock_annotator_texts_annotated_total"],
		"Metric should be present before unregistration")

	success := registry.Unregister("unregister-test", "texts_annotated_total")
	assert.True(t, success, "Unregistration should succeed")

	metricFamilies, err = registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	foundAfter := make(map[string]bool)
	for _, mf := range metricFamilies {
		foundAfter[mf.GetName()] = true
	}

	assert.False(t, foundAfter["nertag_mock_annotator_texts_annotated_total"],
		"Metric should be absent after unregistration")
	assert.True(t, foundAfter["nertag_mock_annotator_queue_depth"],
		"Other service metrics should remain")
}

func TestMetricsIntegration_MultipleServicesWithConflictingNames(t *testing.T) {
	registry := NewMetricsRegistry()

	// Different service names, but identical Prometheus metric names
	service1 := newMockAnnotator("annotator-east")
	service2 := newMockAnnotator("annotator-west")

	err := service1.RegisterMetrics(registry)
	require.NoError(t, err)

	// The second registration collides at the Prometheus level because
	// both services build collectors with the same fully-qualified name
	err = service2.RegisterMetrics(registry)
	assert.Error(t, err, "Second service should fail due to Prometheus metric name conflict")
	assert.Contains(t, err.Error(), "prometheus conflict")
}
