package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/nertag/config"
	"github.com/c360/nertag/errors"
	"github.com/c360/nertag/format"
	"github.com/c360/nertag/message"
	"github.com/c360/nertag/metric"
	"github.com/c360/nertag/testutil"
)

// stubTagger is a scripted Tagger. fn receives the 1-based call number
// so tests can fail the first attempts and succeed later.
type stubTagger struct {
	mu    sync.Mutex
	calls int

	fn      func(call int, text string) (format.EntityMap, error)
	started chan struct{}
	release chan struct{}
}

func (s *stubTagger) ExtractEntities(_ context.Context, text string) (format.EntityMap, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()

	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}

	if s.fn != nil {
		return s.fn(call, text)
	}
	return format.EntityMap{"PERSON": {"Ada Lovelace"}}, nil
}

func (s *stubTagger) Format() format.Format {
	return format.InlineXML
}

func (s *stubTagger) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Service.Workers = 2
	cfg.Service.QueueSize = 8
	cfg.Service.RetryAttempts = 2
	cfg.Service.RetryInitialDelay = 5 * time.Millisecond
	cfg.Service.RetryMaxDelay = 50 * time.Millisecond
	cfg.Service.StopTimeout = 2 * time.Second
	return cfg
}

func startAnnotator(t *testing.T, cfg *config.Config, tagger Tagger, bus Bus, opts ...Option) *Annotator {
	t.Helper()

	a, err := NewAnnotator(cfg, tagger, bus, opts...)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(func() { _ = a.Stop(time.Second) })
	return a
}

func submitText(t *testing.T, bus *testutil.MockNATSClient, cfg *config.Config, text string) *message.TextSubmission {
	t.Helper()

	sub := message.NewTextSubmission(text, "test")
	data, err := json.Marshal(sub)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), cfg.NATS.SubmitSubject, data))
	return sub
}

func waitForAnnotation(t *testing.T, bus *testutil.MockNATSClient, cfg *config.Config) *message.EntityAnnotation {
	t.Helper()

	data := testutil.WaitForMessage(t, bus, cfg.NATS.AnnotatedSubject, 2*time.Second)
	var ann message.EntityAnnotation
	require.NoError(t, json.Unmarshal(data, &ann))
	return &ann
}

func TestNewAnnotator_Validation(t *testing.T) {
	tagger := &stubTagger{}
	bus := testutil.NewMockNATSClient()

	tests := []struct {
		name     string
		cfg      *config.Config
		tagger   Tagger
		bus      Bus
		wantText string
	}{
		{
			name:     "nil config",
			cfg:      nil,
			tagger:   tagger,
			bus:      bus,
			wantText: "config is required",
		},
		{
			name: "invalid config",
			cfg: func() *config.Config {
				cfg := testConfig()
				cfg.Client.Port = 0
				return cfg
			}(),
			tagger:   tagger,
			bus:      bus,
			wantText: "client.port",
		},
		{
			name:     "nil tagger",
			cfg:      testConfig(),
			tagger:   nil,
			bus:      bus,
			wantText: "tagger is required",
		},
		{
			name:     "nil bus",
			cfg:      testConfig(),
			tagger:   tagger,
			bus:      nil,
			wantText: "bus is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAnnotator(tt.cfg, tt.tagger, tt.bus)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantText)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestAnnotator_Lifecycle(t *testing.T) {
	cfg := testConfig()
	bus := testutil.NewMockNATSClient()

	a, err := NewAnnotator(cfg, &stubTagger{}, bus)
	require.NoError(t, err)
	assert.Equal(t, StatusStopped, a.Status())
	assert.Equal(t, "annotator", a.Name())

	require.NoError(t, a.Start(context.Background()))
	assert.Equal(t, StatusRunning, a.Status())

	// Second Start while running is an error
	err = a.Start(context.Background())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrAlreadyStarted))
	assert.True(t, errors.IsInvalid(err))
	assert.Contains(t, err.Error(), "already running")

	require.NoError(t, a.Stop(time.Second))
	assert.Equal(t, StatusStopped, a.Status())

	// Stop when already stopped is a no-op
	assert.NoError(t, a.Stop(time.Second))
}

func TestAnnotator_AnnotatesSubmission(t *testing.T) {
	cfg := testConfig()
	bus := testutil.NewMockNATSClient()
	tagger := &stubTagger{
		fn: func(_ int, _ string) (format.EntityMap, error) {
			return format.EntityMap{
				"PERSON":   {"Tim Cook"},
				"LOCATION": {"Cupertino"},
			}, nil
		},
	}

	a := startAnnotator(t, cfg, tagger, bus)
	sub := submitText(t, bus, cfg, "Tim Cook spoke in Cupertino.")

	ann := waitForAnnotation(t, bus, cfg)
	assert.Equal(t, sub.ID, ann.RequestID)
	assert.Equal(t, message.StatusOK, ann.Status)
	assert.Equal(t, format.InlineXML, ann.Format)
	assert.Equal(t, "annotator", ann.Source)
	assert.Equal(t, []string{"Tim Cook"}, ann.Entities["PERSON"])
	assert.Equal(t, []string{"Cupertino"}, ann.Entities["LOCATION"])
	assert.Empty(t, ann.Error)

	info := a.GetStatus()
	assert.Equal(t, int64(1), info.Received)
	assert.Equal(t, int64(1), info.Annotated)
	assert.Equal(t, int64(0), info.Failed)
	assert.Equal(t, int64(0), info.Dropped)
}

func TestAnnotator_RetriesTransientFailures(t *testing.T) {
	cfg := testConfig()
	bus := testutil.NewMockNATSClient()
	tagger := &stubTagger{
		fn: func(call int, _ string) (format.EntityMap, error) {
			if call < 3 {
				return nil, errors.WrapTransient(errors.ErrConnection,
					"Client", "ExtractEntities", "exchange text")
			}
			return format.EntityMap{"PERSON": {"Grace Hopper"}}, nil
		},
	}

	a := startAnnotator(t, cfg, tagger, bus)
	submitText(t, bus, cfg, "Grace Hopper wrote the compiler.")

	ann := waitForAnnotation(t, bus, cfg)
	assert.Equal(t, message.StatusOK, ann.Status)
	assert.Equal(t, []string{"Grace Hopper"}, ann.Entities["PERSON"])
	assert.Equal(t, 3, tagger.callCount())

	info := a.GetStatus()
	assert.Equal(t, int64(1), info.Annotated)
	assert.Equal(t, int64(0), info.Failed)
}

func TestAnnotator_ErrorAnnotationAfterRetriesExhausted(t *testing.T) {
	cfg := testConfig()
	cfg.Service.RetryAttempts = 1
	bus := testutil.NewMockNATSClient()
	tagger := &stubTagger{
		fn: func(_ int, _ string) (format.EntityMap, error) {
			return nil, errors.WrapTransient(
				fmt.Errorf("cannot reach http://tagger.internal:8080"),
				"Client", "ExtractEntities", "exchange text")
		},
	}

	a := startAnnotator(t, cfg, tagger, bus)
	sub := submitText(t, bus, cfg, "some text")

	ann := waitForAnnotation(t, bus, cfg)
	assert.Equal(t, message.StatusError, ann.Status)
	assert.Equal(t, sub.ID, ann.RequestID)
	assert.Nil(t, ann.Entities)

	// One initial attempt plus one retry
	assert.Equal(t, 2, tagger.callCount())

	// The published message must not leak the backend address
	assert.NotContains(t, ann.Error, "tagger.internal")
	assert.Contains(t, ann.Error, "[URL]")

	info := a.GetStatus()
	assert.Equal(t, int64(1), info.Failed)
	assert.Equal(t, int64(0), info.Annotated)
}

func TestAnnotator_InvalidFailureNotRetried(t *testing.T) {
	cfg := testConfig()
	bus := testutil.NewMockNATSClient()
	tagger := &stubTagger{
		fn: func(_ int, _ string) (format.EntityMap, error) {
			return nil, errors.WrapInvalid(errors.ErrInvalidOutputFormat,
				"Client", "ExtractEntities", "parse tagged text")
		},
	}

	a := startAnnotator(t, cfg, tagger, bus)
	submitText(t, bus, cfg, "some text")

	ann := waitForAnnotation(t, bus, cfg)
	assert.Equal(t, message.StatusError, ann.Status)
	assert.NotEmpty(t, ann.Error)
	// Retry framing stays internal
	assert.NotContains(t, ann.Error, "non-retryable")

	// No retries for invalid-classified failures
	assert.Equal(t, 1, tagger.callCount())
	assert.Equal(t, int64(1), a.GetStatus().Failed)
}

func TestAnnotator_DropsUndecodableSubmission(t *testing.T) {
	cfg := testConfig()
	bus := testutil.NewMockNATSClient()

	a := startAnnotator(t, cfg, &stubTagger{}, bus)
	require.NoError(t, bus.Publish(context.Background(), cfg.NATS.SubmitSubject, []byte("{not json")))

	// The mock delivers synchronously, so the drop is already counted
	info := a.GetStatus()
	assert.Equal(t, int64(1), info.Received)
	assert.Equal(t, int64(1), info.Dropped)
	testutil.AssertNoMessages(t, bus, cfg.NATS.AnnotatedSubject)
}

func TestAnnotator_DropsEmptyText(t *testing.T) {
	cfg := testConfig()
	bus := testutil.NewMockNATSClient()

	a := startAnnotator(t, cfg, &stubTagger{}, bus)
	submitText(t, bus, cfg, "")

	info := a.GetStatus()
	assert.Equal(t, int64(1), info.Received)
	assert.Equal(t, int64(1), info.Dropped)
	testutil.AssertNoMessages(t, bus, cfg.NATS.AnnotatedSubject)
}

func TestAnnotator_RateLimitDrops(t *testing.T) {
	cfg := testConfig()
	cfg.Service.RateLimit = 1
	cfg.Service.RateBurst = 1
	bus := testutil.NewMockNATSClient()

	a := startAnnotator(t, cfg, &stubTagger{}, bus)

	submitText(t, bus, cfg, "first")
	submitText(t, bus, cfg, "second")
	submitText(t, bus, cfg, "third")

	// Only the first fits the burst; the rest are dropped
	testutil.WaitForMessageCount(t, bus, cfg.NATS.AnnotatedSubject, 1, 2*time.Second)

	info := a.GetStatus()
	assert.Equal(t, int64(3), info.Received)
	assert.Equal(t, int64(2), info.Dropped)
	assert.Equal(t, int64(1), info.Annotated)
}

func TestAnnotator_QueueFullDrops(t *testing.T) {
	cfg := testConfig()
	cfg.Service.Workers = 1
	cfg.Service.QueueSize = 1
	bus := testutil.NewMockNATSClient()
	tagger := &stubTagger{
		started: make(chan struct{}, 4),
		release: make(chan struct{}),
	}

	a := startAnnotator(t, cfg, tagger, bus)

	// First submission occupies the single worker
	submitText(t, bus, cfg, "first")
	select {
	case <-tagger.started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first submission")
	}

	// Second fills the queue, third has nowhere to go
	submitText(t, bus, cfg, "second")
	submitText(t, bus, cfg, "third")

	info := a.GetStatus()
	assert.Equal(t, int64(3), info.Received)
	assert.Equal(t, int64(1), info.Dropped)

	// Unblock the worker and let the two accepted submissions finish
	close(tagger.release)
	testutil.WaitForMessageCount(t, bus, cfg.NATS.AnnotatedSubject, 2, 2*time.Second)
	assert.Equal(t, int64(2), a.GetStatus().Annotated)
}

func TestAnnotator_StopIgnoresNewMessages(t *testing.T) {
	cfg := testConfig()
	bus := testutil.NewMockNATSClient()

	a, err := NewAnnotator(cfg, &stubTagger{}, bus)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	require.NoError(t, a.Stop(time.Second))

	submitText(t, bus, cfg, "after stop")

	info := a.GetStatus()
	assert.Equal(t, int64(0), info.Received)
	testutil.AssertNoMessages(t, bus, cfg.NATS.AnnotatedSubject)
}

func TestAnnotator_Health(t *testing.T) {
	cfg := testConfig()
	bus := testutil.NewMockNATSClient()

	a, err := NewAnnotator(cfg, &stubTagger{}, bus)
	require.NoError(t, err)

	// Stopped annotator is unhealthy
	h := a.Health()
	assert.True(t, h.IsUnhealthy())
	assert.Equal(t, "annotator", h.Component)

	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(func() { _ = a.Stop(time.Second) })

	h = a.Health()
	assert.True(t, h.IsHealthy())
	require.NotNil(t, h.Metrics)

	// Losing NATS degrades a running annotator
	bus.SetHealthy(false)
	h = a.Health()
	assert.True(t, h.IsDegraded())
	assert.Contains(t, h.Message, "NATS")
}

func TestAnnotator_HealthCounters(t *testing.T) {
	cfg := testConfig()
	bus := testutil.NewMockNATSClient()

	a := startAnnotator(t, cfg, &stubTagger{}, bus)
	submitText(t, bus, cfg, "count me")
	waitForAnnotation(t, bus, cfg)

	h := a.Health()
	require.NotNil(t, h.Metrics)
	assert.Equal(t, int64(1), h.Metrics.MessagesProcessed)
	assert.Equal(t, 0, h.Metrics.ErrorCount)
	assert.False(t, h.Metrics.LastActivity.IsZero())
}

func TestAnnotator_WithName(t *testing.T) {
	cfg := testConfig()
	bus := testutil.NewMockNATSClient()

	a := startAnnotator(t, cfg, &stubTagger{}, bus, WithName("annotator-7"))
	assert.Equal(t, "annotator-7", a.Name())

	submitText(t, bus, cfg, "named")
	ann := waitForAnnotation(t, bus, cfg)
	assert.Equal(t, "annotator-7", ann.Source)
}

func TestAnnotator_WithMetrics(t *testing.T) {
	cfg := testConfig()
	bus := testutil.NewMockNATSClient()
	registry := metric.NewMetricsRegistry()

	a := startAnnotator(t, cfg, &stubTagger{}, bus, WithMetrics(registry))
	submitText(t, bus, cfg, "measured")
	waitForAnnotation(t, bus, cfg)

	// The pool's gauges and counters are registered and gathering works
	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["nertag_annotator_submitted_total"])
	assert.True(t, names["nertag_messages_received_total"])

	assert.Equal(t, int64(1), a.GetStatus().Annotated)
}

func TestAnnotator_PublishFailureCountsAsFailed(t *testing.T) {
	cfg := testConfig()
	bus := testutil.NewMockNATSClient()
	tagger := &stubTagger{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}

	a := startAnnotator(t, cfg, tagger, bus)
	submitText(t, bus, cfg, "will not publish")

	// Hold the worker inside the tagger, then fail the reply publish
	select {
	case <-tagger.started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the submission")
	}
	bus.SetPublishError(fmt.Errorf("nats: connection closed"))
	close(tagger.release)

	require.Eventually(t, func() bool {
		return a.GetStatus().Failed == 1
	}, 2*time.Second, 10*time.Millisecond)

	bus.SetPublishError(nil)
	assert.Equal(t, int64(0), a.GetStatus().Annotated)
}
