package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/c360/nertag/metric"
)

// tagJob is the work type used across the pool tests. It stands in for
// one text waiting to be annotated.
type tagJob struct {
	text  string
	delay time.Duration
	fail  bool
}

func TestNewPool(t *testing.T) {
	processor := func(ctx context.Context, _ tagJob) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}

	// Valid parameters
	pool := NewPool(5, 100, processor)
	if pool.workers != 5 {
		t.Errorf("Expected 5 workers, got %d", pool.workers)
	}
	if pool.queueSize != 100 {
		t.Errorf("Expected queue size 100, got %d", pool.queueSize)
	}

	// Zero workers should default
	pool = NewPool(0, 100, processor)
	if pool.workers != 10 {
		t.Errorf("Expected default 10 workers, got %d", pool.workers)
	}

	// Zero queue size should default
	pool = NewPool(5, 0, processor)
	if pool.queueSize != 1000 {
		t.Errorf("Expected default queue size 1000, got %d", pool.queueSize)
	}
}

func TestNewPool_NilProcessor(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for nil processor")
		}
	}()
	NewPool[tagJob](5, 100, nil)
}

func TestPool_StartStop(t *testing.T) {
	var processedCount int64
	processor := func(_ context.Context, _ tagJob) error {
		atomic.AddInt64(&processedCount, 1)
		return nil
	}

	pool := NewPool(2, 10, processor)

	ctx := context.Background()
	err := pool.Start(ctx)
	if err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}

	// Starting twice must fail
	err = pool.Start(ctx)
	if err == nil {
		t.Error("Expected error when starting pool twice")
	}

	for i := 0; i < 5; i++ {
		err := pool.Submit(tagJob{text: "some text"})
		if err != nil {
			t.Errorf("Failed to submit job %d: %v", i, err)
		}
	}

	// Give workers time to process
	time.Sleep(100 * time.Millisecond)

	err = pool.Stop(5 * time.Second)
	if err != nil {
		t.Fatalf("Failed to stop pool: %v", err)
	}

	processed := atomic.LoadInt64(&processedCount)
	if processed != 5 {
		t.Errorf("Expected 5 processed jobs, got %d", processed)
	}

	// Submitting after stop must fail
	err = pool.Submit(tagJob{text: "late"})
	if err == nil {
		t.Error("Expected error when submitting to stopped pool")
	}
}

func TestPool_QueueFull(t *testing.T) {
	processor := func(_ context.Context, job tagJob) error {
		// Slow processor to fill queue
		time.Sleep(job.delay)
		return nil
	}

	pool := NewPool(1, 2, processor) // Small queue

	ctx := context.Background()
	err := pool.Start(ctx)
	if err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}
	defer pool.Stop(5 * time.Second)

	submitted := 0
	dropped := 0

	for i := 0; i < 5; i++ {
		err := pool.Submit(tagJob{
			text:  "slow text",
			delay: 200 * time.Millisecond,
		})
		if err != nil {
			dropped++
		} else {
			submitted++
		}
	}

	if dropped == 0 {
		t.Error("Expected some jobs to be dropped due to full queue")
	}

	if submitted == 0 {
		t.Error("Expected some jobs to be submitted successfully")
	}

	stats := pool.Stats()
	if stats.Dropped == 0 {
		t.Error("Stats should show dropped jobs")
	}
}

func TestPool_ProcessingErrors(t *testing.T) {
	var successCount, errorCount int64

	processor := func(_ context.Context, job tagJob) error {
		if job.fail {
			atomic.AddInt64(&errorCount, 1)
			return errors.New("simulated tagging failure")
		}
		atomic.AddInt64(&successCount, 1)
		return nil
	}

	pool := NewPool(2, 10, processor)

	ctx := context.Background()
	err := pool.Start(ctx)
	if err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}
	defer pool.Stop(5 * time.Second)

	// Submit mix of successful and failing jobs
	for i := 0; i < 10; i++ {
		job := tagJob{
			text: "text",
			fail: i%2 == 0, // Half will fail
		}
		err := pool.Submit(job)
		if err != nil {
			t.Errorf("Failed to submit job %d: %v", i, err)
		}
	}

	// Give workers time to process
	time.Sleep(100 * time.Millisecond)

	success := atomic.LoadInt64(&successCount)
	errCount := atomic.LoadInt64(&errorCount)

	if success != 5 {
		t.Errorf("Expected 5 successful jobs, got %d", success)
	}
	if errCount != 5 {
		t.Errorf("Expected 5 failed jobs, got %d", errCount)
	}

	stats := pool.Stats()
	if stats.Processed != 10 {
		t.Errorf("Expected 10 processed jobs in stats, got %d", stats.Processed)
	}
	if stats.Failed != 5 {
		t.Errorf("Expected 5 failed jobs in stats, got %d", stats.Failed)
	}
}

func TestPool_ContextCancellation(t *testing.T) {
	var processedCount int64

	processor := func(ctx context.Context, job tagJob) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			time.Sleep(job.delay)
			atomic.AddInt64(&processedCount, 1)
			return nil
		}
	}

	pool := NewPool(2, 10, processor)

	ctx, cancel := context.WithCancel(context.Background())
	err := pool.Start(ctx)
	if err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}

	for i := 0; i < 5; i++ {
		err := pool.Submit(tagJob{
			text:  "text",
			delay: 50 * time.Millisecond,
		})
		if err != nil {
			t.Errorf("Failed to submit job %d: %v", i, err)
		}
	}

	// Cancel context quickly
	time.Sleep(10 * time.Millisecond)
	cancel()

	err = pool.Stop(5 * time.Second)
	if err != nil {
		t.Fatalf("Failed to stop pool: %v", err)
	}

	// Some jobs might be processed before cancellation
	processed := atomic.LoadInt64(&processedCount)
	t.Logf("Processed %d jobs before cancellation", processed)
}

func TestPool_ConcurrentSubmissions(t *testing.T) {
	var processedCount int64

	processor := func(_ context.Context, _ tagJob) error {
		atomic.AddInt64(&processedCount, 1)
		return nil
	}

	pool := NewPool(5, 100, processor)

	ctx := context.Background()
	err := pool.Start(ctx)
	if err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}
	defer pool.Stop(5 * time.Second)

	var wg sync.WaitGroup
	submitters := 10
	jobsPerSubmitter := 10

	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func(submitterID int) {
			defer wg.Done()
			for j := 0; j < jobsPerSubmitter; j++ {
				err := pool.Submit(tagJob{text: "text"})
				if err != nil {
					t.Errorf("Submitter %d failed to submit job %d: %v", submitterID, j, err)
				}
			}
		}(i)
	}

	wg.Wait()

	// Give workers time to process
	time.Sleep(200 * time.Millisecond)

	processed := atomic.LoadInt64(&processedCount)
	expected := int64(submitters * jobsPerSubmitter)
	if processed != expected {
		t.Errorf("Expected %d processed jobs, got %d", expected, processed)
	}
}

func TestPool_Stats(t *testing.T) {
	processor := func(ctx context.Context, _ tagJob) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
			return nil
		}
	}

	pool := NewPool(3, 50, processor)

	// Check initial stats
	stats := pool.Stats()
	if stats.Workers != 3 {
		t.Errorf("Expected 3 workers in stats, got %d", stats.Workers)
	}
	if stats.QueueSize != 50 {
		t.Errorf("Expected queue size 50 in stats, got %d", stats.QueueSize)
	}
	if stats.Submitted != 0 {
		t.Errorf("Expected 0 submitted initially, got %d", stats.Submitted)
	}

	ctx := context.Background()
	err := pool.Start(ctx)
	if err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}
	defer pool.Stop(5 * time.Second)

	for i := 0; i < 10; i++ {
		_ = pool.Submit(tagJob{text: "text"})
	}

	// Give some time for processing
	time.Sleep(50 * time.Millisecond)
	stats = pool.Stats()

	if stats.Submitted != 10 {
		t.Errorf("Expected 10 submitted in stats, got %d", stats.Submitted)
	}

	// Processed count should be > 0 and <= submitted
	if stats.Processed <= 0 || stats.Processed > stats.Submitted {
		t.Errorf("Invalid processed count in stats: %d (submitted: %d)", stats.Processed, stats.Submitted)
	}
}

func TestPool_MetricsRegistration(t *testing.T) {
	processor := func(_ context.Context, _ tagJob) error {
		return nil
	}

	registry := metric.NewMetricsRegistry()
	pool := NewPool(2, 10, processor,
		WithMetricsRegistry[tagJob](registry, "annotator"))

	if pool.metrics == nil {
		t.Fatal("Expected metrics to be initialized with a registry")
	}

	ctx := context.Background()
	if err := pool.Start(ctx); err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}
	defer pool.Stop(5 * time.Second)

	if err := pool.Submit(tagJob{text: "text"}); err != nil {
		t.Fatalf("Failed to submit job: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	families, err := registry.PrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	found := map[string]bool{}
	for _, mf := range families {
		found[mf.GetName()] = true
	}
	for _, name := range []string{
		"nertag_annotator_queue_depth",
		"nertag_annotator_submitted_total",
		"nertag_annotator_processed_total",
	} {
		if !found[name] {
			t.Errorf("Expected metric %s to be registered", name)
		}
	}
}
