package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/c360/nertag/config"
	"github.com/c360/nertag/errors"
	"github.com/c360/nertag/format"
	"github.com/c360/nertag/health"
	"github.com/c360/nertag/message"
	"github.com/c360/nertag/metric"
	"github.com/c360/nertag/pkg/retry"
	"github.com/c360/nertag/pkg/worker"
)

// Tagger is the tagging capability the annotator needs from a client.
// *client.Client satisfies it.
type Tagger interface {
	ExtractEntities(ctx context.Context, text string) (format.EntityMap, error)
	Format() format.Format
}

// Bus is the messaging capability the annotator needs from a NATS
// client. *natsclient.Client satisfies it.
type Bus interface {
	Publish(ctx context.Context, subject string, data []byte) error
	QueueSubscribe(ctx context.Context, subject, queue string, handler func(context.Context, []byte)) error
	IsHealthy() bool
}

// Option is a functional option for configuring the Annotator
type Option func(*Annotator)

// WithLogger sets a custom logger for the annotator
func WithLogger(logger *slog.Logger) Option {
	return func(a *Annotator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics sets the metrics registry for the annotator
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(a *Annotator) {
		a.metrics = registry
	}
}

// WithName overrides the annotator name used as the annotation source
// and the metrics service label.
func WithName(name string) Option {
	return func(a *Annotator) {
		if name != "" {
			a.name = name
		}
	}
}

// Annotator bridges NATS subjects to a tagging client. It
// queue-subscribes to the submit subject, runs each accepted
// submission through the tagger on a worker pool, and publishes an
// EntityAnnotation for every accepted submission, success or failure.
//
// An Annotator runs once: after Stop the worker pool is drained for
// good, so a restart needs a fresh Annotator.
type Annotator struct {
	name    string
	cfg     *config.Config
	tagger  Tagger
	bus     Bus
	logger  *slog.Logger
	metrics *metric.MetricsRegistry

	limiter  *rate.Limiter
	retryCfg retry.Config
	pool     *worker.Pool[*message.TextSubmission]

	status       atomic.Value // Status
	startTime    atomic.Value // time.Time
	lastActivity atomic.Value // time.Time

	received  atomic.Int64
	annotated atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64

	mu sync.Mutex
}

// NewAnnotator creates an annotator from a validated config and its
// two dependencies. The tagger is typically a *client.Client, the bus
// a *natsclient.Client.
func NewAnnotator(cfg *config.Config, tagger Tagger, bus Bus, opts ...Option) (*Annotator, error) {
	if cfg == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig,
			"Annotator", "NewAnnotator", "config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tagger == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig,
			"Annotator", "NewAnnotator", "tagger is required")
	}
	if bus == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig,
			"Annotator", "NewAnnotator", "bus is required")
	}

	a := &Annotator{
		name:   "annotator",
		cfg:    cfg,
		tagger: tagger,
		bus:    bus,
		logger: slog.Default().With("service", "annotator"),
	}

	for _, opt := range opts {
		opt(a)
	}

	if cfg.Service.RateLimit > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(cfg.Service.RateLimit), cfg.Service.RateBurst)
	}

	a.retryCfg = errors.RetryConfig{
		MaxRetries:    cfg.Service.RetryAttempts,
		InitialDelay:  cfg.Service.RetryInitialDelay,
		MaxDelay:      cfg.Service.RetryMaxDelay,
		BackoffFactor: 2.0,
	}.ToRetryConfig()

	var poolOpts []worker.Option[*message.TextSubmission]
	if a.metrics != nil {
		poolOpts = append(poolOpts,
			worker.WithMetricsRegistry[*message.TextSubmission](a.metrics, a.name))
	}
	a.pool = worker.NewPool(cfg.Service.Workers, cfg.Service.QueueSize, a.annotate, poolOpts...)

	a.status.Store(StatusStopped)
	a.startTime.Store(time.Time{})
	a.lastActivity.Store(time.Time{})

	return a, nil
}

// Name returns the annotator name
func (a *Annotator) Name() string {
	return a.name
}

// Status returns the current lifecycle state
func (a *Annotator) Status() Status {
	return a.status.Load().(Status)
}

// Start starts the worker pool and subscribes to the submit subject.
// Calling Start on a running annotator is an error.
func (a *Annotator) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	current := a.Status()
	if current == StatusRunning || current == StatusStarting {
		return errors.WrapInvalid(errors.ErrAlreadyStarted,
			"Annotator", "Start", "already running")
	}

	a.setStatus(StatusStarting)

	if err := a.pool.Start(ctx); err != nil {
		a.setStatus(StatusStopped)
		return errors.WrapInvalid(err, "Annotator", "Start", "start worker pool")
	}

	err := a.bus.QueueSubscribe(ctx, a.cfg.NATS.SubmitSubject, a.cfg.NATS.QueueGroup, a.handleSubmission)
	if err != nil {
		_ = a.pool.Stop(a.cfg.Service.StopTimeout)
		a.setStatus(StatusStopped)
		return errors.WrapTransient(err, "Annotator", "Start", "subscribe to submit subject")
	}

	now := time.Now()
	a.startTime.Store(now)
	a.lastActivity.Store(now)
	a.setStatus(StatusRunning)

	a.logger.Info("annotator started",
		"subject", a.cfg.NATS.SubmitSubject,
		"queue", a.cfg.NATS.QueueGroup,
		"workers", a.cfg.Service.Workers)

	return nil
}

// Stop marks the annotator stopped and drains the worker pool. New
// messages arriving after Stop are ignored; queued work is given up
// to timeout to finish. Stopping a stopped annotator is a no-op.
func (a *Annotator) Stop(timeout time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	current := a.Status()
	if current == StatusStopped || current == StatusStopping {
		return nil
	}

	a.setStatus(StatusStopping)

	if timeout <= 0 {
		timeout = a.cfg.Service.StopTimeout
	}

	err := a.pool.Stop(timeout)
	a.setStatus(StatusStopped)
	if err != nil {
		return errors.Wrap(err, "Annotator", "Stop", "drain worker pool")
	}

	a.logger.Info("annotator stopped",
		"received", a.received.Load(),
		"annotated", a.annotated.Load(),
		"failed", a.failed.Load(),
		"dropped", a.dropped.Load())

	return nil
}

// Health reports the annotator's health: lifecycle state, NATS
// connectivity, and processing counters.
func (a *Annotator) Health() health.Status {
	var s health.Status

	switch a.Status() {
	case StatusRunning:
		if !a.bus.IsHealthy() {
			s = health.NewDegraded(a.name, "NATS connection unhealthy")
		} else {
			s = health.NewHealthy(a.name, "Annotator operating normally")
		}
	case StatusStarting:
		s = health.NewDegraded(a.name, "Annotator is starting")
	case StatusStopping:
		s = health.NewDegraded(a.name, "Annotator is stopping")
	default:
		s = health.NewUnhealthy(a.name, "Annotator is stopped")
	}

	startTime := a.startTime.Load().(time.Time)
	uptime := time.Duration(0)
	if !startTime.IsZero() && a.Status() == StatusRunning {
		uptime = time.Since(startTime)
	}

	return s.WithMetrics(&health.Metrics{
		Uptime:            uptime,
		ErrorCount:        int(a.failed.Load()),
		MessagesProcessed: a.annotated.Load(),
		LastActivity:      a.lastActivity.Load().(time.Time),
	})
}

// GetStatus returns runtime information including all counters
func (a *Annotator) GetStatus() Info {
	startTime := a.startTime.Load().(time.Time)

	uptime := time.Duration(0)
	if !startTime.IsZero() && a.Status() == StatusRunning {
		uptime = time.Since(startTime)
	}

	return Info{
		Name:         a.name,
		Status:       a.Status(),
		Uptime:       uptime,
		StartTime:    startTime,
		Received:     a.received.Load(),
		Annotated:    a.annotated.Load(),
		Failed:       a.failed.Load(),
		Dropped:      a.dropped.Load(),
		LastActivity: a.lastActivity.Load().(time.Time),
	}
}

func (a *Annotator) setStatus(s Status) {
	a.status.Store(s)
	if a.metrics != nil {
		a.metrics.CoreMetrics().RecordServiceStatus(a.name, int(s))
	}
}

// handleSubmission is the queue subscription callback. It decodes and
// gates each message, then hands accepted submissions to the pool.
// Nothing is published for messages dropped here.
func (a *Annotator) handleSubmission(_ context.Context, data []byte) {
	st := a.Status()
	if st != StatusRunning && st != StatusStarting {
		return
	}

	a.received.Add(1)
	a.lastActivity.Store(time.Now())
	if a.metrics != nil {
		a.metrics.CoreMetrics().RecordMessageReceived(a.name, "text_submission")
	}

	var sub message.TextSubmission
	if err := json.Unmarshal(data, &sub); err != nil {
		a.drop("decode", "dropping undecodable submission", "error", err)
		return
	}

	if err := sub.Validate(); err != nil {
		a.drop("validate", "dropping invalid submission", "id", sub.ID, "error", err)
		return
	}

	if a.limiter != nil && !a.limiter.Allow() {
		a.drop("rate_limited", "dropping submission over rate limit", "id", sub.ID)
		return
	}

	if err := a.pool.Submit(&sub); err != nil {
		a.drop("queue_full", "dropping submission, queue full", "id", sub.ID, "error", err)
		return
	}
}

func (a *Annotator) drop(reason, msg string, args ...any) {
	a.dropped.Add(1)
	a.logger.Warn(msg, args...)
	if a.metrics != nil {
		a.metrics.CoreMetrics().RecordError(a.name, reason)
	}
}

// annotate is the pool processor: tag one submission and publish
// exactly one annotation for it, carrying entities on success and a
// sanitized error message on failure.
func (a *Annotator) annotate(ctx context.Context, sub *message.TextSubmission) error {
	start := time.Now()

	var entities format.EntityMap
	tagErr := retry.Do(ctx, a.retryCfg, func() error {
		var err error
		entities, err = a.tagger.ExtractEntities(ctx, sub.Text)
		if err == nil {
			return nil
		}
		if errors.IsTransient(err) {
			return err
		}
		return retry.NonRetryable(err)
	})

	f := a.tagger.Format()

	var ann *message.EntityAnnotation
	if tagErr != nil {
		ann = message.NewErrorAnnotation(sub, f, sanitizeCause(tagErr), a.name)
		a.logger.Error("annotation failed", "id", sub.ID, "error", tagErr)
	} else {
		ann = message.NewEntityAnnotation(sub, f, entities, a.name)
	}

	pubErr := a.publishAnnotation(ctx, ann)
	a.lastActivity.Store(time.Now())

	switch {
	case pubErr != nil:
		a.failed.Add(1)
		a.logger.Error("annotation publish failed", "id", sub.ID, "error", pubErr)
		if a.metrics != nil {
			a.metrics.CoreMetrics().RecordMessageProcessed(a.name, "text_submission", "error")
		}
		return pubErr
	case tagErr != nil:
		a.failed.Add(1)
		if a.metrics != nil {
			a.metrics.CoreMetrics().RecordMessageProcessed(a.name, "text_submission", "error")
		}
		return tagErr
	default:
		a.annotated.Add(1)
		if a.metrics != nil {
			a.metrics.CoreMetrics().RecordMessageProcessed(a.name, "text_submission", "ok")
			a.metrics.CoreMetrics().RecordProcessingDuration(a.name, "annotate", time.Since(start))
		}
		return nil
	}
}

func (a *Annotator) publishAnnotation(ctx context.Context, ann *message.EntityAnnotation) error {
	data, err := json.Marshal(ann)
	if err != nil {
		return errors.WrapInvalid(err, "Annotator", "publishAnnotation", "encode annotation")
	}

	if err := a.bus.Publish(ctx, a.cfg.NATS.AnnotatedSubject, data); err != nil {
		return errors.WrapTransient(err, "Annotator", "publishAnnotation", "publish annotation")
	}

	if a.metrics != nil {
		a.metrics.CoreMetrics().RecordMessagePublished(a.name, a.cfg.NATS.AnnotatedSubject)
	}
	return nil
}

// sanitizeCause extracts the underlying cause from retry framing and
// scrubs hosts, paths, and credentials before the text goes on the
// wire.
func sanitizeCause(err error) string {
	cause := err
	var nre *retry.NonRetryableError
	if stderrors.As(err, &nre) {
		cause = nre.Err
	}
	return health.SanitizeErrorMessage(cause.Error())
}
