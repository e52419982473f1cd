package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/c360/nertag/errors"
	"github.com/c360/nertag/format"
	"github.com/c360/nertag/metric"
)

// DefaultTimeout bounds a single exchange. An unresponsive server
// would otherwise hang the caller indefinitely.
const DefaultTimeout = 30 * time.Second

// Client binds a Transport and an output format into the caller-facing
// tagging API. A Client is created once, holds no state between calls,
// and is safe for concurrent use; every call opens and closes its own
// transport resource.
type Client struct {
	transport Transport
	format    format.Format
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *Metrics
}

// Option configures a Client during construction.
type Option func(*Client) error

// New creates a Client around an existing Transport. The output format
// defaults to InlineXML; a format outside the three supported grammars
// fails immediately with errors.ErrInvalidOutputFormat, before any
// network activity.
func New(transport Transport, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig,
			"Client", "New", "check transport")
	}

	c := &Client{
		transport: transport,
		format:    format.InlineXML,
		timeout:   DefaultTimeout,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	// The transports need pieces of the facade's configuration: the
	// HTTP form carries the format, and the socket transport logs
	// through the client's logger.
	switch tr := c.transport.(type) {
	case *HTTPTransport:
		tr.OutputFormat = c.format
	case *SocketTransport:
		if tr.Logger == nil {
			tr.Logger = c.logger
		}
	}

	return c, nil
}

// NewSocket creates a Client over a raw TCP socket transport.
func NewSocket(host string, port int, opts ...Option) (*Client, error) {
	return New(NewSocketTransport(host, port), opts...)
}

// NewHTTP creates a Client over an HTTP POST transport.
func NewHTTP(host string, port int, opts ...Option) (*Client, error) {
	return New(NewHTTPTransport(host, port), opts...)
}

// WithFormat selects the tagged-text grammar the server should answer
// with. Anything outside slashTags, xml, or inlineXML fails with
// errors.ErrInvalidOutputFormat.
func WithFormat(f format.Format) Option {
	return func(c *Client) error {
		if !f.Valid() {
			return errors.WrapInvalid(errors.ErrInvalidOutputFormat,
				"Client", "WithFormat", fmt.Sprintf("validate %q", f))
		}
		c.format = f
		return nil
	}
}

// WithTimeout bounds each exchange. The default is DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig,
				"Client", "WithTimeout", "timeout must be positive")
		}
		c.timeout = d
		return nil
	}
}

// WithLogger sets the structured logger for per-exchange debug logs.
// The default logger discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			return errors.WrapInvalid(errors.ErrInvalidConfig,
				"Client", "WithLogger", "logger must not be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithMetrics registers exchange metrics with the given registry. A
// nil registry disables metrics.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(c *Client) error {
		c.metrics = newMetrics(registry)
		return nil
	}
}

// WithPath sets the request path on an HTTP transport.
func WithPath(path string) Option {
	return func(c *Client) error {
		tr, err := c.httpTransport("WithPath")
		if err != nil {
			return err
		}
		tr.Path = path
		return nil
	}
}

// WithClassifier names a server-side model for an HTTP transport.
func WithClassifier(classifier string) Option {
	return func(c *Client) error {
		tr, err := c.httpTransport("WithClassifier")
		if err != nil {
			return err
		}
		tr.Classifier = classifier
		return nil
	}
}

// WithPreserveSpacing sets the spacing flag on an HTTP transport.
func WithPreserveSpacing(preserve bool) Option {
	return func(c *Client) error {
		tr, err := c.httpTransport("WithPreserveSpacing")
		if err != nil {
			return err
		}
		tr.PreserveSpacing = preserve
		return nil
	}
}

// WithHTTPClient replaces the underlying *http.Client of an HTTP
// transport.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		tr, err := c.httpTransport("WithHTTPClient")
		if err != nil {
			return err
		}
		tr.HTTPClient = httpClient
		return nil
	}
}

// WithMaxResponse overrides the response read cap of a socket
// transport.
func WithMaxResponse(maxBytes int64) Option {
	return func(c *Client) error {
		tr, ok := c.transport.(*SocketTransport)
		if !ok {
			return errors.WrapInvalid(errors.ErrInvalidConfig,
				"Client", "WithMaxResponse", "option applies to socket transports only")
		}
		if maxBytes <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig,
				"Client", "WithMaxResponse", "cap must be positive")
		}
		tr.MaxResponse = maxBytes
		return nil
	}
}

func (c *Client) httpTransport(option string) (*HTTPTransport, error) {
	tr, ok := c.transport.(*HTTPTransport)
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"Client", option, "option applies to HTTP transports only")
	}
	return tr, nil
}

// Format returns the output format the client was constructed with.
func (c *Client) Format() format.Format {
	return c.format
}

// TagText sends text to the tagging server and returns the raw tagged
// response without parsing it. The input is normalized to a single
// terminated line before sending.
func (c *Client) TagText(ctx context.Context, text string) (string, error) {
	payload := Normalize(text)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	kind := c.transport.Kind()
	start := time.Now()
	tagged, err := c.transport.Exchange(ctx, payload)
	duration := time.Since(start)

	if err != nil {
		c.metrics.recordExchange(kind, "error", duration, len(payload), 0)
		c.logger.Debug("exchange failed",
			"transport", kind,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", err
	}

	c.metrics.recordExchange(kind, "success", duration, len(payload), len(tagged))
	c.logger.Debug("exchange complete",
		"transport", kind,
		"sent_bytes", len(payload),
		"received_bytes", len(tagged),
		"duration_ms", duration.Milliseconds())

	return tagged, nil
}

// ExtractEntities sends text to the tagging server and aggregates the
// tagged response into an EntityMap using the configured format.
// Parsing is lenient: a response that does not match the grammar
// yields an empty map, not an error. Transport failures surface as
// transient errors matching errors.ErrTransport.
func (c *Client) ExtractEntities(ctx context.Context, text string) (format.EntityMap, error) {
	tagged, err := c.TagText(ctx, text)
	if err != nil {
		return nil, err
	}

	entities := format.Extract(c.format, tagged)
	c.metrics.recordEntities(entities)
	c.logger.Debug("entities extracted",
		"format", c.format.String(),
		"types", len(entities),
		"entities", entities.Count())

	return entities, nil
}
