package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/c360/nertag/client"
	"github.com/c360/nertag/errors"
	"github.com/c360/nertag/format"
	"github.com/c360/nertag/message"
)

// Transport kind constants for ClientConfig.Transport.
const (
	TransportSocket = "socket" // raw TCP, one line out, tagged lines back
	TransportHTTP   = "http"   // form-encoded POST to the tagging servlet
)

// Config is the complete daemon configuration: how to reach the tagging
// server, how to reach NATS, how the annotator behaves, and how the
// process observes itself.
type Config struct {
	Client  ClientConfig  `json:"client"`
	NATS    NATSConfig    `json:"nats"`
	Service ServiceConfig `json:"service"`
	Metrics MetricsConfig `json:"metrics"`
	Log     LogConfig     `json:"log"`
}

// ClientConfig defines how the tagging client reaches the server.
type ClientConfig struct {
	Transport        string        `json:"transport"`                    // "socket" or "http"
	Host             string        `json:"host"`
	Port             int           `json:"port"`
	Path             string        `json:"path,omitempty"`               // HTTP only
	Classifier       string        `json:"classifier,omitempty"`         // HTTP only
	PreserveSpacing  bool          `json:"preserve_spacing,omitempty"`   // HTTP only
	OutputFormat     string        `json:"output_format"`
	Timeout          time.Duration `json:"timeout,omitempty"`
	MaxResponseBytes int64         `json:"max_response_bytes,omitempty"` // socket only
}

// NATSConfig defines the bridge's NATS connection and subjects.
type NATSConfig struct {
	URL              string        `json:"url"`
	Name             string        `json:"name,omitempty"`
	SubmitSubject    string        `json:"submit_subject,omitempty"`
	AnnotatedSubject string        `json:"annotated_subject,omitempty"`
	QueueGroup       string        `json:"queue_group,omitempty"`
	MaxReconnects    int           `json:"max_reconnects,omitempty"`
	ReconnectWait    time.Duration `json:"reconnect_wait,omitempty"`
	Token            string        `json:"token,omitempty"`
	CredentialsFile  string        `json:"credentials_file,omitempty"`
}

// ServiceConfig tunes the annotator's worker pool, rate limiting, and
// retry behavior.
type ServiceConfig struct {
	Workers           int           `json:"workers,omitempty"`
	QueueSize         int           `json:"queue_size,omitempty"`
	RateLimit         float64       `json:"rate_limit,omitempty"` // submissions per second, 0 = unlimited
	RateBurst         int           `json:"rate_burst,omitempty"`
	RetryAttempts     int           `json:"retry_attempts,omitempty"`
	RetryInitialDelay time.Duration `json:"retry_initial_delay,omitempty"`
	RetryMaxDelay     time.Duration `json:"retry_max_delay,omitempty"`
	StopTimeout       time.Duration `json:"stop_timeout,omitempty"`
}

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port,omitempty"`
	Path    string `json:"path,omitempty"`
}

// LogConfig controls the daemon's structured logging.
type LogConfig struct {
	Level  string `json:"level,omitempty"`  // debug, info, warn, error
	Format string `json:"format,omitempty"` // text or json
}

// DefaultConfig returns the configuration the daemon runs with when no
// file and no environment overrides are present. The client defaults
// mirror the reference tagging server's out-of-the-box settings.
func DefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			Transport:    TransportSocket,
			Host:         "localhost",
			Port:         1234,
			Path:         client.DefaultPath,
			OutputFormat: format.InlineXML.String(),
			Timeout:      client.DefaultTimeout,
		},
		NATS: NATSConfig{
			URL:              "nats://localhost:4222",
			Name:             "nertagd",
			SubmitSubject:    message.DefaultSubmitSubject,
			AnnotatedSubject: message.DefaultAnnotatedSubject,
			QueueGroup:       "annotators",
			MaxReconnects:    -1,
			ReconnectWait:    2 * time.Second,
		},
		Service: ServiceConfig{
			Workers:           4,
			QueueSize:         64,
			RateLimit:         0,
			RateBurst:         1,
			RetryAttempts:     3,
			RetryInitialDelay: 100 * time.Millisecond,
			RetryMaxDelay:     5 * time.Second,
			StopTimeout:       30 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the whole configuration section by section. Failures
// are invalid-classified and name the offending field.
func (c *Config) Validate() error {
	if err := c.Client.Validate(); err != nil {
		return err
	}
	if err := c.NATS.Validate(); err != nil {
		return err
	}
	if err := c.Service.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}

// Validate checks the tagging client section.
func (c *ClientConfig) Validate() error {
	switch c.Transport {
	case TransportSocket, TransportHTTP:
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("client.transport must be %q or %q, got %q",
				TransportSocket, TransportHTTP, c.Transport))
	}

	if c.Host == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
			"client.host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("client.port must be between 1 and 65535, got %d", c.Port))
	}

	if _, err := format.ParseFormat(c.OutputFormat); err != nil {
		return errors.WrapInvalid(errors.ErrInvalidOutputFormat, "Config", "Validate",
			fmt.Sprintf("client.output_format %q is not supported", c.OutputFormat))
	}

	if c.Timeout < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"client.timeout must not be negative")
	}

	if c.MaxResponseBytes < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"client.max_response_bytes must not be negative")
	}

	return nil
}

// Validate checks the NATS section.
func (c *NATSConfig) Validate() error {
	if c.URL == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
			"nats.url is required")
	}

	if c.SubmitSubject == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
			"nats.submit_subject is required")
	}

	if c.AnnotatedSubject == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
			"nats.annotated_subject is required")
	}

	if c.SubmitSubject == c.AnnotatedSubject {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"nats.submit_subject and nats.annotated_subject must differ")
	}

	if c.ReconnectWait < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"nats.reconnect_wait must not be negative")
	}

	return nil
}

// Validate checks the annotator service section.
func (c *ServiceConfig) Validate() error {
	if c.Workers < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("service.workers must be at least 1, got %d", c.Workers))
	}

	if c.QueueSize < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("service.queue_size must be at least 1, got %d", c.QueueSize))
	}

	if c.RateLimit < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"service.rate_limit must not be negative")
	}

	if c.RateLimit > 0 && c.RateBurst < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"service.rate_burst must be at least 1 when rate limiting is enabled")
	}

	if c.RetryAttempts < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"service.retry_attempts must not be negative")
	}

	if c.RetryInitialDelay < 0 || c.RetryMaxDelay < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"service retry delays must not be negative")
	}

	if c.StopTimeout < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"service.stop_timeout must not be negative")
	}

	return nil
}

// Validate checks the metrics section.
func (c *MetricsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Port < 1 || c.Port > 65535 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("metrics.port must be between 1 and 65535, got %d", c.Port))
	}

	return nil
}

// Validate checks the logging section.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Level))
	}

	switch c.Format {
	case "", "text", "json":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("log.format %q is not one of text, json", c.Format))
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	// Use JSON marshaling/unmarshaling for deep copy
	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}

	return &clone
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	// Use secure file writing with validation
	return safeWriteFile(path, data)
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// parseDurationField accepts the two shapes a duration takes in config
// JSON: a Go duration string ("5s") or a number of nanoseconds (which
// is how time.Duration marshals).
func parseDurationField(v any, field string) (time.Duration, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", field, err)
		}
		return d, nil
	case float64:
		return time.Duration(val), nil
	default:
		return 0, fmt.Errorf("%s: cannot parse %T as duration", field, v)
	}
}

// UnmarshalJSON implements custom JSON unmarshaling so duration fields
// accept human-readable strings.
func (c *ClientConfig) UnmarshalJSON(data []byte) error {
	type Alias ClientConfig
	aux := &struct {
		Timeout any `json:"timeout"`
		*Alias
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	timeout, err := parseDurationField(aux.Timeout, "client.timeout")
	if err != nil {
		return err
	}
	c.Timeout = timeout

	return nil
}

// UnmarshalJSON implements custom JSON unmarshaling so duration fields
// accept human-readable strings.
func (c *NATSConfig) UnmarshalJSON(data []byte) error {
	type Alias NATSConfig
	aux := &struct {
		ReconnectWait any `json:"reconnect_wait"`
		*Alias
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	wait, err := parseDurationField(aux.ReconnectWait, "nats.reconnect_wait")
	if err != nil {
		return err
	}
	c.ReconnectWait = wait

	return nil
}

// UnmarshalJSON implements custom JSON unmarshaling so duration fields
// accept human-readable strings.
func (c *ServiceConfig) UnmarshalJSON(data []byte) error {
	type Alias ServiceConfig
	aux := &struct {
		RetryInitialDelay any `json:"retry_initial_delay"`
		RetryMaxDelay     any `json:"retry_max_delay"`
		StopTimeout       any `json:"stop_timeout"`
		*Alias
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	initial, err := parseDurationField(aux.RetryInitialDelay, "service.retry_initial_delay")
	if err != nil {
		return err
	}
	c.RetryInitialDelay = initial

	maxDelay, err := parseDurationField(aux.RetryMaxDelay, "service.retry_max_delay")
	if err != nil {
		return err
	}
	c.RetryMaxDelay = maxDelay

	stop, err := parseDurationField(aux.StopTimeout, "service.stop_timeout")
	if err != nil {
		return err
	}
	c.StopTimeout = stop

	return nil
}
