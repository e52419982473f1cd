// Package config provides configuration management for the tagging daemon.
//
// This package handles loading and validation of daemon configuration from
// JSON files and environment variables, with built-in defaults matching the
// reference tagging server's out-of-the-box settings.
//
// # Core Components
//
// Config: Main configuration structure containing tagging client settings,
// NATS connection details, annotator service tuning, and observability
// options.
//
// Loader: Loads configuration with layer merging (defaults + files +
// environment overrides) and schema validation for early, field-level
// error reporting.
//
// # Basic Usage
//
// Loading configuration from a file:
//
//	loader := config.NewLoader()
//	cfg, err := loader.LoadFile("nertagd.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// A missing file is not an error: the daemon runs on defaults plus any
// environment overrides. Multiple layers merge with last-wins semantics:
//
//	loader := config.NewLoader()
//	loader.AddLayer("config/base.json")
//	loader.AddLayer("config/production.json") // Overrides base
//	cfg, err := loader.Load()
//
// # Schema Validation
//
// Every config file is checked against an embedded JSON schema before
// decoding. A misspelled key or a string where an integer belongs fails
// with an error naming the field path:
//
//	config schema: client.port: Invalid type. Expected: integer, given: string
//
// After decoding and environment overrides, Config.Validate applies the
// semantic checks (port ranges, known formats, subject wiring). Every
// failure is invalid-classified and names the offending field.
//
// # Environment Variable Overrides
//
// Configuration values can be overridden using NERTAG_-prefixed
// environment variables:
//
//	# Point the client at a different tagging server
//	export NERTAG_CLIENT_HOST="tagger.internal"
//	export NERTAG_CLIENT_PORT="9021"
//
//	# Override the NATS connection
//	export NERTAG_NATS_URL="nats://broker:4222"
//
//	# Turn up logging
//	export NERTAG_LOG_LEVEL="debug"
//
// Overrides apply after file layers, so they win in containerized
// deployments without touching the config file.
//
// # Duration Fields
//
// Duration fields accept Go duration strings in JSON:
//
//	{
//	  "client": {"timeout": "10s"},
//	  "service": {"retry_initial_delay": "250ms"}
//	}
//
// # Security
//
// The package includes security validation:
//   - File size limits (10MB max) to prevent memory exhaustion
//   - JSON depth validation (100 levels max) to prevent DoS attacks
//   - Path validation to prevent directory traversal
//   - Regular file checks (no symlinks or device files)
//   - Environment override values are length-checked and screened
//
// # Configuration Structure
//
// The main Config struct contains:
//
//	type Config struct {
//	    Client  ClientConfig  // How to reach the tagging server
//	    NATS    NATSConfig    // Message bus connection and subjects
//	    Service ServiceConfig // Annotator workers, rate limit, retries
//	    Metrics MetricsConfig // Prometheus scrape endpoint
//	    Log     LogConfig     // Structured logging
//	}
package config
