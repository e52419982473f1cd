package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/c360/nertag/format"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	Transport       string
	Host            string
	Port            int
	Path            string
	Classifier      string
	PreserveSpacing bool
	Format          string
	Timeout         time.Duration
	Raw             bool
	JSON            bool
	YAML            bool
	Retries         int
	Concurrency     int
	LogLevel        string
	LogFormat       string
	ShowVersion     bool
	ShowHelp        bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	// Define flags with environment variable fallback
	flag.StringVar(&cfg.Transport, "transport",
		getEnv("NERTAG_CLIENT_TRANSPORT", "socket"),
		"Transport: socket, http (env: NERTAG_CLIENT_TRANSPORT)")

	flag.StringVar(&cfg.Host, "host",
		getEnv("NERTAG_CLIENT_HOST", "localhost"),
		"Tagger host (env: NERTAG_CLIENT_HOST)")

	flag.IntVar(&cfg.Port, "port",
		getEnvInt("NERTAG_CLIENT_PORT", 1234),
		"Tagger port (env: NERTAG_CLIENT_PORT)")

	flag.StringVar(&cfg.Path, "path",
		getEnv("NERTAG_CLIENT_PATH", ""),
		"Tagger URL path, http only (env: NERTAG_CLIENT_PATH)")

	flag.StringVar(&cfg.Classifier, "classifier",
		getEnv("NERTAG_CLIENT_CLASSIFIER", ""),
		"Named classifier model to request, http only (env: NERTAG_CLIENT_CLASSIFIER)")

	flag.BoolVar(&cfg.PreserveSpacing, "preserve-spacing",
		getEnvBool("NERTAG_CLIENT_PRESERVE_SPACING", true),
		"Ask the server to keep input spacing in the tagged echo, http only (env: NERTAG_CLIENT_PRESERVE_SPACING)")

	flag.StringVar(&cfg.Format, "format",
		getEnv("NERTAG_CLIENT_FORMAT", "inlineXML"),
		"Tagger output format: slashTags, xml, inlineXML (env: NERTAG_CLIENT_FORMAT)")

	flag.DurationVar(&cfg.Timeout, "timeout",
		getEnvDuration("NERTAG_CLIENT_TIMEOUT", 30*time.Second),
		"Per-exchange timeout (env: NERTAG_CLIENT_TIMEOUT)")

	flag.BoolVar(&cfg.Raw, "raw", false, "Print the raw tagged text instead of extracted entities")
	flag.BoolVar(&cfg.JSON, "json", false, "Print extracted entities as JSON")
	flag.BoolVar(&cfg.YAML, "yaml", false, "Print extracted entities as YAML")

	flag.IntVar(&cfg.Retries, "retries",
		getEnvInt("NERTAG_RETRIES", 0),
		"Retries for transient failures (env: NERTAG_RETRIES)")

	flag.IntVar(&cfg.Concurrency, "concurrency",
		getEnvInt("NERTAG_CONCURRENCY", 4),
		"Files tagged concurrently in batch mode (env: NERTAG_CONCURRENCY)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("NERTAG_LOG_LEVEL", "warn"),
		"Log level: debug, info, warn, error (env: NERTAG_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("NERTAG_LOG_FORMAT", "text"),
		"Log format: text, json (env: NERTAG_LOG_FORMAT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")

	flag.Usage = func() {
		printDetailedHelp()
	}

	flag.Parse()

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	// Skip validation for special flags
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.Transport != "socket" && cfg.Transport != "http" {
		return fmt.Errorf("invalid transport: %s (want socket or http)", cfg.Transport)
	}

	if cfg.Transport == "socket" {
		if cfg.Path != "" {
			return fmt.Errorf("-path requires -transport=http")
		}
		if cfg.Classifier != "" {
			return fmt.Errorf("-classifier requires -transport=http")
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}

	if _, err := format.ParseFormat(cfg.Format); err != nil {
		return fmt.Errorf("invalid format: %s", cfg.Format)
	}

	if cfg.Timeout <= 0 {
		return fmt.Errorf("invalid timeout: %s", cfg.Timeout)
	}

	if cfg.Retries < 0 {
		return fmt.Errorf("invalid retries: %d", cfg.Retries)
	}

	if cfg.Concurrency < 1 {
		return fmt.Errorf("invalid concurrency: %d", cfg.Concurrency)
	}

	modes := 0
	for _, set := range []bool{cfg.Raw, cfg.JSON, cfg.YAML} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return fmt.Errorf("-raw, -json, and -yaml are mutually exclusive")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - named entity tagging client

Usage: %s [options] [file ...]

Tags the given files, or stdin when no files are named. By default the
extracted entities print one per line as TYPE<TAB>text.

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Tag stdin against a local socket tagger
  echo "Tim Cook visited Paris." | %s

  # Tag a file over HTTP and print raw tagged text
  %s --transport=http --port=8080 --raw article.txt

  # Tag many files four at a time, entities as JSON
  %s --json --concurrency=4 notes/*.txt

  # Retry transient failures twice
  %s --retries=2 article.txt

Version: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], Version)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Utility function to check if slice contains string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
