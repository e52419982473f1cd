package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/c360/nertag/format"
)

func defaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		Transport:   "socket",
		Host:        "localhost",
		Port:        1234,
		Format:      "inlineXML",
		Timeout:     30 * time.Second,
		Concurrency: 4,
		LogLevel:    "warn",
		LogFormat:   "text",
	}
}

func TestValidateFlags(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CLIConfig)
		wantErr string
	}{
		{name: "defaults valid", mutate: func(*CLIConfig) {}},
		{name: "bad transport", mutate: func(c *CLIConfig) { c.Transport = "grpc" }, wantErr: "transport"},
		{name: "socket rejects path", mutate: func(c *CLIConfig) { c.Path = "/ner" }, wantErr: "-transport=http"},
		{name: "socket rejects classifier", mutate: func(c *CLIConfig) { c.Classifier = "english.all.3class" }, wantErr: "-transport=http"},
		{name: "http allows path", mutate: func(c *CLIConfig) { c.Transport = "http"; c.Path = "/ner" }},
		{name: "bad port", mutate: func(c *CLIConfig) { c.Port = 70000 }, wantErr: "port"},
		{name: "bad format", mutate: func(c *CLIConfig) { c.Format = "tsv" }, wantErr: "format"},
		{name: "zero timeout", mutate: func(c *CLIConfig) { c.Timeout = 0 }, wantErr: "timeout"},
		{name: "negative retries", mutate: func(c *CLIConfig) { c.Retries = -1 }, wantErr: "retries"},
		{name: "zero concurrency", mutate: func(c *CLIConfig) { c.Concurrency = 0 }, wantErr: "concurrency"},
		{name: "raw and json exclusive", mutate: func(c *CLIConfig) { c.Raw = true; c.JSON = true }, wantErr: "mutually exclusive"},
		{name: "json and yaml exclusive", mutate: func(c *CLIConfig) { c.JSON = true; c.YAML = true }, wantErr: "mutually exclusive"},
		{name: "single output mode ok", mutate: func(c *CLIConfig) { c.YAML = true }},
		{name: "bad log level", mutate: func(c *CLIConfig) { c.LogLevel = "verbose" }, wantErr: "log level"},
		{name: "help skips validation", mutate: func(c *CLIConfig) { c.ShowHelp = true; c.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultCLIConfig()
			tt.mutate(cfg)

			err := validateFlags(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// Default rendering sorts entity types so batch output is stable
func TestRenderEntities_TabSeparated(t *testing.T) {
	out, err := renderEntities(defaultCLIConfig(), format.EntityMap{
		"PERSON":       {"Ada Lovelace", "Alan Turing"},
		"ORGANIZATION": {"Royal Society"},
	})
	require.NoError(t, err)

	assert.Equal(t, "ORGANIZATION\tRoyal Society\nPERSON\tAda Lovelace\nPERSON\tAlan Turing\n", out)
}

func TestRenderEntities_JSON(t *testing.T) {
	cfg := defaultCLIConfig()
	cfg.JSON = true

	out, err := renderEntities(cfg, format.EntityMap{"PERSON": {"Grace Hopper"}})
	require.NoError(t, err)

	var decoded format.EntityMap
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, format.EntityMap{"PERSON": {"Grace Hopper"}}, decoded)
}

func TestRenderEntities_YAML(t *testing.T) {
	cfg := defaultCLIConfig()
	cfg.YAML = true

	out, err := renderEntities(cfg, format.EntityMap{"LOCATION": {"Paris"}})
	require.NoError(t, err)

	var decoded format.EntityMap
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, format.EntityMap{"LOCATION": {"Paris"}}, decoded)
}

func TestRenderEntities_Empty(t *testing.T) {
	out, err := renderEntities(defaultCLIConfig(), format.EntityMap{})
	require.NoError(t, err)
	assert.Empty(t, out)
}
