// Command nertag tags text against a remote named entity tagger.
//
// It reads stdin or the named files, sends each text to a Stanford NER
// style server over a raw socket or HTTP, and prints the result. The
// default output is one entity per line as TYPE<TAB>text; -raw, -json,
// and -yaml select other renderings.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/c360/nertag/client"
	"github.com/c360/nertag/errors"
	"github.com/c360/nertag/format"
	"github.com/c360/nertag/pkg/retry"
)

const (
	// Version information
	Version = "0.1.0"
	appName = "nertag"
)

func main() {
	// Panic recovery for unexpected failures
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("tagging failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := buildClient(cliCfg, logger)
	if err != nil {
		return err
	}

	paths := flag.Args()
	if len(paths) == 0 {
		return tagStdin(ctx, c, cliCfg)
	}
	return tagFiles(ctx, c, cliCfg, paths)
}

// buildClient assembles a tagging client from the parsed flags.
func buildClient(cfg *CLIConfig, logger *slog.Logger) (*client.Client, error) {
	f, err := format.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	opts := []client.Option{
		client.WithFormat(f),
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(logger),
	}

	if cfg.Transport == "http" {
		opts = append(opts, client.WithPreserveSpacing(cfg.PreserveSpacing))
		if cfg.Path != "" {
			opts = append(opts, client.WithPath(cfg.Path))
		}
		if cfg.Classifier != "" {
			opts = append(opts, client.WithClassifier(cfg.Classifier))
		}
		return client.NewHTTP(cfg.Host, cfg.Port, opts...)
	}
	return client.NewSocket(cfg.Host, cfg.Port, opts...)
}

func tagStdin(ctx context.Context, c *client.Client, cfg *CLIConfig) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	out, err := tagOne(ctx, c, cfg, string(data))
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// tagFiles tags every named file, a bounded number at a time. Output
// order follows input order regardless of completion order.
func tagFiles(ctx context.Context, c *client.Client, cfg *CLIConfig, paths []string) error {
	outputs := make([]string, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			out, err := tagOne(gctx, c, cfg, string(data))
			if err != nil {
				return fmt.Errorf("tag %s: %w", path, err)
			}
			outputs[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for i, path := range paths {
		if len(paths) > 1 {
			fmt.Printf("# %s\n", path)
		}
		fmt.Print(outputs[i])
	}
	return nil
}

// tagOne performs a single tagging exchange and renders the result.
// Transient failures retry up to the configured count; anything else
// fails on the first attempt.
func tagOne(ctx context.Context, c *client.Client, cfg *CLIConfig, text string) (string, error) {
	retryCfg := retry.Config{
		MaxAttempts:  cfg.Retries + 1,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     3 * time.Second,
		Multiplier:   2.0,
		AddJitter:    true,
	}

	if cfg.Raw {
		tagged, err := retry.DoWithResult(ctx, retryCfg, func() (string, error) {
			out, err := c.TagText(ctx, text)
			if err != nil && !errors.IsTransient(err) {
				return "", retry.NonRetryable(err)
			}
			return out, err
		})
		if err != nil {
			return "", err
		}
		if !strings.HasSuffix(tagged, "\n") {
			tagged += "\n"
		}
		return tagged, nil
	}

	entities, err := retry.DoWithResult(ctx, retryCfg, func() (format.EntityMap, error) {
		em, err := c.ExtractEntities(ctx, text)
		if err != nil && !errors.IsTransient(err) {
			return nil, retry.NonRetryable(err)
		}
		return em, err
	})
	if err != nil {
		return "", err
	}
	return renderEntities(cfg, entities)
}

// renderEntities formats an entity map per the output flags. The
// default TYPE<TAB>text listing sorts types so output is stable.
func renderEntities(cfg *CLIConfig, entities format.EntityMap) (string, error) {
	switch {
	case cfg.JSON:
		data, err := json.MarshalIndent(entities, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode entities: %w", err)
		}
		return string(data) + "\n", nil
	case cfg.YAML:
		data, err := yaml.Marshal(entities)
		if err != nil {
			return "", fmt.Errorf("encode entities: %w", err)
		}
		return string(data), nil
	default:
		types := make([]string, 0, len(entities))
		for t := range entities {
			types = append(types, t)
		}
		sort.Strings(types)

		var sb strings.Builder
		for _, t := range types {
			for _, text := range entities[t] {
				_, _ = fmt.Fprintf(&sb, "%s\t%s\n", t, text)
			}
		}
		return sb.String(), nil
	}
}
