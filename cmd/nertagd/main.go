// Command nertagd bridges NATS text submissions to a remote named
// entity tagger.
//
// The daemon subscribes to the configured submit subject, tags each
// accepted submission against a Stanford NER style server, and
// publishes exactly one annotation per submission. Prometheus metrics
// and a /healthz endpoint expose its operational state.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/nertag/client"
	"github.com/c360/nertag/config"
	"github.com/c360/nertag/format"
	"github.com/c360/nertag/metric"
	"github.com/c360/nertag/natsclient"
	"github.com/c360/nertag/service"
)

const appName = "nertagd"

// Version information, overridable at build time with -ldflags
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
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
		slog.Error("daemon failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s (built %s)\n", appName, Version, BuildTime)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	cfg, err := config.NewLoader().LoadFile(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flags override the config file's log section when set
	level, logFormat := cfg.Log.Level, cfg.Log.Format
	if cliCfg.LogLevel != "" {
		level = cliCfg.LogLevel
	}
	if cliCfg.LogFormat != "" {
		logFormat = cliCfg.LogFormat
	}
	logger := setupLogger(level, logFormat)
	slog.SetDefault(logger)

	if cliCfg.Validate {
		fmt.Println("configuration valid")
		return nil
	}

	logger.Info("starting daemon",
		"config", cliCfg.ConfigPath,
		"transport", cfg.Client.Transport,
		"tagger", fmt.Sprintf("%s:%d", cfg.Client.Host, cfg.Client.Port),
		"submit_subject", cfg.NATS.SubmitSubject,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := metric.NewMetricsRegistry()
	if cfg.Metrics.Enabled {
		metricsServer := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() { _ = metricsServer.Stop() }()
		logger.Info("metrics server listening",
			"address", metricsServer.Address(), "path", cfg.Metrics.Path)
	}

	tagger, err := buildTagger(cfg, logger)
	if err != nil {
		return fmt.Errorf("build tagging client: %w", err)
	}

	nc, err := connectNATS(ctx, cfg, registry, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = nc.Close(closeCtx)
	}()
	logger.Info("connected to NATS", "url", cfg.NATS.URL)

	annotator, err := service.NewAnnotator(cfg, tagger, nc,
		service.WithLogger(logger),
		service.WithMetrics(registry),
	)
	if err != nil {
		return fmt.Errorf("create annotator: %w", err)
	}

	var hs *healthServer
	if cliCfg.HealthPort > 0 {
		hs = newHealthServer(cliCfg.HealthPort, annotator, nc)
		hs.start()
		logger.Info("health endpoint listening", "port", cliCfg.HealthPort)
	}

	if err := annotator.Start(ctx); err != nil {
		return fmt.Errorf("start annotator: %w", err)
	}
	logger.Info("annotator running",
		"workers", cfg.Service.Workers,
		"queue_group", cfg.NATS.QueueGroup,
	)

	<-ctx.Done()
	logger.Info("shutdown signal received", "timeout", cliCfg.ShutdownTimeout)

	if hs != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = hs.stop(shutdownCtx)
		cancel()
	}

	if err := annotator.Stop(cliCfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("stop annotator: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// buildTagger assembles the tagging client from the client config
// section. HTTP-only options apply only on that transport; the socket
// transport takes the response cap instead.
func buildTagger(cfg *config.Config, logger *slog.Logger) (*client.Client, error) {
	f, err := format.ParseFormat(cfg.Client.OutputFormat)
	if err != nil {
		return nil, err
	}

	opts := []client.Option{
		client.WithFormat(f),
		client.WithTimeout(cfg.Client.Timeout),
		client.WithLogger(logger),
	}

	if cfg.Client.Transport == config.TransportHTTP {
		opts = append(opts, client.WithPreserveSpacing(cfg.Client.PreserveSpacing))
		if cfg.Client.Path != "" {
			opts = append(opts, client.WithPath(cfg.Client.Path))
		}
		if cfg.Client.Classifier != "" {
			opts = append(opts, client.WithClassifier(cfg.Client.Classifier))
		}
		return client.NewHTTP(cfg.Client.Host, cfg.Client.Port, opts...)
	}

	if cfg.Client.MaxResponseBytes > 0 {
		opts = append(opts, client.WithMaxResponse(cfg.Client.MaxResponseBytes))
	}
	return client.NewSocket(cfg.Client.Host, cfg.Client.Port, opts...)
}

// connectNATS dials the broker and waits for the first connection so
// startup fails fast when the broker is unreachable.
func connectNATS(ctx context.Context, cfg *config.Config, registry *metric.MetricsRegistry, logger *slog.Logger) (*natsclient.Client, error) {
	opts := []natsclient.ClientOption{
		natsclient.WithMetrics(registry),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithLogger(&natsLogger{logger: logger.With("component", "nats")}),
	}
	if cfg.NATS.Name != "" {
		opts = append(opts, natsclient.WithName(cfg.NATS.Name))
	}
	if cfg.NATS.ReconnectWait > 0 {
		opts = append(opts, natsclient.WithReconnectWait(cfg.NATS.ReconnectWait))
	}
	if cfg.NATS.Token != "" {
		opts = append(opts, natsclient.WithToken(cfg.NATS.Token))
	}
	if cfg.NATS.CredentialsFile != "" {
		opts = append(opts, natsclient.WithCredentialsFile(cfg.NATS.CredentialsFile))
	}

	nc, err := natsclient.NewClient(cfg.NATS.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := nc.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := nc.WaitForConnection(waitCtx); err != nil {
		return nil, fmt.Errorf("wait for NATS connection: %w", err)
	}

	return nc, nil
}
