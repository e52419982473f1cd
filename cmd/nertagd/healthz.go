package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/c360/nertag/health"
	"github.com/c360/nertag/natsclient"
	"github.com/c360/nertag/service"
)

// healthServer exposes /healthz. Component statuses refresh from the
// annotator and the NATS connection on every request, so the endpoint
// never serves stale state.
type healthServer struct {
	monitor   *health.Monitor
	annotator *service.Annotator
	nats      *natsclient.Client
	srv       *http.Server
}

func newHealthServer(port int, annotator *service.Annotator, nats *natsclient.Client) *healthServer {
	hs := &healthServer{
		monitor:   health.NewMonitor(),
		annotator: annotator,
		nats:      nats,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", hs.handleHealthz)

	hs.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return hs
}

func (hs *healthServer) start() {
	go func() {
		if err := hs.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("health server failed", "error", err)
		}
	}()
}

func (hs *healthServer) stop(ctx context.Context) error {
	return hs.srv.Shutdown(ctx)
}

func (hs *healthServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	hs.monitor.Update("annotator", hs.annotator.Health())
	if hs.nats.IsHealthy() {
		hs.monitor.UpdateHealthy("nats", "Connected")
	} else {
		hs.monitor.UpdateDegraded("nats", "Connection unhealthy")
	}

	systemHealth := hs.monitor.AggregateHealth(appName)

	statusCode := http.StatusOK
	if systemHealth.IsUnhealthy() {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(systemHealth)
}
