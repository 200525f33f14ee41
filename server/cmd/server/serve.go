package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/netpulse/netpulse/internal/config"
	"github.com/netpulse/netpulse/internal/cycle"
	"github.com/netpulse/netpulse/internal/ingest"
	"github.com/netpulse/netpulse/internal/metrics"
	"github.com/netpulse/netpulse/internal/optimizer"
	"github.com/netpulse/netpulse/internal/remediation"
	"github.com/netpulse/netpulse/server/internal/api"
	"github.com/netpulse/netpulse/server/internal/auth"
	"github.com/netpulse/netpulse/server/internal/store"
	"github.com/netpulse/netpulse/server/internal/ws"
)

// shutdownTimeout bounds how long in-flight requests get after a signal.
const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API, metrics and report stream",
	Long: `Start the HTTP server.

Endpoints:
  POST /api/v1/analyze          run one cycle (ingest, classify, remediate)
  GET  /api/v1/network-status   latest applied and failed optimizations
  GET  /api/v1/report           latest cycle report
  GET  /api/v1/reports[/{id}]   recent cycle reports
  GET  /api/v1/health           liveness
  GET  /metrics                 Prometheus metrics
  GET  /ws/stream               WebSocket push of each new report

Examples:
  netpulse-server serve --config config.yaml
  netpulse-server serve --config config.yaml --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return serve(ctx, configPath)
	},
}

func serve(ctx context.Context, path string) error {
	slog.Info("netpulse-server starting", "config", path)

	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		return err
	}
	slog.Info("config loaded",
		"source_type", cfg.Source.Type,
		"platform", cfg.Remediation.Platform,
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"report_ttl", cfg.Server.ReportTTL,
	)

	src, err := ingest.New(cfg.Source)
	if err != nil {
		return err
	}
	platform, err := remediation.Detect(runtime.GOOS, cfg.Remediation)
	if err != nil {
		return err
	}
	slog.Info("remediation platform selected", "platform", platform.Name())

	engine := optimizer.NewEngine(
		remediation.NewCommandExecutor(cfg.Remediation.CommandTimeout),
		platform,
		remediation.GopsutilLister{},
	)
	rec := metrics.NewRecorder()
	runner := cycle.NewRunner(src, engine, rec)

	st := store.New(cfg.Server.ReportTTL)
	hub := ws.New(st, cfg.Server.BroadcastInterval)

	mux := http.NewServeMux()
	mux.Handle("/api/", api.New(runner, engine, st, api.Options{
		AnalyzeRate:  cfg.Server.AnalyzeRate,
		AnalyzeBurst: cfg.Server.AnalyzeBurst,
	}))
	mux.Handle("/metrics", rec.Handler())
	mux.Handle("/ws/stream", hub)

	requireKey := auth.APIKey(
		cfg.Server.Auth.Mode,
		cfg.Server.Auth.Header,
		cfg.Server.Auth.Key(),
		"/api/v1/health", "/metrics",
	)
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           requireKey(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("netpulse-server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		st.Run(gctx)
		return nil
	})
	g.Go(func() error {
		// Only the source is hot-swapped; other sections need a restart.
		err := config.WatchSource(gctx, path, func(src config.Source) {
			next, err := ingest.New(src)
			if err != nil {
				slog.Error("config reload: source rejected, keeping previous", "err", err)
				return
			}
			runner.SetSource(next)
			slog.Info("config hot-reloaded", "source_type", src.Type)
		})
		if err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
		return nil
	})

	return g.Wait()
}
