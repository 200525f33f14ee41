package main

import (
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/netpulse/netpulse/agent/internal/dashboard"
	"github.com/netpulse/netpulse/internal/config"
	"github.com/netpulse/netpulse/internal/cycle"
	"github.com/netpulse/netpulse/internal/ingest"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show a live table of network averages and health",
	Long: `Render the measurement window's averages and health tier, refreshing
every agent.refresh_interval. Press the configured quit key (default q) or
Ctrl-C to exit. No remediation is performed.

Logs go to agent.log_file so they do not corrupt the table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		logOut := io.Discard
		if cfg.Agent.LogFile != "" {
			f, err := os.OpenFile(cfg.Agent.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return err
			}
			defer f.Close()
			logOut = f
		}
		if err := setupLogging(logOut); err != nil {
			return err
		}

		src, err := ingest.New(cfg.Source)
		if err != nil {
			return err
		}
		runner := cycle.NewRunner(src, nil, nil)

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		dash := dashboard.New(runner, dashboard.Options{
			RefreshInterval: cfg.Agent.RefreshInterval,
			QuitKey:         cfg.Agent.QuitKey[0],
			WindowDays:      runner.WindowDays(),
			In:              os.Stdin,
			Out:             os.Stdout,
		})

		go func() {
			err := config.WatchSource(ctx, configPath, func(src config.Source) {
				next, err := ingest.New(src)
				if err != nil {
					slog.Error("config reload: source rejected, keeping previous", "err", err)
					return
				}
				dash.SetLoader(cycle.NewRunner(next, nil, nil))
				slog.Info("config hot-reloaded", "source_type", src.Type)
			})
			if err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()

		return dash.Run(ctx)
	},
}
