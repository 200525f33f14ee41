package main

import (
	"context"
	"encoding/json"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/netpulse/netpulse/internal/compute"
	"github.com/netpulse/netpulse/internal/config"
	"github.com/netpulse/netpulse/internal/cycle"
	"github.com/netpulse/netpulse/internal/ingest"
	"github.com/netpulse/netpulse/internal/optimizer"
	"github.com/netpulse/netpulse/internal/remediation"
	"github.com/netpulse/netpulse/pkg/types"
)

var applyFixes bool

// analysis is the JSON printed by the analyze command.
type analysis struct {
	CycleID             string               `json:"cycle_id,omitempty"`
	Metrics             types.Averages       `json:"metrics"`
	HealthStatus        types.HealthTier     `json:"health_status"`
	Diagnostics         []compute.Diagnostic `json:"diagnostics"`
	Planned             []string             `json:"planned_optimizations,omitempty"`
	Optimizations       []string             `json:"optimizations"`
	FailedOptimizations []string             `json:"failed_optimizations"`
	RecordCount         int                  `json:"record_count"`
	Timestamp           string               `json:"timestamp"`
	TimeRangeSeconds    int64                `json:"time_range_seconds"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one analysis cycle and print the result as JSON",
	Long: `Load the measurement window, classify it and print the result.

Without --apply only the planned optimizations are listed. With --apply the
optimizations are executed on this host and their outcome is reported.

Examples:
  netpulse-agent analyze --config config.yaml
  netpulse-agent analyze --config config.yaml --apply`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(os.Stderr); err != nil {
			return err
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		src, err := ingest.New(cfg.Source)
		if err != nil {
			return err
		}

		var out *analysis
		if applyFixes {
			out, err = analyzeAndApply(cmd.Context(), cfg, src)
		} else {
			out, err = analyzeOnly(cmd.Context(), src)
		}
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&applyFixes, "apply", false, "execute the optimizations on this host")
}

func analyzeOnly(ctx context.Context, src ingest.Source) (*analysis, error) {
	runner := cycle.NewRunner(src, nil, nil)
	snap, err := runner.Averages(ctx)
	if err != nil {
		return nil, err
	}
	var planned []string
	for _, a := range optimizer.Plan(snap.Health) {
		planned = append(planned, a.Title())
	}
	return &analysis{
		Metrics:             snap.Health.Averages,
		HealthStatus:        snap.Health.Tier,
		Diagnostics:         orEmpty(compute.Diagnose(snap.Health.Averages)),
		Planned:             planned,
		Optimizations:       []string{},
		FailedOptimizations: []string{},
		RecordCount:         snap.RecordCount,
		Timestamp:           snap.Timestamp.UTC().Format(time.RFC3339),
		TimeRangeSeconds:    windowSeconds(runner.WindowDays()),
	}, nil
}

func analyzeAndApply(ctx context.Context, cfg *config.Config, src ingest.Source) (*analysis, error) {
	platform, err := remediation.Detect(runtime.GOOS, cfg.Remediation)
	if err != nil {
		return nil, err
	}
	engine := optimizer.NewEngine(
		remediation.NewCommandExecutor(cfg.Remediation.CommandTimeout),
		platform,
		remediation.GopsutilLister{},
	)
	rep, err := cycle.NewRunner(src, engine, nil).Run(ctx)
	if err != nil {
		return nil, err
	}
	return fromReport(rep), nil
}

// fromReport shapes a completed cycle like the server's analyze response:
// list fields encode as [] rather than null.
func fromReport(rep *cycle.Report) *analysis {
	return &analysis{
		CycleID:             rep.ID,
		Metrics:             rep.Health.Averages,
		HealthStatus:        rep.Health.Tier,
		Diagnostics:         orEmpty(rep.Diagnostics),
		Optimizations:       orEmpty(rep.Applied),
		FailedOptimizations: orEmpty(rep.Failed),
		RecordCount:         rep.RecordCount,
		Timestamp:           rep.Timestamp.UTC().Format(time.RFC3339),
		TimeRangeSeconds:    windowSeconds(rep.WindowDays),
	}
}

func windowSeconds(days int) int64 { return int64(days) * 24 * 60 * 60 }

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
