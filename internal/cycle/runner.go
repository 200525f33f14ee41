package cycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/netpulse/netpulse/internal/compute"
	"github.com/netpulse/netpulse/internal/ingest"
	"github.com/netpulse/netpulse/internal/metrics"
	"github.com/netpulse/netpulse/internal/optimizer"
	"github.com/netpulse/netpulse/pkg/types"
)

// Report is the result of one full evaluation cycle.
type Report struct {
	ID          string
	Health      types.NetworkHealth
	Diagnostics []compute.Diagnostic
	Applied     []string
	Failed      []string
	Results     []optimizer.ActionResult
	RecordCount int
	WindowDays  int
	Timestamp   time.Time
}

// Snapshot is the read-only half of a cycle: window averages and their tier.
type Snapshot struct {
	Health      types.NetworkHealth
	RecordCount int
	Timestamp   time.Time
}

// Runner wires a Source to the compute and optimizer stages.
//
// All exported methods are safe for concurrent use.
type Runner struct {
	mu     sync.RWMutex
	source ingest.Source

	engine     *optimizer.Engine
	metrics    *metrics.Recorder
	windowDays int
	now        func() time.Time
}

// NewRunner returns a Runner. engine may be nil when only Averages is used;
// rec may be nil to skip metrics.
func NewRunner(src ingest.Source, engine *optimizer.Engine, rec *metrics.Recorder) *Runner {
	return &Runner{
		source:     src,
		engine:     engine,
		metrics:    rec,
		windowDays: compute.DefaultWindowDays,
		now:        time.Now,
	}
}

// SetSource replaces the source used by subsequent cycles.
func (r *Runner) SetSource(src ingest.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.source = src
}

// WindowDays is the length of the measurement window in days.
func (r *Runner) WindowDays() int { return r.windowDays }

// Averages loads the window and classifies it without remediating.
func (r *Runner) Averages(ctx context.Context) (*Snapshot, error) {
	now := r.now()
	records, err := r.load(ctx, now)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Health:      compute.Assess(compute.ComputeAverages(records)),
		RecordCount: len(records),
		Timestamp:   now,
	}, nil
}

// Run executes a full cycle. Only ingestion errors are returned; remediation
// failures are reported in Report.Failed.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if r.engine == nil {
		return nil, fmt.Errorf("cycle: runner has no optimization engine")
	}
	start := r.now()
	id := uuid.NewString()

	records, err := r.load(ctx, start)
	if err != nil {
		r.observeCycle(start, err)
		slog.Error("cycle: ingestion failed", "cycle_id", id, "err", err)
		return nil, err
	}

	health := compute.Assess(compute.ComputeAverages(records))
	outcome := r.engine.ApplyOptimizations(ctx, health)

	rep := &Report{
		ID:          id,
		Health:      health,
		Diagnostics: compute.Diagnose(health.Averages),
		Applied:     outcome.Applied,
		Failed:      outcome.Failed,
		Results:     outcome.Results,
		RecordCount: len(records),
		WindowDays:  r.windowDays,
		Timestamp:   start,
	}

	r.observeCycle(start, nil)
	if r.metrics != nil {
		r.metrics.ObserveHealth(health, len(records))
		r.metrics.ObserveActions(outcome.Results)
	}
	slog.Info("cycle: complete",
		"cycle_id", id,
		"records", len(records),
		"tier", health.Tier.String(),
		"applied", len(rep.Applied),
		"failed", len(rep.Failed))
	return rep, nil
}

// load reads the source and applies the measurement window.
func (r *Runner) load(ctx context.Context, now time.Time) ([]types.MeasurementRecord, error) {
	r.mu.RLock()
	src := r.source
	r.mu.RUnlock()

	all, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("cycle: load records: %w", err)
	}
	return compute.FilterLastNDays(all, r.windowDays, now), nil
}

func (r *Runner) observeCycle(start time.Time, err error) {
	if r.metrics != nil {
		r.metrics.ObserveCycle(r.now().Sub(start), err)
	}
}
