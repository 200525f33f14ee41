package optimizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/netpulse/netpulse/internal/compute"
	"github.com/netpulse/netpulse/internal/remediation"
	"github.com/netpulse/netpulse/pkg/types"
)

// HogReadBytes is the cumulative disk-read threshold above which a process is
// deprioritized by limit_bandwidth_hogs.
const HogReadBytes uint64 = 100_000_000

// ActionResult is the outcome of one attempted action.
type ActionResult struct {
	Action   remediation.Action `json:"action"`
	OK       bool               `json:"ok"`
	Message  string             `json:"message"`
	Duration time.Duration      `json:"duration_ns"`
	Err      error              `json:"-"`
}

// Outcome summarizes one ApplyOptimizations call. Applied and Failed are
// copies owned by the caller.
type Outcome struct {
	Tier    types.HealthTier
	Applied []string
	Failed  []string
	Results []ActionResult
}

// Engine applies tier-specific remediation and remembers the latest cycle.
//
// All exported methods are safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	exec     remediation.Executor
	platform remediation.Platform
	procs    remediation.ProcessLister

	applied     []string
	failed      []string
	lastApplied time.Time

	now func() time.Time
}

// NewEngine returns an Engine that runs commands through exec using the
// command lines of platform. procs is consulted only by limit_bandwidth_hogs.
func NewEngine(exec remediation.Executor, platform remediation.Platform, procs remediation.ProcessLister) *Engine {
	return &Engine{
		exec:     exec,
		platform: platform,
		procs:    procs,
		applied:  []string{},
		failed:   []string{},
		now:      time.Now,
	}
}

// ApplyOptimizations clears the previous cycle's lists, attempts every action
// health calls for and returns what happened. It never returns an error:
// action failures are reported in Outcome.Failed.
func (e *Engine) ApplyOptimizations(ctx context.Context, health types.NetworkHealth) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.applied = []string{}
	e.failed = []string{}

	out := Outcome{Tier: health.Tier}
	for _, action := range Plan(health) {
		out.Results = append(out.Results, e.attempt(ctx, action))
	}
	e.lastApplied = e.now()

	out.Applied = append([]string{}, e.applied...)
	out.Failed = append([]string{}, e.failed...)

	slog.Info("optimizer: cycle complete",
		"tier", health.Tier.String(),
		"applied", len(out.Applied),
		"failed", len(out.Failed))
	return out
}

// Plan returns the actions health calls for, in execution order.
func Plan(health types.NetworkHealth) []remediation.Action {
	a := health.Averages
	var plan []remediation.Action
	switch health.Tier {
	case types.TierCritical:
		if compute.HighPacketLoss(a) {
			plan = append(plan, remediation.SwitchBackupConnection)
		}
		if compute.HighLatency(a) {
			plan = append(plan, remediation.EnableAggressiveQoS)
		}
		plan = append(plan, remediation.RestartNetworkServices)
	case types.TierPoor:
		if compute.WeakSignal(a) {
			plan = append(plan, remediation.AdjustWirelessPower)
		}
		if compute.SlowDownload(a) {
			plan = append(plan, remediation.LimitBandwidthHogs)
		}
	case types.TierFair:
		if compute.HighJitter(a) {
			plan = append(plan, remediation.EnableJitterBuffering)
		}
	case types.TierGood, types.TierExcellent:
		plan = append(plan, remediation.CleanDNSCache)
	}
	return plan
}

// attempt runs one action and records it in exactly one of applied or failed.
// Callers must hold e.mu.
func (e *Engine) attempt(ctx context.Context, action remediation.Action) ActionResult {
	start := e.now()
	var err error
	if action == remediation.LimitBandwidthHogs {
		err = e.limitBandwidthHogs(ctx)
	} else {
		err = e.run(ctx, action)
	}
	res := ActionResult{Action: action, Duration: e.now().Sub(start), Err: err}

	if err != nil {
		res.Message = fmt.Sprintf("%s failed: %v", action.Title(), err)
		e.failed = append(e.failed, res.Message)
		slog.Warn("optimizer: action failed", "action", action.String(), "err", err)
		return res
	}
	res.OK = true
	res.Message = action.Description()
	e.applied = append(e.applied, res.Message)
	slog.Info("optimizer: action applied", "action", action.String())
	return res
}

func (e *Engine) run(ctx context.Context, action remediation.Action) error {
	cmd, ok := e.platform.CommandFor(action)
	if !ok {
		return nil
	}
	return e.exec.Execute(ctx, cmd.Name, cmd.Args...)
}

// limitBandwidthHogs deprioritizes every process that has read more than
// HogReadBytes from disk. It keeps going past individual failures and returns
// all of them joined.
func (e *Engine) limitBandwidthHogs(ctx context.Context) error {
	procs, err := e.procs.Processes(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, p := range procs {
		if p.ReadBytes <= HogReadBytes {
			continue
		}
		cmd, ok := e.platform.DeprioritizeCommand(p.PID)
		if !ok {
			continue
		}
		if err := e.exec.Execute(ctx, cmd.Name, cmd.Args...); err != nil {
			errs = append(errs, fmt.Errorf("pid %d (%s): %w", p.PID, p.Name, err))
			continue
		}
		slog.Debug("optimizer: deprioritized process", "pid", p.PID, "name", p.Name, "read_bytes", p.ReadBytes)
	}
	return errors.Join(errs...)
}

// CurrentOptimizations returns a copy of the actions applied in the latest cycle.
func (e *Engine) CurrentOptimizations() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string{}, e.applied...)
}

// FailedOptimizations returns a copy of the failure messages from the latest cycle.
func (e *Engine) FailedOptimizations() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string{}, e.failed...)
}

// LastApplied reports when the latest cycle finished. The zero time means no
// cycle has run yet.
func (e *Engine) LastApplied() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastApplied
}
