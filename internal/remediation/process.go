package remediation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessIO is a process and its cumulative disk-read byte count.
type ProcessIO struct {
	PID       int32
	Name      string
	ReadBytes uint64
}

// ProcessLister enumerates running processes with their I/O counters.
type ProcessLister interface {
	Processes(ctx context.Context) ([]ProcessIO, error)
}

// GopsutilLister reads process I/O counters through gopsutil.
type GopsutilLister struct{}

// Processes returns every process whose counters are readable. Processes
// that exit mid-scan or deny access to their counters are skipped.
func (GopsutilLister) Processes(ctx context.Context) ([]ProcessIO, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("remediation: list processes: %w", err)
	}

	out := make([]ProcessIO, 0, len(procs))
	var skipped int
	for _, p := range procs {
		io, err := p.IOCountersWithContext(ctx)
		if err != nil {
			skipped++
			continue
		}
		name, _ := p.NameWithContext(ctx)
		out = append(out, ProcessIO{PID: p.Pid, Name: name, ReadBytes: io.ReadBytes})
	}
	if skipped > 0 {
		slog.Debug("remediation: skipped processes with unreadable io counters", "count", skipped)
	}
	return out, nil
}
