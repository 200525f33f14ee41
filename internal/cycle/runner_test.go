package cycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netpulse/netpulse/internal/metrics"
	"github.com/netpulse/netpulse/internal/optimizer"
	"github.com/netpulse/netpulse/internal/remediation"
	"github.com/netpulse/netpulse/pkg/types"
)

var pinnedNow = time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

type staticSource struct {
	records []types.MeasurementRecord
	err     error
}

func (s staticSource) Load(context.Context) ([]types.MeasurementRecord, error) {
	return s.records, s.err
}

type recordingExecutor struct {
	mu    sync.Mutex
	calls []string
}

func (e *recordingExecutor) Execute(_ context.Context, name string, _ ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, name)
	return nil
}

func newRunner(src staticSource, exec remediation.Executor, rec *metrics.Recorder) *Runner {
	plat := &remediation.Linux{
		WiredInterface:    "eth0",
		WirelessInterface: "wlan0",
		BackupConnection:  "backup-connection",
		WirelessTxPower:   20,
	}
	r := NewRunner(src, optimizer.NewEngine(exec, plat, remediation.GopsutilLister{}), rec)
	r.now = func() time.Time { return pinnedNow }
	return r
}

func f(v float64) *float64 { return types.Float(v) }

func TestRun_CriticalWindow(t *testing.T) {
	src := staticSource{records: []types.MeasurementRecord{
		{Date: "2026-06-09", PacketLoss: f(6), Latency: f(200), Jitter: f(2),
			SignalStrength: f(90), DownloadSpeed: f(50), UploadSpeed: f(20)},
		// Outside the window; would otherwise pull packet loss below 5.
		{Date: "2026-05-01", PacketLoss: f(0), Latency: f(10)},
	}}
	exec := &recordingExecutor{}
	rec := metrics.NewRecorder()

	rep, err := newRunner(src, exec, rec).Run(context.Background())
	require.NoError(t, err)

	_, err = uuid.Parse(rep.ID)
	assert.NoError(t, err, "cycle id should be a uuid")
	assert.Equal(t, types.TierCritical, rep.Health.Tier)
	assert.Equal(t, 1, rep.RecordCount)
	assert.Equal(t, 3, rep.WindowDays)
	assert.Equal(t, pinnedNow, rep.Timestamp)
	assert.Equal(t, []string{
		"Switched to backup connection",
		"Enabled aggressive QoS",
		"Restarted network services",
	}, rep.Applied)
	assert.Empty(t, rep.Failed)
	assert.Equal(t, []string{"nmcli", "tc", "systemctl"}, exec.calls)
	require.NotEmpty(t, rep.Diagnostics)
	assert.Equal(t, "critical", rep.Diagnostics[0].Level)

	n, err := testutil.GatherAndCount(rec.Registry(), "netpulse_cycles_total", "netpulse_remediation_actions_total")
	require.NoError(t, err)
	assert.Equal(t, 4, n, "one cycle series plus three action series")
}

func TestRun_EmptyWindowIsGood(t *testing.T) {
	exec := &recordingExecutor{}
	rep, err := newRunner(staticSource{}, exec, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.TierGood, rep.Health.Tier)
	assert.Equal(t, 0, rep.RecordCount)
	assert.Equal(t, []string{"Cleaned DNS cache"}, rep.Applied)
	assert.Equal(t, []string{"systemd-resolve"}, exec.calls)
}

func TestRun_IngestError(t *testing.T) {
	boom := errors.New("file vanished")
	exec := &recordingExecutor{}
	rec := metrics.NewRecorder()
	rep, err := newRunner(staticSource{err: boom}, exec, rec).Run(context.Background())

	assert.Nil(t, rep)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, exec.calls, "no remediation without data")

	n, err := testutil.GatherAndCount(rec.Registry(), "netpulse_cycles_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRun_WithoutEngine(t *testing.T) {
	r := NewRunner(staticSource{}, nil, nil)
	_, err := r.Run(context.Background())
	assert.Error(t, err)
}

func TestAverages_DoesNotRemediate(t *testing.T) {
	exec := &recordingExecutor{}
	src := staticSource{records: []types.MeasurementRecord{
		{Date: "2026-06-10", Jitter: f(20)},
		{Date: "2026-06-08", Jitter: f(30)},
		{Date: "garbage", Jitter: f(1000)},
	}}
	snap, err := newRunner(src, exec, nil).Averages(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.TierFair, snap.Health.Tier)
	assert.Equal(t, 25.0, *snap.Health.Averages.Jitter)
	assert.Equal(t, 2, snap.RecordCount)
	assert.Empty(t, exec.calls)
}

func TestSetSource(t *testing.T) {
	r := newRunner(staticSource{}, &recordingExecutor{}, nil)
	r.SetSource(staticSource{records: []types.MeasurementRecord{{Date: "2026-06-10", Latency: f(500)}}})

	snap, err := r.Averages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.TierCritical, snap.Health.Tier)
}
