package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/netpulse/netpulse/internal/compute"
	"github.com/netpulse/netpulse/internal/cycle"
	"github.com/netpulse/netpulse/internal/optimizer"
	"github.com/netpulse/netpulse/internal/remediation"
	"github.com/netpulse/netpulse/pkg/types"
	"github.com/netpulse/netpulse/server/internal/api"
	"github.com/netpulse/netpulse/server/internal/store"
)

// --- test helpers -----------------------------------------------------------

type fakeAnalyzer struct {
	rep   *cycle.Report
	err   error
	calls int
}

func (f *fakeAnalyzer) Run(context.Context) (*cycle.Report, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rep, nil
}

type fakeStatus struct {
	applied []string
	failed  []string
	last    time.Time
}

func (f *fakeStatus) CurrentOptimizations() []string { return f.applied }
func (f *fakeStatus) FailedOptimizations() []string  { return f.failed }
func (f *fakeStatus) LastApplied() time.Time         { return f.last }

func report(id string, tier types.HealthTier) *cycle.Report {
	avg := types.Averages{Latency: types.Float(200), PacketLoss: types.Float(6)}
	return &cycle.Report{
		ID:          id,
		Health:      types.NetworkHealth{Averages: avg, Tier: tier},
		Diagnostics: compute.Diagnose(avg),
		Applied:     []string{"Enabled aggressive QoS", "Restarted network services"},
		Failed:      []string{"Switch to backup connection failed: exit status 10"},
		Results: []optimizer.ActionResult{
			{Action: remediation.EnableAggressiveQoS, OK: true, Message: "Enabled aggressive QoS", Duration: 15 * time.Millisecond},
		},
		RecordCount: 12,
		WindowDays:  3,
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newHandler(a api.Analyzer, st *store.Store, opts api.Options) http.Handler {
	if st == nil {
		st = store.New(5 * time.Minute)
	}
	return api.New(a, &fakeStatus{}, st, opts)
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

// --- /api/v1/health ---------------------------------------------------------

func TestHealth(t *testing.T) {
	st := store.New(time.Minute)
	st.Put(report("c1", types.TierGood))
	h := newHandler(&fakeAnalyzer{}, st, api.Options{})

	rr := do(t, h, http.MethodGet, "/api/v1/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var body api.HealthResponse
	decode(t, rr, &body)
	if body.Status != "ok" || body.Reports != 1 {
		t.Errorf("body: got %+v", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newHandler(&fakeAnalyzer{}, nil, api.Options{})
	cases := []struct{ method, path string }{
		{http.MethodPost, "/api/v1/health"},
		{http.MethodGet, "/api/v1/analyze"},
		{http.MethodPost, "/api/v1/network-status"},
		{http.MethodDelete, "/api/v1/report"},
		{http.MethodPut, "/api/v1/reports"},
		{http.MethodPost, "/api/v1/reports/abc"},
	}
	for _, c := range cases {
		t.Run(c.method+" "+c.path, func(t *testing.T) {
			if rr := do(t, h, c.method, c.path); rr.Code != http.StatusMethodNotAllowed {
				t.Errorf("status: got %d, want 405", rr.Code)
			}
		})
	}
}

// --- /api/v1/analyze --------------------------------------------------------

func TestAnalyze_Success(t *testing.T) {
	st := store.New(time.Minute)
	a := &fakeAnalyzer{rep: report("cycle-1", types.TierCritical)}
	h := newHandler(a, st, api.Options{})

	rr := do(t, h, http.MethodPost, "/api/v1/analyze")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}

	var raw map[string]interface{}
	decode(t, rr, &raw)
	if raw["health_status"] != "critical" {
		t.Errorf("health_status: got %v", raw["health_status"])
	}
	if raw["time_range_seconds"] != float64(259200) {
		t.Errorf("time_range_seconds: got %v", raw["time_range_seconds"])
	}
	if raw["timestamp"] != "2026-03-01T12:00:00Z" {
		t.Errorf("timestamp: got %v", raw["timestamp"])
	}
	m, ok := raw["metrics"].(map[string]interface{})
	if !ok {
		t.Fatalf("metrics: got %T", raw["metrics"])
	}
	if m["latency_ms"] != float64(200) {
		t.Errorf("latency_ms: got %v", m["latency_ms"])
	}
	if v, present := m["jitter_ms"]; !present || v != nil {
		t.Errorf("jitter_ms: want explicit null, got %v (present=%v)", v, present)
	}
	if opts, _ := raw["optimizations"].([]interface{}); len(opts) != 2 {
		t.Errorf("optimizations: got %v", raw["optimizations"])
	}

	if _, ok := st.Get("cycle-1"); !ok {
		t.Error("report was not stored")
	}
}

func TestAnalyze_SourceFailure(t *testing.T) {
	st := store.New(time.Minute)
	a := &fakeAnalyzer{err: errors.New("cycle: load records: open data.csv: no such file or directory")}
	h := newHandler(a, st, api.Options{})

	rr := do(t, h, http.MethodPost, "/api/v1/analyze")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want 502", rr.Code)
	}
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	decode(t, rr, &body)
	if !strings.HasPrefix(body.Error, "failed to load data: ") || !strings.Contains(body.Error, "no such file") {
		t.Errorf("error: got %q", body.Error)
	}
	if body.Details == "" {
		t.Error("details should not be empty")
	}
	if st.Count() != 0 {
		t.Errorf("store count: got %d, want 0", st.Count())
	}
}

// cancellingSource cancels the request context during ingestion, the way a
// client hanging up mid-cycle would.
type cancellingSource struct {
	cancel context.CancelFunc
}

func (s cancellingSource) Load(context.Context) ([]types.MeasurementRecord, error) {
	s.cancel()
	today := time.Now().Format(compute.DateLayout)
	return []types.MeasurementRecord{{Date: today, PacketLoss: types.Float(8)}}, nil
}

func TestAnalyze_ClientDisconnectDoesNotAbortActions(t *testing.T) {
	exec := remediation.ExecutorFunc(func(ctx context.Context, name string, _ ...string) error {
		return ctx.Err()
	})
	plat := &remediation.Linux{
		WiredInterface:    "eth0",
		WirelessInterface: "wlan0",
		BackupConnection:  "backup-connection",
		WirelessTxPower:   20,
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := cycle.NewRunner(cancellingSource{cancel: cancel},
		optimizer.NewEngine(exec, plat, remediation.GopsutilLister{}), nil)
	h := newHandler(runner, nil, api.Options{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", nil).WithContext(ctx)
	h.ServeHTTP(rr, req)

	if ctx.Err() == nil {
		t.Fatal("request context was never cancelled")
	}
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}
	var body api.AnalyzeResponse
	decode(t, rr, &body)
	want := []string{"Switched to backup connection", "Restarted network services"}
	if strings.Join(body.Optimizations, "|") != strings.Join(want, "|") {
		t.Errorf("optimizations: got %v, want %v", body.Optimizations, want)
	}
	if len(body.FailedOptimizations) != 0 {
		t.Errorf("failed_optimizations: got %v, want none", body.FailedOptimizations)
	}
}

func TestAnalyze_RateLimited(t *testing.T) {
	a := &fakeAnalyzer{rep: report("c", types.TierGood)}
	h := newHandler(a, nil, api.Options{AnalyzeRate: 0.001, AnalyzeBurst: 1})

	if rr := do(t, h, http.MethodPost, "/api/v1/analyze"); rr.Code != http.StatusOK {
		t.Fatalf("first call: got %d, want 200", rr.Code)
	}
	rr := do(t, h, http.MethodPost, "/api/v1/analyze")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second call: got %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	if a.calls != 1 {
		t.Errorf("analyzer calls: got %d, want 1", a.calls)
	}
}

func TestAnalyze_NoLimitWhenRateZero(t *testing.T) {
	a := &fakeAnalyzer{rep: report("c", types.TierGood)}
	h := newHandler(a, nil, api.Options{})
	for i := 0; i < 10; i++ {
		if rr := do(t, h, http.MethodPost, "/api/v1/analyze"); rr.Code != http.StatusOK {
			t.Fatalf("call %d: got %d", i, rr.Code)
		}
	}
}

// --- /api/v1/network-status -------------------------------------------------

func TestNetworkStatus_BeforeFirstCycle(t *testing.T) {
	a := &fakeAnalyzer{}
	h := newHandler(a, nil, api.Options{})

	rr := do(t, h, http.MethodGet, "/api/v1/network-status")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var raw map[string]interface{}
	decode(t, rr, &raw)
	if active, ok := raw["active_optimizations"].([]interface{}); !ok || len(active) != 0 {
		t.Errorf("active_optimizations: want [], got %v", raw["active_optimizations"])
	}
	if failed, ok := raw["failed_optimizations"].([]interface{}); !ok || len(failed) != 0 {
		t.Errorf("failed_optimizations: want [], got %v", raw["failed_optimizations"])
	}
	if _, err := time.Parse(time.RFC3339, raw["last_updated"].(string)); err != nil {
		t.Errorf("last_updated: %v", err)
	}
	if _, present := raw["last_cycle_at"]; present {
		t.Error("last_cycle_at should be omitted before the first cycle")
	}
	if a.calls != 0 {
		t.Errorf("network-status must not run a cycle, calls=%d", a.calls)
	}
}

func TestNetworkStatus_ReflectsEngine(t *testing.T) {
	status := &fakeStatus{
		applied: []string{"Cleaned DNS cache"},
		failed:  []string{"Restart network services failed: exit status 1"},
		last:    time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	h := api.New(&fakeAnalyzer{}, status, store.New(time.Minute), api.Options{})

	var body api.StatusResponse
	decode(t, do(t, h, http.MethodGet, "/api/v1/network-status"), &body)
	if len(body.ActiveOptimizations) != 1 || body.ActiveOptimizations[0] != "Cleaned DNS cache" {
		t.Errorf("active: got %v", body.ActiveOptimizations)
	}
	if len(body.FailedOptimizations) != 1 {
		t.Errorf("failed: got %v", body.FailedOptimizations)
	}
	if body.LastCycleAt != "2026-03-01T08:00:00Z" {
		t.Errorf("last_cycle_at: got %q", body.LastCycleAt)
	}
}

// --- /api/v1/report and /api/v1/reports -------------------------------------

func TestLatestReport_NoneYet(t *testing.T) {
	h := newHandler(&fakeAnalyzer{}, nil, api.Options{})
	if rr := do(t, h, http.MethodGet, "/api/v1/report"); rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func TestLatestReport_AfterAnalyze(t *testing.T) {
	a := &fakeAnalyzer{rep: report("cycle-9", types.TierPoor)}
	h := newHandler(a, nil, api.Options{})
	do(t, h, http.MethodPost, "/api/v1/analyze")

	rr := do(t, h, http.MethodGet, "/api/v1/report")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var body api.AnalyzeResponse
	decode(t, rr, &body)
	if body.CycleID != "cycle-9" || body.HealthStatus != types.TierPoor {
		t.Errorf("body: got id=%q tier=%s", body.CycleID, body.HealthStatus)
	}
	if len(body.Actions) != 1 || body.Actions[0].Action != remediation.EnableAggressiveQoS.String() {
		t.Errorf("actions: got %+v", body.Actions)
	}
	if body.Actions[0].DurationMs != 15 {
		t.Errorf("duration_ms: got %v", body.Actions[0].DurationMs)
	}
}

func TestListReports(t *testing.T) {
	st := store.New(time.Minute)
	st.Put(report("a", types.TierGood))
	st.Put(report("b", types.TierCritical))
	h := newHandler(&fakeAnalyzer{}, st, api.Options{})

	var body []api.ReportSummary
	decode(t, do(t, h, http.MethodGet, "/api/v1/reports"), &body)
	if len(body) != 2 {
		t.Fatalf("len: got %d, want 2", len(body))
	}
	for _, s := range body {
		if s.Applied != 2 || s.Failed != 1 {
			t.Errorf("%s: applied=%d failed=%d", s.CycleID, s.Applied, s.Failed)
		}
	}
}

func TestListReports_EmptyIsArray(t *testing.T) {
	h := newHandler(&fakeAnalyzer{}, nil, api.Options{})
	rr := do(t, h, http.MethodGet, "/api/v1/reports")
	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Errorf("body: got %s, want []", got)
	}
}

func TestGetReport(t *testing.T) {
	st := store.New(time.Minute)
	st.Put(report("known", types.TierFair))
	h := newHandler(&fakeAnalyzer{}, st, api.Options{})

	t.Run("found", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/api/v1/reports/known")
		if rr.Code != http.StatusOK {
			t.Fatalf("status: got %d", rr.Code)
		}
		var body api.AnalyzeResponse
		decode(t, rr, &body)
		if body.HealthStatus != types.TierFair {
			t.Errorf("tier: got %s", body.HealthStatus)
		}
	})
	t.Run("unknown", func(t *testing.T) {
		if rr := do(t, h, http.MethodGet, "/api/v1/reports/missing"); rr.Code != http.StatusNotFound {
			t.Errorf("status: got %d, want 404", rr.Code)
		}
	})
	t.Run("trailing slash lists", func(t *testing.T) {
		if rr := do(t, h, http.MethodGet, "/api/v1/reports/"); rr.Code != http.StatusOK {
			t.Errorf("status: got %d, want 200", rr.Code)
		}
	})
}

func TestGetReport_Stale(t *testing.T) {
	st := store.New(time.Nanosecond)
	st.Put(report("old", types.TierGood))
	time.Sleep(time.Millisecond)
	h := newHandler(&fakeAnalyzer{}, st, api.Options{})

	if rr := do(t, h, http.MethodGet, "/api/v1/reports/old"); rr.Code != http.StatusNotFound {
		t.Errorf("stale report: got %d, want 404", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/v1/report"); rr.Code != http.StatusNotFound {
		t.Errorf("stale latest: got %d, want 404", rr.Code)
	}
}

