package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/netpulse/netpulse/internal/cycle"
	"github.com/netpulse/netpulse/server/internal/store"
)

// Analyzer runs one evaluation cycle.
type Analyzer interface {
	Run(ctx context.Context) (*cycle.Report, error)
}

// StatusReader exposes the optimization engine's latest cycle.
type StatusReader interface {
	CurrentOptimizations() []string
	FailedOptimizations() []string
	LastApplied() time.Time
}

// Options tunes the analyze endpoint.
type Options struct {
	// AnalyzeRate is the sustained analyze requests per second. Zero disables limiting.
	AnalyzeRate float64

	// AnalyzeBurst is the number of analyze requests allowed at once.
	AnalyzeBurst int
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	runner  Analyzer
	status  StatusReader
	store   *store.Store
	limiter *rate.Limiter
	mux     *http.ServeMux
	now     func() time.Time
}

// New creates a Handler and registers all routes.
func New(runner Analyzer, status StatusReader, st *store.Store, opts Options) http.Handler {
	h := &Handler{
		runner: runner,
		status: status,
		store:  st,
		mux:    http.NewServeMux(),
		now:    time.Now,
	}
	if opts.AnalyzeRate > 0 {
		burst := opts.AnalyzeBurst
		if burst < 1 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(opts.AnalyzeRate), burst)
	}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/analyze", h.analyze)
	h.mux.HandleFunc("/api/v1/network-status", h.networkStatus)
	h.mux.HandleFunc("/api/v1/report", h.latestReport)
	h.mux.HandleFunc("/api/v1/reports", h.listReports)
	h.mux.HandleFunc("/api/v1/reports/", h.getReport) // subtree, extracts {id}

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health: liveness plus the number of held reports.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{Status: "ok", Reports: h.store.Count()})
}

// analyze handles POST /api/v1/analyze: runs one full cycle, stores the
// report and returns it.
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.limiter != nil {
		if res := h.limiter.Reserve(); !res.OK() || res.Delay() > 0 {
			delay := res.Delay()
			res.Cancel()
			w.Header().Set("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
			jsonErr(w, http.StatusTooManyRequests, "analyze rate limit exceeded")
			return
		}
	}

	// A client that disconnects mid-cycle must not kill remediation commands
	// already in flight; remediation.command_timeout bounds each one.
	rep, err := h.runner.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		jsonResp(w, http.StatusBadGateway, errorResponse{
			Error:   "failed to load data: " + err.Error(),
			Details: "check that the configured measurement source exists and is properly formatted",
		})
		return
	}

	h.store.Put(rep)
	jsonResp(w, http.StatusOK, NewAnalyzeResponse(rep))
}

// networkStatus returns GET /api/v1/network-status: the optimization engine's
// latest applied and failed lists. It never runs a cycle.
func (h *Handler) networkStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	resp := StatusResponse{
		ActiveOptimizations: nonNil(h.status.CurrentOptimizations()),
		FailedOptimizations: nonNil(h.status.FailedOptimizations()),
		LastUpdated:         h.now().UTC().Format(time.RFC3339),
	}
	if last := h.status.LastApplied(); !last.IsZero() {
		resp.LastCycleAt = last.UTC().Format(time.RFC3339)
	}
	jsonResp(w, http.StatusOK, resp)
}

// latestReport returns GET /api/v1/report: the most recent analyze result.
func (h *Handler) latestReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	e, ok := h.store.Latest()
	if !ok {
		jsonErr(w, http.StatusNotFound, "no report available")
		return
	}
	jsonResp(w, http.StatusOK, NewAnalyzeResponse(e.Report))
}

// listReports returns GET /api/v1/reports: summaries of live reports, newest first.
func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	entries := h.store.List()
	out := make([]ReportSummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, ReportSummary{
			CycleID:      e.Report.ID,
			HealthStatus: e.Report.Health.Tier,
			Applied:      len(e.Report.Applied),
			Failed:       len(e.Report.Failed),
			Timestamp:    e.Report.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	jsonResp(w, http.StatusOK, out)
}

// getReport returns GET /api/v1/reports/{id}: one live report; 404 if unknown or stale.
func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/reports/")
	if id == "" {
		h.listReports(w, r)
		return
	}
	e, ok := h.store.Get(id)
	if !ok {
		jsonErr(w, http.StatusNotFound, "report not found")
		return
	}
	jsonResp(w, http.StatusOK, NewAnalyzeResponse(e.Report))
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
