package api

import (
	"time"

	"github.com/netpulse/netpulse/internal/compute"
	"github.com/netpulse/netpulse/internal/cycle"
	"github.com/netpulse/netpulse/pkg/types"
)

// AnalyzeResponse is the payload for POST /api/v1/analyze and GET /api/v1/report.
type AnalyzeResponse struct {
	CycleID             string               `json:"cycle_id"`
	Metrics             types.Averages       `json:"metrics"`
	HealthStatus        types.HealthTier     `json:"health_status"`
	Diagnostics         []compute.Diagnostic `json:"diagnostics"`
	Optimizations       []string             `json:"optimizations"`
	FailedOptimizations []string             `json:"failed_optimizations"`
	Actions             []ActionResponse     `json:"actions"`
	RecordCount         int                  `json:"record_count"`
	Timestamp           string               `json:"timestamp"` // RFC3339
	TimeRangeSeconds    int64                `json:"time_range_seconds"`
}

// ActionResponse is one attempted remediation within AnalyzeResponse.
type ActionResponse struct {
	Action     string  `json:"action"`
	OK         bool    `json:"ok"`
	Message    string  `json:"message"`
	DurationMs float64 `json:"duration_ms"`
}

// StatusResponse is the payload for GET /api/v1/network-status.
type StatusResponse struct {
	ActiveOptimizations []string `json:"active_optimizations"`
	FailedOptimizations []string `json:"failed_optimizations"`
	LastUpdated         string   `json:"last_updated"`            // RFC3339, time of the request
	LastCycleAt         string   `json:"last_cycle_at,omitempty"` // RFC3339, omitted before the first cycle
}

// ReportSummary is one entry in GET /api/v1/reports.
type ReportSummary struct {
	CycleID      string           `json:"cycle_id"`
	HealthStatus types.HealthTier `json:"health_status"`
	Applied      int              `json:"applied"`
	Failed       int              `json:"failed"`
	Timestamp    string           `json:"timestamp"`
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Reports int    `json:"reports"`
}

// errorResponse is the JSON error body. Details is a remediation hint for
// the caller.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// NewAnalyzeResponse maps a cycle report to its JSON representation.
func NewAnalyzeResponse(rep *cycle.Report) AnalyzeResponse {
	actions := make([]ActionResponse, 0, len(rep.Results))
	for _, r := range rep.Results {
		actions = append(actions, ActionResponse{
			Action:     r.Action.String(),
			OK:         r.OK,
			Message:    r.Message,
			DurationMs: float64(r.Duration) / float64(time.Millisecond),
		})
	}
	return AnalyzeResponse{
		CycleID:             rep.ID,
		Metrics:             rep.Health.Averages,
		HealthStatus:        rep.Health.Tier,
		Diagnostics:         nonNil(rep.Diagnostics),
		Optimizations:       nonNil(rep.Applied),
		FailedOptimizations: nonNil(rep.Failed),
		Actions:             actions,
		RecordCount:         rep.RecordCount,
		Timestamp:           rep.Timestamp.UTC().Format(time.RFC3339),
		TimeRangeSeconds:    int64(rep.WindowDays) * 24 * 60 * 60,
	}
}

// nonNil turns a nil slice into an empty one so it encodes as [] not null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
