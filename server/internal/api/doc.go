// Package api implements the HTTP REST API for netpulse-server.
//
// New(runner, status, store, opts) returns an http.Handler that serves:
//
//	GET  /api/v1/health          liveness and number of held reports
//	POST /api/v1/analyze         run one cycle; 502 when the source fails, 429 when rate limited
//	GET  /api/v1/network-status  latest applied/failed optimizations (never runs a cycle)
//	GET  /api/v1/report          most recent analyze result; 404 if none or stale
//	GET  /api/v1/reports         summaries of live reports, newest first
//	GET  /api/v1/reports/{id}    one report by cycle ID; 404 if unknown or stale
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Return 405 for the wrong method
//   - Encode errors as {"error": "...", "details": "..."}
//
// Metric averages are null when no record in the window carried the metric.
// health_status is the lowercase tier name. time_range_seconds is the
// measurement window length.
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
