// Package store keeps recent evaluation reports in memory with TTL eviction.
// It backs GET /api/v1/report and the WebSocket stream; history is not
// persisted.
package store
