// Package ingest loads measurement records from the configured source.
//
// Every source implements Source.Load and returns the full record set it can
// see; the measurement window is applied later by the compute package.
//
// Implemented sources:
//   - csv: a probe CSV export (csv.go). Headers are matched loosely so both
//     "Latency (ms)" and "Latency" map to the latency column.
//   - sqlite: the probe collector's database (sqlite.go), read through
//     modernc.org/sqlite.
//   - prometheus: a probe exporter's /metrics endpoint (prometheus.go). Each
//     scrape yields one record dated at scrape time.
//
// Textual metric values share one parser (value.go): case-insensitive "n/a",
// "unknown", "null" and blank mean absent, and packet loss and signal strength
// may carry a trailing "%". A malformed value fails the whole load with a
// *ParseError naming the line and column.
//
// Factory: New(config.Source) returns the correct Source.
package ingest
