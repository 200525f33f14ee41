// Package metrics exposes netpulse's own Prometheus metrics: evaluation cycle
// counts and latency, remediation outcomes per action, and the latest health
// tier and window averages.
//
// Every Recorder owns a private registry, so tests and the two binaries never
// collide on the default registerer. Handler serves that registry on /metrics.
package metrics
