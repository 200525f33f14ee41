// Package compute reduces raw measurement records to a health classification.
//
// window.go provides FilterLastNDays, which keeps records dated within the last
// n days of an injected "now", and ComputeAverages, which takes one mean per
// metric while ignoring absent values metric by metric. Passing now explicitly
// keeps tests deterministic across calendar days.
//
// classify.go provides the pure Classify(Averages) function. Rules are evaluated
// top to bottom and the first match wins:
//
//	Critical  packet_loss > 5.0  or latency > 150.0
//	Poor      signal_strength < 50.0 or download_speed < 10.0
//	Fair      jitter > 10.0
//	Good      otherwise
//
// Missing metrics take their best-case value, so absence never degrades a tier.
// TierExcellent is never produced by this rule table.
//
// diagnostics.go derives human-readable hints explaining which thresholds a
// window breached.
package compute
