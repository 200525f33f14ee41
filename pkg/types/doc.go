// Package types defines shared Go types used by both the agent and server.
// These are the canonical in-memory representations of network measurement
// and health data, separate from the JSON response shapes in server/internal/api.
//
//   - MeasurementRecord: one probe sample; metrics are *float64 so a missing
//     sensor (nil) is distinct from a zero reading
//   - Averages: per-metric means over a measurement window
//   - HealthTier: Excellent < Good < Fair < Poor < Critical
//   - NetworkHealth: Averages paired with their HealthTier
package types
