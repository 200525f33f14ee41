package types

import (
	"fmt"
	"strings"
)

// MeasurementRecord is one probe sample as produced by an ingestion source.
// Metric fields are nil when the sensor was unavailable for that sample.
type MeasurementRecord struct {
	ID   uint32
	Date string // YYYY-MM-DD, parsed lazily by the window filter
	Time string

	Latency        *float64 // ms
	Jitter         *float64 // ms
	PacketLoss     *float64 // %
	SignalStrength *float64 // %
	DownloadSpeed  *float64 // Mbps
	UploadSpeed    *float64 // Mbps

	// Contextual fields; carried through but not used for classification.
	RouterIP            string
	RouterSSID          string
	RouterMAC           string
	Interface           string
	ISPName             string
	GatewayReachability string
	InterfaceIP         string
}

// Value returns the record's value for m.
func (r MeasurementRecord) Value(m Metric) *float64 {
	switch m {
	case MetricLatency:
		return r.Latency
	case MetricJitter:
		return r.Jitter
	case MetricPacketLoss:
		return r.PacketLoss
	case MetricSignalStrength:
		return r.SignalStrength
	case MetricDownloadSpeed:
		return r.DownloadSpeed
	case MetricUploadSpeed:
		return r.UploadSpeed
	}
	return nil
}

// Set assigns v to the field for m.
func (r *MeasurementRecord) Set(m Metric, v *float64) {
	switch m {
	case MetricLatency:
		r.Latency = v
	case MetricJitter:
		r.Jitter = v
	case MetricPacketLoss:
		r.PacketLoss = v
	case MetricSignalStrength:
		r.SignalStrength = v
	case MetricDownloadSpeed:
		r.DownloadSpeed = v
	case MetricUploadSpeed:
		r.UploadSpeed = v
	}
}

// Averages holds one arithmetic mean per metric for an evaluation cycle.
// A nil field means no record in the window carried that metric.
type Averages struct {
	Latency        *float64 `json:"latency_ms"`
	Jitter         *float64 `json:"jitter_ms"`
	PacketLoss     *float64 `json:"packet_loss_percent"`
	SignalStrength *float64 `json:"signal_strength_percent"`
	DownloadSpeed  *float64 `json:"download_speed_mbps"`
	UploadSpeed    *float64 `json:"upload_speed_mbps"`
}

// Value returns the average for m.
func (a Averages) Value(m Metric) *float64 {
	switch m {
	case MetricLatency:
		return a.Latency
	case MetricJitter:
		return a.Jitter
	case MetricPacketLoss:
		return a.PacketLoss
	case MetricSignalStrength:
		return a.SignalStrength
	case MetricDownloadSpeed:
		return a.DownloadSpeed
	case MetricUploadSpeed:
		return a.UploadSpeed
	}
	return nil
}

// Set assigns v as the average for m.
func (a *Averages) Set(m Metric, v *float64) {
	switch m {
	case MetricLatency:
		a.Latency = v
	case MetricJitter:
		a.Jitter = v
	case MetricPacketLoss:
		a.PacketLoss = v
	case MetricSignalStrength:
		a.SignalStrength = v
	case MetricDownloadSpeed:
		a.DownloadSpeed = v
	case MetricUploadSpeed:
		a.UploadSpeed = v
	}
}

// Metric identifies one of the six numeric measurements.
type Metric int

const (
	MetricLatency Metric = iota
	MetricJitter
	MetricPacketLoss
	MetricSignalStrength
	MetricDownloadSpeed
	MetricUploadSpeed
)

// Metrics lists every Metric in display order.
var Metrics = []Metric{
	MetricLatency,
	MetricJitter,
	MetricPacketLoss,
	MetricSignalStrength,
	MetricDownloadSpeed,
	MetricUploadSpeed,
}

var metricNames = map[Metric]string{
	MetricLatency:        "latency_ms",
	MetricJitter:         "jitter_ms",
	MetricPacketLoss:     "packet_loss_percent",
	MetricSignalStrength: "signal_strength_percent",
	MetricDownloadSpeed:  "download_speed_mbps",
	MetricUploadSpeed:    "upload_speed_mbps",
}

var metricLabels = map[Metric]string{
	MetricLatency:        "Latency (ms)",
	MetricJitter:         "Jitter (ms)",
	MetricPacketLoss:     "Packet Loss (%)",
	MetricSignalStrength: "Signal Strength (%)",
	MetricDownloadSpeed:  "Download Speed (Mbps)",
	MetricUploadSpeed:    "Upload Speed (Mbps)",
}

// String returns the snake_case name with unit suffix, e.g. "latency_ms".
func (m Metric) String() string {
	if s, ok := metricNames[m]; ok {
		return s
	}
	return fmt.Sprintf("metric(%d)", int(m))
}

// Label returns the human-readable name with unit, e.g. "Latency (ms)".
func (m Metric) Label() string {
	if s, ok := metricLabels[m]; ok {
		return s
	}
	return m.String()
}

// IsPercent reports whether the metric is expressed as a percentage.
func (m Metric) IsPercent() bool {
	return m == MetricPacketLoss || m == MetricSignalStrength
}

// HealthTier is the severity classification of a measurement window,
// ordered from best (Excellent) to worst (Critical).
type HealthTier int

const (
	TierExcellent HealthTier = iota
	TierGood
	TierFair
	TierPoor
	TierCritical
)

var tierNames = [...]string{"excellent", "good", "fair", "poor", "critical"}

// String returns the lowercase tier name.
func (t HealthTier) String() string {
	if t < TierExcellent || t > TierCritical {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

// Worse reports whether t is a more severe tier than other.
func (t HealthTier) Worse(other HealthTier) bool { return t > other }

// MarshalText encodes the tier as its lowercase name.
func (t HealthTier) MarshalText() ([]byte, error) {
	if t < TierExcellent || t > TierCritical {
		return nil, fmt.Errorf("types: invalid health tier %d", int(t))
	}
	return []byte(tierNames[t]), nil
}

// UnmarshalText decodes a tier name, case-insensitively.
func (t *HealthTier) UnmarshalText(b []byte) error {
	tier, err := ParseHealthTier(string(b))
	if err != nil {
		return err
	}
	*t = tier
	return nil
}

// ParseHealthTier returns the tier named s (case-insensitive).
func ParseHealthTier(s string) (HealthTier, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range tierNames {
		if n == name {
			return HealthTier(i), nil
		}
	}
	return 0, fmt.Errorf("types: unknown health tier %q", s)
}

// NetworkHealth pairs a window's averages with the tier they classify to.
// It is the unit of work handed to the optimization engine.
type NetworkHealth struct {
	Averages Averages
	Tier     HealthTier
}

// Float returns a pointer to v. Handy for building records and averages.
func Float(v float64) *float64 { return &v }
