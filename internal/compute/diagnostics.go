package compute

import (
	"fmt"
	"sort"

	"github.com/netpulse/netpulse/pkg/types"
)

// Diagnostic levels, most severe first.
const (
	LevelCritical = "critical"
	LevelWarning  = "warning"
	LevelInfo     = "info"
	LevelOK       = "ok"
)

var levelRank = map[string]int{LevelCritical: 0, LevelWarning: 1, LevelInfo: 2, LevelOK: 3}

// Diagnostic is one human-readable finding about a measurement window.
type Diagnostic struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "critical" | "warning" | "info" | "ok".
	Level string `json:"level"`
	// Title is a short label.
	Title string `json:"title"`
	// Detail is the full explanation.
	Detail string `json:"detail"`
	// Value is the average that triggered the finding, if any.
	Value *float64 `json:"value,omitempty"`
}

// Diagnose explains which thresholds a are breaching and which metrics are
// missing. Findings are ordered critical first, then warnings, then info.
// A window with nothing to report yields a single "ok" finding.
func Diagnose(a types.Averages) []Diagnostic {
	var out []Diagnostic

	if HighPacketLoss(a) {
		out = append(out, Diagnostic{
			Key:   "packet_loss",
			Level: LevelCritical,
			Title: fmt.Sprintf("%.1f%% packet loss", *a.PacketLoss),
			Detail: fmt.Sprintf(
				"Average packet loss over the window is %.2f%%, above the %.0f%% limit. "+
					"Lost packets force retransmits and stall interactive traffic. "+
					"A backup connection will be tried.",
				*a.PacketLoss, PacketLossCritical),
			Value: a.PacketLoss,
		})
	}
	if HighLatency(a) {
		out = append(out, Diagnostic{
			Key:   "latency",
			Level: LevelCritical,
			Title: fmt.Sprintf("%.0f ms latency", *a.Latency),
			Detail: fmt.Sprintf(
				"Average round-trip latency to the router is %.1f ms, above the %.0f ms limit. "+
					"Calls and remote sessions will feel sluggish. Aggressive QoS will be enabled.",
				*a.Latency, LatencyCritical),
			Value: a.Latency,
		})
	}
	if WeakSignal(a) {
		out = append(out, Diagnostic{
			Key:   "signal_strength",
			Level: LevelWarning,
			Title: fmt.Sprintf("%.0f%% signal", *a.SignalStrength),
			Detail: fmt.Sprintf(
				"Average wireless signal strength is %.1f%%, below %.0f%%. "+
					"The client may be too far from the access point or facing interference.",
				*a.SignalStrength, SignalPoor),
			Value: a.SignalStrength,
		})
	}
	if SlowDownload(a) {
		out = append(out, Diagnostic{
			Key:   "download_speed",
			Level: LevelWarning,
			Title: fmt.Sprintf("%.1f Mbps download", *a.DownloadSpeed),
			Detail: fmt.Sprintf(
				"Average download speed is %.2f Mbps, below %.0f Mbps. "+
					"Local processes with heavy disk reads will be deprioritized.",
				*a.DownloadSpeed, DownloadPoor),
			Value: a.DownloadSpeed,
		})
	}
	if HighJitter(a) {
		out = append(out, Diagnostic{
			Key:   "jitter",
			Level: LevelInfo,
			Title: fmt.Sprintf("%.1f ms jitter", *a.Jitter),
			Detail: fmt.Sprintf(
				"Latency varies by %.2f ms on average, above %.0f ms. "+
					"Voice and video streams may stutter.",
				*a.Jitter, JitterFair),
			Value: a.Jitter,
		})
	}

	var missing []string
	for _, m := range types.Metrics {
		if a.Value(m) == nil {
			missing = append(missing, m.Label())
		}
	}
	if len(missing) > 0 {
		out = append(out, Diagnostic{
			Key:   "missing_metrics",
			Level: LevelInfo,
			Title: fmt.Sprintf("%d metrics unavailable", len(missing)),
			Detail: fmt.Sprintf(
				"No samples in the window carried %v. Missing metrics are treated as healthy.",
				missing),
		})
	}

	if len(out) == 0 {
		return []Diagnostic{{
			Key:    "healthy",
			Level:  LevelOK,
			Title:  "All metrics in range",
			Detail: "Every metric is within its threshold.",
		}}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return levelRank[out[i].Level] < levelRank[out[j].Level]
	})
	return out
}
