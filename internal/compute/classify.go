package compute

import (
	"math"

	"github.com/netpulse/netpulse/pkg/types"
)

// Thresholds that map averages to a health tier. All comparisons are strict:
// a value exactly at the threshold does not trigger the rule.
const (
	PacketLossCritical = 5.0   // %, Critical when above
	LatencyCritical    = 150.0 // ms, Critical when above
	SignalPoor         = 50.0  // %, Poor when below
	DownloadPoor       = 10.0  // Mbps, Poor when below
	JitterFair         = 10.0  // ms, Fair when above
)

// Best-case values substituted for missing metrics.
const (
	defaultPacketLoss = 0.0
	defaultLatency    = 0.0
	defaultJitter     = 0.0
	defaultSignal     = 100.0
)

// defaultDownload is +Inf so a missing speed test never reads as a slow link.
var defaultDownload = math.Inf(1)

// Classify maps averages to a health tier. It is pure and total.
func Classify(a types.Averages) types.HealthTier {
	switch {
	case HighPacketLoss(a) || HighLatency(a):
		return types.TierCritical
	case WeakSignal(a) || SlowDownload(a):
		return types.TierPoor
	case HighJitter(a):
		return types.TierFair
	default:
		return types.TierGood
	}
}

// Assess classifies a and pairs the result with the averages.
func Assess(a types.Averages) types.NetworkHealth {
	return types.NetworkHealth{Averages: a, Tier: Classify(a)}
}

// HighPacketLoss reports whether average packet loss exceeds PacketLossCritical.
func HighPacketLoss(a types.Averages) bool {
	return valueOr(a.PacketLoss, defaultPacketLoss) > PacketLossCritical
}

// HighLatency reports whether average latency exceeds LatencyCritical.
func HighLatency(a types.Averages) bool {
	return valueOr(a.Latency, defaultLatency) > LatencyCritical
}

// WeakSignal reports whether average signal strength is below SignalPoor.
func WeakSignal(a types.Averages) bool {
	return valueOr(a.SignalStrength, defaultSignal) < SignalPoor
}

// SlowDownload reports whether average download speed is below DownloadPoor.
func SlowDownload(a types.Averages) bool {
	return valueOr(a.DownloadSpeed, defaultDownload) < DownloadPoor
}

// HighJitter reports whether average jitter exceeds JitterFair.
func HighJitter(a types.Averages) bool {
	return valueOr(a.Jitter, defaultJitter) > JitterFair
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
