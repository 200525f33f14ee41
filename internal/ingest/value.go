package ingest

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/netpulse/netpulse/pkg/types"
)

var (
	errNotFinite   = errors.New("value is not a finite number")
	errNegative    = errors.New("value is negative")
	errPercentOver = errors.New("percentage exceeds 100")
)

// isSentinel reports whether s marks a missing reading.
func isSentinel(s string) bool {
	switch strings.ToLower(s) {
	case "", "n/a", "unknown", "null":
		return true
	}
	return false
}

// parseMetric converts raw text for metric m. Absent readings return nil.
// Percentage metrics accept a trailing "%" and must lie in [0, 100]; every
// other metric must be non-negative.
func parseMetric(m types.Metric, raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	if m.IsPercent() {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	if isSentinel(s) {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return nil, errNotFinite
	case v < 0:
		return nil, errNegative
	case m.IsPercent() && v > 100:
		return nil, errPercentOver
	}
	return &v, nil
}

// parseID converts the optional record ID. Absent IDs are 0.
func parseID(raw string) (uint32, error) {
	s := strings.TrimSpace(raw)
	if isSentinel(s) {
		return 0, nil
	}
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(id), nil
}
