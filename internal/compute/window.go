package compute

import (
	"log/slog"
	"time"

	"github.com/netpulse/netpulse/pkg/types"
)

// DefaultWindowDays is the measurement window used for every evaluation cycle.
const DefaultWindowDays = 3

// DateLayout is the layout of MeasurementRecord.Date.
const DateLayout = "2006-01-02"

// FilterLastNDays returns the records whose Date falls within
// [today-n days, today], both ends inclusive, where today is now's calendar
// date in now's location.
//
// Records with an unparsable Date are dropped silently; they never fail the
// cycle. The input slice is not modified.
func FilterLastNDays(records []types.MeasurementRecord, n int, now time.Time) []types.MeasurementRecord {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	earliest := today.AddDate(0, 0, -n)

	out := make([]types.MeasurementRecord, 0, len(records))
	var skipped int
	for _, r := range records {
		d, err := time.ParseInLocation(DateLayout, r.Date, loc)
		if err != nil {
			skipped++
			continue
		}
		if d.Before(earliest) || d.After(today) {
			continue
		}
		out = append(out, r)
	}
	if skipped > 0 {
		slog.Debug("compute: dropped records with unparsable dates", "count", skipped)
	}
	return out
}

// ComputeAverages reduces records to one arithmetic mean per metric.
// Each metric is averaged independently over the records where it is present;
// a metric absent from every record (or an empty input) yields nil.
func ComputeAverages(records []types.MeasurementRecord) types.Averages {
	var out types.Averages
	for _, m := range types.Metrics {
		out.Set(m, meanOf(records, m))
	}
	return out
}

// meanOf returns the mean of the present values of m, or nil if none are present.
func meanOf(records []types.MeasurementRecord, m types.Metric) *float64 {
	var sum float64
	var count int
	for _, r := range records {
		if v := r.Value(m); v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return nil
	}
	avg := sum / float64(count)
	return &avg
}
