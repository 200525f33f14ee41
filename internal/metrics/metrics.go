package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/netpulse/netpulse/internal/optimizer"
	"github.com/netpulse/netpulse/pkg/types"
)

const namespace = "netpulse"

// Recorder holds the registered collectors.
type Recorder struct {
	registry *prometheus.Registry

	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	actions       *prometheus.CounterVec
	tier          prometheus.Gauge
	averages      *prometheus.GaugeVec
	records       prometheus.Gauge
}

// NewRecorder registers all collectors, plus the Go runtime and process
// collectors, on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		cycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Evaluation cycles run, by result (ok, ingest_error).",
		}, []string{"result"}),
		cycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one evaluation cycle including remediation.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		actions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remediation_actions_total",
			Help:      "Remediation actions attempted, by action and result (applied, failed).",
		}, []string{"action", "result"}),
		tier: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "health_tier",
			Help:      "Latest health tier: 0 excellent, 1 good, 2 fair, 3 poor, 4 critical.",
		}),
		averages: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "window_average",
			Help:      "Latest per-metric average over the measurement window. Absent when no sample carried the metric.",
		}, []string{"metric"}),
		records: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "window_records",
			Help:      "Records inside the latest measurement window.",
		}),
	}
}

// ObserveCycle counts one cycle. A non-nil err marks it as an ingestion failure.
func (r *Recorder) ObserveCycle(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "ingest_error"
	}
	r.cycles.WithLabelValues(result).Inc()
	r.cycleDuration.Observe(d.Seconds())
}

// ObserveHealth publishes the latest classification and window size.
func (r *Recorder) ObserveHealth(h types.NetworkHealth, records int) {
	r.tier.Set(float64(h.Tier))
	r.records.Set(float64(records))
	for _, m := range types.Metrics {
		if v := h.Averages.Value(m); v != nil {
			r.averages.WithLabelValues(m.String()).Set(*v)
		} else {
			r.averages.DeleteLabelValues(m.String())
		}
	}
}

// ObserveActions counts each attempted action by outcome.
func (r *Recorder) ObserveActions(results []optimizer.ActionResult) {
	for _, res := range results {
		outcome := "applied"
		if !res.OK {
			outcome = "failed"
		}
		r.actions.WithLabelValues(res.Action.String(), outcome).Inc()
	}
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
