package ingest

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/netpulse/netpulse/internal/compute"
	"github.com/netpulse/netpulse/internal/config"
	"github.com/netpulse/netpulse/pkg/types"
)

type promSource struct {
	src    config.Source
	client *http.Client
	now    func() time.Time
}

// Load scrapes the exporter once and returns a single record dated at scrape
// time. Families missing from the exposition leave their metric absent.
func (s *promSource) Load(ctx context.Context) ([]types.MeasurementRecord, error) {
	mfs, err := fetchMetrics(ctx, s.client, s.src.Endpoint)
	if err != nil {
		slog.Warn("ingest: prometheus fetch failed", "endpoint", s.src.Endpoint, "err", err)
		return nil, fmt.Errorf("ingest: prometheus scrape %s: %w", s.src.Endpoint, err)
	}

	now := s.now()
	rec := types.MeasurementRecord{
		Date: now.Format(compute.DateLayout),
		Time: now.Format("15:04:05"),
	}
	names := familyNames(s.src.Metrics)
	for _, m := range types.Metrics {
		rec.Set(m, meanFamily(mfs[names[m]]))
	}
	return []types.MeasurementRecord{rec}, nil
}

func familyNames(n config.MetricNames) map[types.Metric]string {
	return map[types.Metric]string{
		types.MetricLatency:        n.Latency,
		types.MetricJitter:         n.Jitter,
		types.MetricPacketLoss:     n.PacketLoss,
		types.MetricSignalStrength: n.SignalStrength,
		types.MetricDownloadSpeed:  n.DownloadSpeed,
		types.MetricUploadSpeed:    n.UploadSpeed,
	}
}

// authRoundTripper injects authentication headers into every outgoing request.
type authRoundTripper struct {
	base http.RoundTripper
	auth config.AuthConfig
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	switch t.auth.Mode {
	case "apikey":
		req = req.Clone(req.Context())
		header := t.auth.Header
		if header == "" {
			header = config.DefaultAuthHeader
		}
		req.Header.Set(header, t.auth.Key())
	case "bearer":
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.auth.Token())
	case "basic":
		req = req.Clone(req.Context())
		req.SetBasicAuth(t.auth.Username, t.auth.Password())
	}
	return t.base.RoundTrip(req)
}

// buildHTTPClient constructs an http.Client for the source's auth and TLS settings.
func buildHTTPClient(src config.Source) (*http.Client, error) {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: src.TLS.InsecureSkipVerify, //nolint:gosec // user-configured
	}

	if src.Auth.Mode == "mtls" {
		cert, err := tls.LoadX509KeyPair(src.Auth.CertFile, src.Auth.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}

		if src.Auth.CAFile != "" {
			caPEM, err := os.ReadFile(src.Auth.CAFile)
			if err != nil {
				return nil, fmt.Errorf("read ca file: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caPEM) {
				return nil, fmt.Errorf("no valid certs found in ca file %q", src.Auth.CAFile)
			}
			tlsCfg.RootCAs = pool
		}
	}

	timeout := src.Timeout
	if timeout <= 0 {
		timeout = config.DefaultSourceTimeout
	}
	return &http.Client{
		Transport: &authRoundTripper{
			base: &http.Transport{TLSClientConfig: tlsCfg},
			auth: src.Auth,
		},
		Timeout: timeout,
	}, nil
}

// fetchMetrics performs an HTTP GET to url and returns parsed metric families.
func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric families.
// A partial result with a non-fatal parse warning is still returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// meanFamily averages the gauge, counter and untyped samples of mf across
// its series, skipping NaN and infinite samples. Returns nil when mf is absent or carries no usable sample.
func meanFamily(mf *dto.MetricFamily) *float64 {
	if mf == nil {
		return nil
	}
	var sum float64
	var n int
	for _, m := range mf.GetMetric() {
		var v float64
		switch {
		case m.Gauge != nil:
			v = m.Gauge.GetValue()
		case m.Counter != nil:
			v = m.Counter.GetValue()
		case m.Untyped != nil:
			v = m.Untyped.GetValue()
		default:
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}
