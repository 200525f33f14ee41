package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/netpulse/netpulse/pkg/types"
)

// Canonical column keys. Headers are normalized to these before lookup.
const (
	colID        = "id"
	colDate      = "date"
	colTime      = "time"
	colRouterIP  = "router_ip"
	colSSID      = "router_ssid"
	colRouterMAC = "router_mac"
	colInterface = "interface"
	colISP       = "isp_name"
	colGateway   = "gateway_reachability"
	colIfaceIP   = "interface_ip"
)

// metricColumns is the canonical column key of each metric.
var metricColumns = map[types.Metric]string{
	types.MetricLatency:        "latency",
	types.MetricJitter:         "jitter",
	types.MetricPacketLoss:     "packet_loss",
	types.MetricSignalStrength: "signal_strength",
	types.MetricDownloadSpeed:  "download_speed",
	types.MetricUploadSpeed:    "upload_speed",
}

// headerAliases maps normalized headers that differ from the canonical key.
var headerAliases = map[string]string{
	"gw_reach": colGateway,
	"ssid":     colSSID,
	"isp":      colISP,
}

// normalizeHeader turns "Packet Loss (%)" into "packet_loss".
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	if i := strings.Index(h, "("); i >= 0 {
		h = h[:i]
	}
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.Join(strings.FieldsFunc(h, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
	if alias, ok := headerAliases[h]; ok {
		return alias
	}
	return h
}

type csvSource struct {
	path string
}

// Load reads the whole file. The file is reopened on every call so rows
// appended by the probe between cycles are picked up.
func (s *csvSource) Load(ctx context.Context) ([]types.MeasurementRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open csv: %w", err)
	}
	defer f.Close()

	records, err := ReadCSV(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("ingest: csv %s: %w", s.path, err)
	}
	return records, nil
}

// ReadCSV parses a probe CSV export from r. The first row is the header.
// Date and all six metric columns must be present; other columns are optional.
func ReadCSV(ctx context.Context, r io.Reader) ([]types.MeasurementRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	required := []string{colDate}
	for _, m := range types.Metrics {
		required = append(required, metricColumns[m])
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	var out []types.MeasurementRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		field := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		rec := types.MeasurementRecord{
			Date:                strings.TrimSpace(field(colDate)),
			Time:                strings.TrimSpace(field(colTime)),
			RouterIP:            field(colRouterIP),
			RouterSSID:          field(colSSID),
			RouterMAC:           field(colRouterMAC),
			Interface:           field(colInterface),
			ISPName:             field(colISP),
			GatewayReachability: field(colGateway),
			InterfaceIP:         field(colIfaceIP),
		}
		if rec.ID, err = parseID(field(colID)); err != nil {
			return nil, &ParseError{Line: line, Column: header[idx[colID]], Value: field(colID), Err: err}
		}
		for _, m := range types.Metrics {
			col := metricColumns[m]
			v, err := parseMetric(m, field(col))
			if err != nil {
				return nil, &ParseError{Line: line, Column: header[idx[col]], Value: field(col), Err: err}
			}
			rec.Set(m, v)
		}
		out = append(out, rec)
	}
	return out, nil
}
