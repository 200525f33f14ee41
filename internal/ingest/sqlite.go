package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/netpulse/netpulse/pkg/types"
)

// probeColumns are the probe collector's column names, in scan order.
var probeColumns = []string{
	"id", "date", "time", "router_ip", "router_mac", "interface",
	"latency", "jitter", "packet_loss", "signal_strength",
	"download_speed", "upload_speed", "isp_name", "gw_reach", "interface_ip",
}

type sqliteSource struct {
	path  string
	table string
}

// Load reads every row of the probe table. The database is opened read-only
// for the duration of the call so the probe can keep writing between cycles.
func (s *sqliteSource) Load(ctx context.Context) ([]types.MeasurementRecord, error) {
	dsn := "file:" + s.path + "?mode=ro&_pragma=busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("ingest: open sqlite: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id",
		strings.Join(probeColumns, ", "), quoteIdent(s.table))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ingest: query %s: %w", s.table, err)
	}
	defer rows.Close()

	var out []types.MeasurementRecord
	for n := 1; rows.Next(); n++ {
		// Every column is scanned as text: SQLite's loose typing lets the
		// probe store "n/a" in a REAL column.
		var cols [15]sql.NullString
		dest := make([]any, len(cols))
		for i := range cols {
			dest[i] = &cols[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("ingest: scan row %d: %w", n, err)
		}
		rec, err := recordFromColumns(n, cols)
		if err != nil {
			return nil, fmt.Errorf("ingest: sqlite %s: %w", s.path, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ingest: read rows: %w", err)
	}
	return out, nil
}

func recordFromColumns(n int, c [15]sql.NullString) (types.MeasurementRecord, error) {
	rec := types.MeasurementRecord{
		Date:                strings.TrimSpace(c[1].String),
		Time:                strings.TrimSpace(c[2].String),
		RouterIP:            c[3].String,
		RouterMAC:           c[4].String,
		Interface:           c[5].String,
		ISPName:             c[12].String,
		GatewayReachability: c[13].String,
		InterfaceIP:         c[14].String,
	}
	id, err := parseID(c[0].String)
	if err != nil {
		return rec, &ParseError{Line: n, Column: probeColumns[0], Value: c[0].String, Err: err}
	}
	rec.ID = id

	metricCols := map[types.Metric]int{
		types.MetricLatency:        6,
		types.MetricJitter:         7,
		types.MetricPacketLoss:     8,
		types.MetricSignalStrength: 9,
		types.MetricDownloadSpeed:  10,
		types.MetricUploadSpeed:    11,
	}
	for _, m := range types.Metrics {
		i := metricCols[m]
		// NULL scans as the empty string, which parseMetric treats as absent.
		v, err := parseMetric(m, c[i].String)
		if err != nil {
			return rec, &ParseError{Line: n, Column: probeColumns[i], Value: c[i].String, Err: err}
		}
		rec.Set(m, v)
	}
	return rec, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
