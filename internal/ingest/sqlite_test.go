package ingest

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netpulse/netpulse/internal/config"
)

const probeSchema = `
CREATE TABLE IF NOT EXISTS new_probe_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	date TEXT,
	time TEXT,
	router_ip TEXT,
	router_mac TEXT,
	interface TEXT,
	latency REAL,
	jitter REAL,
	packet_loss REAL,
	signal_strength TEXT,
	download_speed REAL,
	upload_speed REAL,
	isp_name TEXT,
	gw_reach REAL,
	interface_ip TEXT
)`

// newProbeDB creates a probe database in a temp dir and inserts rows.
func newProbeDB(t *testing.T, rows [][]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(probeSchema)
	require.NoError(t, err)
	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO new_probe_logs
			(date, time, router_ip, router_mac, interface, latency, jitter, packet_loss,
			 signal_strength, download_speed, upload_speed, isp_name, gw_reach, interface_ip)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`, r...)
		require.NoError(t, err)
	}
	return path
}

func TestSQLiteSource_Load(t *testing.T) {
	path := newProbeDB(t, [][]any{
		{"2026-05-01", "09:00:00", "192.168.0.1", "aa:bb", "wlan0", 20.5, 1.5, 0.0, "72%", 88.0, 12.0, "ExampleNet", 1.0, "192.168.0.9"},
		{"2026-05-01", "09:05:00", "192.168.0.1", "aa:bb", "wlan0", nil, nil, nil, nil, nil, nil, "ExampleNet", 0.0, "192.168.0.9"},
		{"2026-05-02", "09:00:00", "192.168.0.1", "aa:bb", "wlan0", "n/a", 3, 7.5, "unknown", 4.0, 1.0, "ExampleNet", 1.0, "192.168.0.9"},
	})

	src, err := New(config.Source{Type: "sqlite", Path: path, Table: config.DefaultTable})
	require.NoError(t, err)
	recs, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)

	r := recs[0]
	assert.Equal(t, uint32(1), r.ID)
	assert.Equal(t, "2026-05-01", r.Date)
	assert.Equal(t, "wlan0", r.Interface)
	assert.Equal(t, "1", r.GatewayReachability)
	assert.Equal(t, 20.5, *r.Latency)
	assert.Equal(t, 72.0, *r.SignalStrength)
	assert.Equal(t, 88.0, *r.DownloadSpeed)

	assert.Nil(t, recs[1].Latency)
	assert.Nil(t, recs[1].SignalStrength)
	assert.Nil(t, recs[1].UploadSpeed)

	assert.Nil(t, recs[2].Latency)
	assert.Nil(t, recs[2].SignalStrength)
	assert.Equal(t, 7.5, *recs[2].PacketLoss)
	assert.Equal(t, 3.0, *recs[2].Jitter)
}

func TestSQLiteSource_MalformedValue(t *testing.T) {
	path := newProbeDB(t, [][]any{
		{"2026-05-01", "09:00:00", "", "", "", 20.5, 1.5, 0.0, "strong", 88.0, 12.0, "", 1.0, ""},
	})
	src, err := New(config.Source{Type: "sqlite", Path: path, Table: config.DefaultTable})
	require.NoError(t, err)

	_, err = src.Load(context.Background())
	var perr *ParseError
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.Equal(t, "signal_strength", perr.Column)
	assert.Equal(t, 1, perr.Line)
}

func TestSQLiteSource_MissingTable(t *testing.T) {
	path := newProbeDB(t, nil)
	src, err := New(config.Source{Type: "sqlite", Path: path, Table: "other_logs"})
	require.NoError(t, err)
	_, err = src.Load(context.Background())
	assert.Error(t, err)
}

func TestSQLiteSource_MissingFile(t *testing.T) {
	src, err := New(config.Source{Type: "sqlite", Path: filepath.Join(t.TempDir(), "absent.db"), Table: config.DefaultTable})
	require.NoError(t, err)
	_, err = src.Load(context.Background())
	assert.Error(t, err)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"new_probe_logs"`, quoteIdent("new_probe_logs"))
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
}
