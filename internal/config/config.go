package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultSourceTimeout     = 10 * time.Second
	DefaultTable             = "new_probe_logs"
	DefaultWiredInterface    = "eth0"
	DefaultWirelessInterface = "wlan0"
	DefaultBackupConnection  = "backup-connection"
	DefaultWirelessTxPower   = 20
	DefaultRefreshInterval   = 250 * time.Millisecond
	DefaultQuitKey           = "q"
	DefaultHTTPPort          = 8080
	DefaultAuthHeader        = "X-API-Key"
	DefaultAnalyzeRate       = 1.0
	DefaultAnalyzeBurst      = 5
	DefaultReportTTL         = 10 * time.Minute
	DefaultBroadcastInterval = 5 * time.Second
)

// Default Prometheus metric family names exported by the network probe.
const (
	DefaultLatencyMetric        = "netprobe_latency_ms"
	DefaultJitterMetric         = "netprobe_jitter_ms"
	DefaultPacketLossMetric     = "netprobe_packet_loss_percent"
	DefaultSignalStrengthMetric = "netprobe_signal_strength_percent"
	DefaultDownloadSpeedMetric  = "netprobe_download_mbps"
	DefaultUploadSpeedMetric    = "netprobe_upload_mbps"
)

// Config is the top-level configuration shared by netpulse-agent and
// netpulse-server. Fields map 1:1 to config.example.yaml.
type Config struct {
	Source      Source       `yaml:"source"`
	Remediation Remediation  `yaml:"remediation"`
	Agent       AgentConfig  `yaml:"agent"`
	Server      ServerConfig `yaml:"server"`
}

// Source describes where measurement records are read from.
type Source struct {
	// Type is one of: csv | sqlite | prometheus.
	Type string `yaml:"type"`

	// Path is the CSV file or SQLite database path (csv, sqlite).
	Path string `yaml:"path"`

	// Table is the SQLite table holding probe rows (sqlite).
	Table string `yaml:"table"`

	// Endpoint is the probe exporter's metrics URL (prometheus).
	Endpoint string `yaml:"endpoint"`

	// Metrics maps each measurement to a Prometheus metric family name.
	Metrics MetricNames `yaml:"metrics"`

	// Timeout bounds a single scrape (prometheus).
	Timeout time.Duration `yaml:"timeout"`

	// Auth configures how the agent authenticates to the exporter.
	Auth AuthConfig `yaml:"auth"`

	// TLS holds optional TLS dial options.
	TLS TLSConfig `yaml:"tls"`
}

// MetricNames holds one Prometheus family name per measurement.
type MetricNames struct {
	Latency        string `yaml:"latency"`
	Jitter         string `yaml:"jitter"`
	PacketLoss     string `yaml:"packet_loss"`
	SignalStrength string `yaml:"signal_strength"`
	DownloadSpeed  string `yaml:"download_speed"`
	UploadSpeed    string `yaml:"upload_speed"`
}

// AuthConfig specifies the authentication mode for a source.
type AuthConfig struct {
	// Mode is one of: mtls | apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// mTLS fields, used when Mode == "mtls".
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`

	// Header is the HTTP header the API key is sent in (apikey).
	Header string `yaml:"header"`
	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`

	// TokenEnv is the name of the environment variable that holds the bearer token.
	TokenEnv string `yaml:"token_env"`

	// Username is the literal basic-auth username.
	Username string `yaml:"username"`
	// PasswordEnv is the name of the environment variable that holds the password.
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string { return lookupEnv(a.KeyEnv) }

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string { return lookupEnv(a.TokenEnv) }

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string { return lookupEnv(a.PasswordEnv) }

// TLSConfig holds TLS dial options for the prometheus source.
type TLSConfig struct {
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// Remediation configures how optimization actions reach the operating system.
type Remediation struct {
	// Platform is one of: auto | linux | none. auto picks linux on Linux
	// hosts and none everywhere else.
	Platform string `yaml:"platform"`

	WiredInterface    string `yaml:"wired_interface"`
	WirelessInterface string `yaml:"wireless_interface"`

	// BackupConnection is the NetworkManager connection brought up when
	// packet loss is critical.
	BackupConnection string `yaml:"backup_connection"`

	// WirelessTxPower is the transmit power in dBm set on weak signal.
	WirelessTxPower int `yaml:"wireless_txpower"`

	// CommandTimeout bounds each external command. Zero means no limit.
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

// AgentConfig holds terminal dashboard settings.
type AgentConfig struct {
	// RefreshInterval controls how often the dashboard recomputes averages.
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	// QuitKey is the single key that exits the dashboard.
	QuitKey string `yaml:"quit_key"`

	// LogFile receives dashboard logs. Empty discards them.
	LogFile string `yaml:"log_file"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, metrics and WebSocket hub listen on.
	HTTPPort int `yaml:"http_port"`

	// Auth configures how the server authenticates incoming REST API requests.
	Auth ServerAuthConfig `yaml:"auth"`

	// AnalyzeRate is the sustained number of analyze requests allowed per second.
	AnalyzeRate float64 `yaml:"analyze_rate"`

	// AnalyzeBurst is the number of analyze requests allowed in a burst.
	AnalyzeBurst int `yaml:"analyze_burst"`

	// ReportTTL is how long the latest report is served before it is dropped.
	ReportTTL time.Duration `yaml:"report_ttl"`

	// BroadcastInterval controls how often the WebSocket hub checks for a new report.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
}

// ServerAuthConfig configures REST API authentication.
type ServerAuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// Header is the request header carrying the key.
	Header string `yaml:"header"`

	// KeyEnv is the name of the environment variable holding the expected API key.
	KeyEnv string `yaml:"key_env"`
}

// Key returns the server API key resolved from the environment.
func (a ServerAuthConfig) Key() string { return lookupEnv(a.KeyEnv) }

func lookupEnv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// Load reads and parses the YAML config file at path.
// A .env file next to the config is loaded into the environment first, if
// present, so *_env references can resolve from it. Missing optional fields
// are filled with sensible defaults.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	applyMetricDefaults(&cfg.Source.Metrics)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Source: Source{
			Table:   DefaultTable,
			Timeout: DefaultSourceTimeout,
		},
		Remediation: Remediation{
			Platform:          "auto",
			WiredInterface:    DefaultWiredInterface,
			WirelessInterface: DefaultWirelessInterface,
			BackupConnection:  DefaultBackupConnection,
			WirelessTxPower:   DefaultWirelessTxPower,
		},
		Agent: AgentConfig{
			RefreshInterval: DefaultRefreshInterval,
			QuitKey:         DefaultQuitKey,
		},
		Server: ServerConfig{
			HTTPPort:          DefaultHTTPPort,
			Auth:              ServerAuthConfig{Mode: "none", Header: DefaultAuthHeader},
			AnalyzeRate:       DefaultAnalyzeRate,
			AnalyzeBurst:      DefaultAnalyzeBurst,
			ReportTTL:         DefaultReportTTL,
			BroadcastInterval: DefaultBroadcastInterval,
		},
	}
}

// applyMetricDefaults fills family names left empty in the YAML. A partial
// metrics block overrides only the names it sets.
func applyMetricDefaults(m *MetricNames) {
	set := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	set(&m.Latency, DefaultLatencyMetric)
	set(&m.Jitter, DefaultJitterMetric)
	set(&m.PacketLoss, DefaultPacketLossMetric)
	set(&m.SignalStrength, DefaultSignalStrengthMetric)
	set(&m.DownloadSpeed, DefaultDownloadSpeedMetric)
	set(&m.UploadSpeed, DefaultUploadSpeedMetric)
}

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	src := cfg.Source
	switch src.Type {
	case "csv":
		if src.Path == "" {
			return fmt.Errorf("source.path is required for type csv")
		}
	case "sqlite":
		if src.Path == "" {
			return fmt.Errorf("source.path is required for type sqlite")
		}
		if !tableNameRe.MatchString(src.Table) {
			return fmt.Errorf("source.table %q is not a valid identifier", src.Table)
		}
	case "prometheus":
		if src.Endpoint == "" {
			return fmt.Errorf("source.endpoint is required for type prometheus")
		}
		if src.Timeout <= 0 {
			return fmt.Errorf("source.timeout must be positive")
		}
	case "":
		return fmt.Errorf("source.type is required")
	default:
		return fmt.Errorf("source: unknown type %q", src.Type)
	}
	switch src.Auth.Mode {
	case "mtls", "apikey", "bearer", "basic", "none", "":
	default:
		return fmt.Errorf("source: unknown auth mode %q", src.Auth.Mode)
	}

	rem := cfg.Remediation
	switch rem.Platform {
	case "auto", "linux", "none":
	default:
		return fmt.Errorf("remediation.platform: unknown platform %q", rem.Platform)
	}
	if rem.WirelessTxPower <= 0 {
		return fmt.Errorf("remediation.wireless_txpower must be positive")
	}
	if rem.CommandTimeout < 0 {
		return fmt.Errorf("remediation.command_timeout must not be negative")
	}

	if cfg.Agent.RefreshInterval <= 0 {
		return fmt.Errorf("agent.refresh_interval must be positive")
	}
	if len(cfg.Agent.QuitKey) != 1 {
		return fmt.Errorf("agent.quit_key must be a single ASCII character")
	}

	srv := cfg.Server
	if srv.HTTPPort <= 0 || srv.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d out of range", srv.HTTPPort)
	}
	switch srv.Auth.Mode {
	case "apikey":
		if srv.Auth.KeyEnv == "" {
			return fmt.Errorf("server.auth.key_env is required for mode apikey")
		}
		if srv.Auth.Key() == "" {
			return fmt.Errorf("server.auth.key_env %q is unset or empty", srv.Auth.KeyEnv)
		}
	case "none", "":
	default:
		return fmt.Errorf("server.auth: unknown mode %q", srv.Auth.Mode)
	}
	if srv.AnalyzeRate <= 0 {
		return fmt.Errorf("server.analyze_rate must be positive")
	}
	if srv.AnalyzeBurst <= 0 {
		return fmt.Errorf("server.analyze_burst must be positive")
	}
	if srv.ReportTTL <= 0 {
		return fmt.Errorf("server.report_ttl must be positive")
	}
	if srv.BroadcastInterval <= 0 {
		return fmt.Errorf("server.broadcast_interval must be positive")
	}
	return nil
}
