// Package config loads and watches the netpulse configuration file (config.yaml).
//
// Top-level types:
//   - Config{Source, Remediation, Agent, Server}: full config tree parsed from YAML
//   - Source: type (csv|sqlite|prometheus), path, table, endpoint, metrics,
//     timeout, auth, tls
//   - AuthConfig: mode (mtls|apikey|bearer|basic|none), cert/key/ca files,
//     header, key_env, token_env, username, password_env; Key(), Token() and
//     Password() resolve from environment variables
//   - Remediation: platform (auto|linux|none), interface names, backup
//     connection, wireless tx power, command timeout
//   - AgentConfig: dashboard refresh interval, quit key, log file
//   - ServerConfig: HTTP port, API auth, analyze rate limit, report TTL,
//     WebSocket broadcast interval
//
// Load(path) first loads a .env file from the config's directory when one
// exists (godotenv, never overriding variables already set), then reads the
// YAML file, applies defaults (250ms refresh, port 8080, new_probe_logs table,
// eth0/wlan0) and validates required fields and enums.
//
// WatchSource(ctx, path, onChange) uses fsnotify to detect file changes. A
// burst of events settles into one reload, and onChange receives the source
// section only when it differs from the last one applied. The watch is
// re-added after every reload so atomic-save editors (vim, VS Code) keep
// being tracked.
package config
