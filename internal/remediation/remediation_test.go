package remediation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netpulse/netpulse/internal/config"
)

// --- CommandExecutor ---

func TestCommandExecutor_Success(t *testing.T) {
	err := NewCommandExecutor(0).Execute(context.Background(), "sh", "-c", "exit 0")
	assert.NoError(t, err)
}

func TestCommandExecutor_NonZeroExit(t *testing.T) {
	err := NewCommandExecutor(0).Execute(context.Background(), "sh", "-c", "echo permission denied >&2; exit 3")
	require.Error(t, err)

	var cerr *CommandError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, 3, cerr.ExitCode)
	assert.Equal(t, "permission denied", cerr.Stderr)
	assert.Contains(t, err.Error(), "exit status 3")
	assert.Contains(t, err.Error(), "permission denied")
}

func TestCommandExecutor_MissingBinary(t *testing.T) {
	err := NewCommandExecutor(0).Execute(context.Background(), "netpulse-no-such-binary")
	require.Error(t, err)

	var cerr *CommandError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, -1, cerr.ExitCode)
}

func TestCommandExecutor_Timeout(t *testing.T) {
	start := time.Now()
	err := NewCommandExecutor(50*time.Millisecond).Execute(context.Background(), "sleep", "5")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestExecutorFunc(t *testing.T) {
	var got []string
	f := ExecutorFunc(func(_ context.Context, name string, args ...string) error {
		got = append([]string{name}, args...)
		return nil
	})
	require.NoError(t, f.Execute(context.Background(), "tc", "qdisc"))
	assert.Equal(t, []string{"tc", "qdisc"}, got)
}

// --- Action ---

func TestAction_Text(t *testing.T) {
	tests := []struct {
		action Action
		title  string
		desc   string
	}{
		{SwitchBackupConnection, "Switch to backup connection", "Switched to backup connection"},
		{EnableAggressiveQoS, "Enable aggressive QoS", "Enabled aggressive QoS"},
		{RestartNetworkServices, "Restart network services", "Restarted network services"},
		{AdjustWirelessPower, "Adjust wireless power", "Adjusted wireless power"},
		{LimitBandwidthHogs, "Limit bandwidth hogs", "Limited bandwidth hogs"},
		{EnableJitterBuffering, "Enable jitter buffering", "Enabled jitter buffering"},
		{CleanDNSCache, "Clean DNS cache", "Cleaned DNS cache"},
	}
	require.Len(t, tests, len(Actions))
	for _, tc := range tests {
		t.Run(string(tc.action), func(t *testing.T) {
			assert.Equal(t, tc.title, tc.action.Title())
			assert.Equal(t, tc.desc, tc.action.Description())
		})
	}
	assert.Equal(t, "mystery", Action("mystery").Description())
}

// --- Platform ---

func linuxConfig() config.Remediation {
	return config.Remediation{
		Platform:          "linux",
		WiredInterface:    "eth0",
		WirelessInterface: "wlan0",
		BackupConnection:  "backup-connection",
		WirelessTxPower:   20,
	}
}

func TestLinux_Commands(t *testing.T) {
	l := NewLinux(linuxConfig())
	tests := map[Action]string{
		SwitchBackupConnection: "nmcli connection up backup-connection",
		EnableAggressiveQoS:    "tc qdisc add dev eth0 root htb",
		RestartNetworkServices: "systemctl restart network.service",
		AdjustWirelessPower:    "iwconfig wlan0 txpower 20",
		EnableJitterBuffering:  "sh -c echo 1 > /proc/sys/net/ipv4/tcp_low_latency",
		CleanDNSCache:          "systemd-resolve --flush-caches",
	}
	for action, want := range tests {
		cmd, ok := l.CommandFor(action)
		require.True(t, ok, action)
		assert.Equal(t, want, cmd.String(), action)
	}

	_, ok := l.CommandFor(LimitBandwidthHogs)
	assert.False(t, ok, "bandwidth hogs are handled per process")

	cmd, ok := l.DeprioritizeCommand(4242)
	require.True(t, ok)
	assert.Equal(t, "renice 19 4242", cmd.String())
}

func TestLinux_UsesConfiguredNames(t *testing.T) {
	cfg := linuxConfig()
	cfg.WiredInterface = "enp3s0"
	cfg.WirelessTxPower = 15
	l := NewLinux(cfg)

	cmd, _ := l.CommandFor(EnableAggressiveQoS)
	assert.Equal(t, []string{"qdisc", "add", "dev", "enp3s0", "root", "htb"}, cmd.Args)
	cmd, _ = l.CommandFor(AdjustWirelessPower)
	assert.Equal(t, []string{"wlan0", "txpower", "15"}, cmd.Args)
}

func TestNoop(t *testing.T) {
	for _, a := range Actions {
		_, ok := Noop{}.CommandFor(a)
		assert.False(t, ok, a)
	}
	_, ok := Noop{}.DeprioritizeCommand(1)
	assert.False(t, ok)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		platform string
		goos     string
		want     string
	}{
		{"auto", "linux", "linux"},
		{"auto", "darwin", "none"},
		{"auto", "windows", "none"},
		{"", "linux", "linux"},
		{"linux", "darwin", "linux"},
		{"none", "linux", "none"},
	}
	for _, tc := range tests {
		t.Run(tc.platform+"/"+tc.goos, func(t *testing.T) {
			cfg := linuxConfig()
			cfg.Platform = tc.platform
			p, err := Detect(tc.goos, cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.want, p.Name())
		})
	}

	_, err := Detect("linux", config.Remediation{Platform: "plan9"})
	assert.Error(t, err)
}

// --- GopsutilLister ---

func TestGopsutilLister_Processes(t *testing.T) {
	procs, err := GopsutilLister{}.Processes(context.Background())
	require.NoError(t, err)
	for _, p := range procs {
		assert.Positive(t, p.PID)
	}
}
