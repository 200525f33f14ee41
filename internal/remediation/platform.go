package remediation

import (
	"fmt"
	"strconv"

	"github.com/netpulse/netpulse/internal/config"
)

// Command is one external command line.
type Command struct {
	Name string
	Args []string
}

func (c Command) String() string {
	s := c.Name
	for _, a := range c.Args {
		s += " " + a
	}
	return s
}

// Platform maps actions to host-specific commands. A false second return
// value means the action needs no command on this platform and counts as done.
type Platform interface {
	Name() string
	CommandFor(a Action) (Command, bool)
	DeprioritizeCommand(pid int32) (Command, bool)
}

// Linux issues NetworkManager, iproute2, wireless-tools and systemd commands.
type Linux struct {
	WiredInterface    string
	WirelessInterface string
	BackupConnection  string
	WirelessTxPower   int
}

// NewLinux builds a Linux platform from the remediation config.
func NewLinux(cfg config.Remediation) *Linux {
	return &Linux{
		WiredInterface:    cfg.WiredInterface,
		WirelessInterface: cfg.WirelessInterface,
		BackupConnection:  cfg.BackupConnection,
		WirelessTxPower:   cfg.WirelessTxPower,
	}
}

func (l *Linux) Name() string { return "linux" }

func (l *Linux) CommandFor(a Action) (Command, bool) {
	switch a {
	case SwitchBackupConnection:
		return Command{"nmcli", []string{"connection", "up", l.BackupConnection}}, true
	case EnableAggressiveQoS:
		return Command{"tc", []string{"qdisc", "add", "dev", l.WiredInterface, "root", "htb"}}, true
	case RestartNetworkServices:
		return Command{"systemctl", []string{"restart", "network.service"}}, true
	case AdjustWirelessPower:
		return Command{"iwconfig", []string{l.WirelessInterface, "txpower", strconv.Itoa(l.WirelessTxPower)}}, true
	case EnableJitterBuffering:
		return Command{"sh", []string{"-c", "echo 1 > /proc/sys/net/ipv4/tcp_low_latency"}}, true
	case CleanDNSCache:
		return Command{"systemd-resolve", []string{"--flush-caches"}}, true
	}
	// LimitBandwidthHogs runs one DeprioritizeCommand per process instead.
	return Command{}, false
}

func (l *Linux) DeprioritizeCommand(pid int32) (Command, bool) {
	return Command{"renice", []string{"19", strconv.FormatInt(int64(pid), 10)}}, true
}

// Noop runs nothing and treats every action as done.
type Noop struct{}

func (Noop) Name() string                              { return "none" }
func (Noop) CommandFor(Action) (Command, bool)         { return Command{}, false }
func (Noop) DeprioritizeCommand(int32) (Command, bool) { return Command{}, false }

// Detect chooses the platform named by cfg.Platform. "auto" resolves to Linux
// when goos is "linux" and to Noop otherwise.
func Detect(goos string, cfg config.Remediation) (Platform, error) {
	switch cfg.Platform {
	case "linux":
		return NewLinux(cfg), nil
	case "none":
		return Noop{}, nil
	case "auto", "":
		if goos == "linux" {
			return NewLinux(cfg), nil
		}
		return Noop{}, nil
	}
	return nil, fmt.Errorf("remediation: unknown platform %q", cfg.Platform)
}
