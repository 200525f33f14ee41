package remediation

// Action identifies one remediation the optimization engine can attempt.
type Action string

const (
	SwitchBackupConnection Action = "switch_backup_connection"
	EnableAggressiveQoS    Action = "enable_aggressive_qos"
	RestartNetworkServices Action = "restart_network_services"
	AdjustWirelessPower    Action = "adjust_wireless_power"
	LimitBandwidthHogs     Action = "limit_bandwidth_hogs"
	EnableJitterBuffering  Action = "enable_jitter_buffering"
	CleanDNSCache          Action = "clean_dns_cache"
)

// Actions lists every action in the order the engine may attempt them.
var Actions = []Action{
	SwitchBackupConnection,
	EnableAggressiveQoS,
	RestartNetworkServices,
	AdjustWirelessPower,
	LimitBandwidthHogs,
	EnableJitterBuffering,
	CleanDNSCache,
}

var actionText = map[Action]struct{ title, done string }{
	SwitchBackupConnection: {"Switch to backup connection", "Switched to backup connection"},
	EnableAggressiveQoS:    {"Enable aggressive QoS", "Enabled aggressive QoS"},
	RestartNetworkServices: {"Restart network services", "Restarted network services"},
	AdjustWirelessPower:    {"Adjust wireless power", "Adjusted wireless power"},
	LimitBandwidthHogs:     {"Limit bandwidth hogs", "Limited bandwidth hogs"},
	EnableJitterBuffering:  {"Enable jitter buffering", "Enabled jitter buffering"},
	CleanDNSCache:          {"Clean DNS cache", "Cleaned DNS cache"},
}

// Title is the imperative label, e.g. "Enable aggressive QoS".
func (a Action) Title() string {
	if t, ok := actionText[a]; ok {
		return t.title
	}
	return string(a)
}

// Description is the past-tense phrase recorded when a succeeds,
// e.g. "Enabled aggressive QoS".
func (a Action) Description() string {
	if t, ok := actionText[a]; ok {
		return t.done
	}
	return string(a)
}

func (a Action) String() string { return string(a) }
