// Package remediation is the boundary between the optimization engine and the
// operating system.
//
// Executor runs one external command and reports success or failure.
// CommandExecutor is the production implementation built on os/exec; failures
// come back as *CommandError carrying the exit status and captured stderr.
//
// Action names the seven remediation actions. Description() is the past-tense
// phrase recorded in the applied list; Title() prefixes entries in the failed
// list.
//
// Platform maps an Action to the concrete command line for the host. Linux
// drives nmcli, tc, iwconfig, renice, systemctl and systemd-resolve; Noop
// reports every action as done without running anything. Detect picks one
// from the remediation config and runtime.GOOS.
//
// ProcessLister enumerates processes with their cumulative disk-read bytes.
// GopsutilLister is the production implementation.
package remediation
