package remediation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Executor runs an external command to completion.
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) error
}

// ExecutorFunc adapts a plain function to Executor.
type ExecutorFunc func(ctx context.Context, name string, args ...string) error

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, name string, args ...string) error {
	return f(ctx, name, args...)
}

// CommandError describes a command that could not be started or exited non-zero.
type CommandError struct {
	Name     string
	Args     []string
	ExitCode int // -1 when the process never ran
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	cmdline := strings.TrimSpace(e.Name + " " + strings.Join(e.Args, " "))
	if e.ExitCode < 0 {
		return fmt.Sprintf("%s: %v", cmdline, e.Err)
	}
	if e.Stderr == "" {
		return fmt.Sprintf("%s: exit status %d", cmdline, e.ExitCode)
	}
	return fmt.Sprintf("%s: exit status %d: %s", cmdline, e.ExitCode, e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }

// CommandExecutor runs commands with os/exec.
type CommandExecutor struct {
	// Timeout bounds each command. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// NewCommandExecutor returns a CommandExecutor with the given per-command timeout.
func NewCommandExecutor(timeout time.Duration) *CommandExecutor {
	return &CommandExecutor{Timeout: timeout}
}

// Execute runs name with args and waits for it to exit. Stdout is discarded;
// stderr is captured into the returned *CommandError.
func (c *CommandExecutor) Execute(ctx context.Context, name string, args ...string) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	cerr := &CommandError{
		Name:     name,
		Args:     args,
		ExitCode: -1,
		Stderr:   strings.TrimSpace(stderr.String()),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cerr.ExitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		cerr.Err = fmt.Errorf("%w: %w", ctxErr, err)
	}
	return cerr
}
