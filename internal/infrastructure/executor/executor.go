// Package executor runs approved commands in subprocesses.
package executor

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/YUHAI0/shex/internal/domain"
	"github.com/YUHAI0/shex/internal/ports"
)

// LocalExecutor runs commands on the host shell. Each execution gets a fresh
// subprocess with the invoking user's environment and working directory,
// bounded output capture, and a wall-clock timeout. The subprocess (and its
// process group) is always reaped, on every exit path.
type LocalExecutor struct {
	shell   string
	timeout time.Duration
}

// NewLocalExecutor builds a new executor. Shell defaults to $SHELL, then
// /bin/sh; a non-positive timeout falls back to the default.
func NewLocalExecutor(shell string, timeout time.Duration) *LocalExecutor {
	if shell == "" || shell == "auto" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	if timeout <= 0 {
		timeout = domain.DefaultCommandTimeout
	}
	return &LocalExecutor{shell: shell, timeout: timeout}
}

// Execute implements ports.CommandExecutor.
func (e *LocalExecutor) Execute(ctx context.Context, command string) (domain.ExecutionResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.shell, "-c", command)
	stdout := newCappedBuffer(domain.MaxCapturedOutputBytes)
	stderr := newCappedBuffer(domain.MaxCapturedOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	configureCommandProcess(cmd)
	cmd.Cancel = func() error {
		terminateCommandProcess(cmd)
		return nil
	}
	// Bound the reap even if the process ignores the kill briefly.
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start).Milliseconds()

	result := domain.ExecutionResult{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMS: duration,
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		result.ExitCode = -1
		result.Err = context.DeadlineExceeded
		return result, nil
	}
	if ctx.Err() != nil {
		result.Err = ctx.Err()
		return result, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if err != nil {
		// Shell missing or not startable. Surface as a failed execution so
		// the loop can fold it into the next prompt.
		result.ExitCode = -1
		result.Err = err
		return result, nil
	}
	result.ExitCode = 0
	return result, nil
}

var _ ports.CommandExecutor = (*LocalExecutor)(nil)
