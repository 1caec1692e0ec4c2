// Package executor runs the deploy tool as a subprocess.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultTimeout = 10 * time.Second

// DeployFailedError reports a deploy tool run that did not start, did not
// finish in time, or exited non-zero.
type DeployFailedError struct {
	Command  []string
	ExitCode int // -1 when the process never produced an exit status
	TimedOut bool
	Output   string
	Err      error
}

func (e *DeployFailedError) Error() string {
	switch {
	case e.TimedOut:
		return fmt.Sprintf("deploying failed: %s timed out: %v", commandName(e.Command), e.Err)
	case e.ExitCode > 0:
		return fmt.Sprintf("deploying failed: %s exited with code %d", commandName(e.Command), e.ExitCode)
	default:
		return fmt.Sprintf("deploying failed: %v", e.Err)
	}
}

func (e *DeployFailedError) Unwrap() error {
	return e.Err
}

// Reason is a short label for metrics.
func (e *DeployFailedError) Reason() string {
	switch {
	case e.TimedOut:
		return "timeout"
	case e.ExitCode > 0:
		return "exit_code"
	default:
		return "launch"
	}
}

func commandName(cmd []string) string {
	if len(cmd) == 0 {
		return "<empty command>"
	}
	return cmd[0]
}

type Executor struct {
	timeout time.Duration
	logger  *zap.Logger
}

func New(timeout time.Duration, logger *zap.Logger) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{timeout: timeout, logger: logger}
}

// Execute runs command from the caller's working directory and waits at most
// the configured timeout. Stdout and stderr are captured together and returned.
func (e *Executor) Execute(ctx context.Context, command []string) (string, error) {
	if len(command) == 0 || command[0] == "" {
		return "", &DeployFailedError{Command: command, ExitCode: -1, Err: errors.New("deploy tool is not configured")}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.WaitDelay = time.Second
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	e.logger.Info("deploying start", zap.String("command", strings.Join(command, " ")))
	err := cmd.Run()
	output := out.String()
	e.logger.Info("deploy tool output", zap.String("output", output))

	if err != nil {
		failed := &DeployFailedError{Command: command, ExitCode: -1, Output: output, Err: err}
		var exitErr *exec.ExitError
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			failed.TimedOut = true
			failed.Err = fmt.Errorf("no result after %s: %w", e.timeout, ctx.Err())
		case errors.As(err, &exitErr):
			failed.ExitCode = exitErr.ExitCode()
		}
		return output, failed
	}

	e.logger.Info("deploying completed")
	return output, nil
}
