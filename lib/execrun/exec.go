// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package execrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// DefaultTimeout bounds commands that do not set their own timeout.
const DefaultTimeout = 10 * time.Second

// Exit statuses synthesized for failures that never produced one.
const (
	exitFailure  = 1
	exitNotFound = 127
)

// Runner executes a Command and reports what happened. Implementations
// never panic and never return a Go error: every failure mode is
// expressed in the Result.
type Runner interface {
	Run(ctx context.Context, command Command) Result
}

// Exec runs commands with os/exec.
type Exec struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewExec returns an Exec runner. A zero timeout selects DefaultTimeout;
// a nil logger discards.
func NewExec(timeout time.Duration, logger *slog.Logger) *Exec {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Exec{timeout: timeout, logger: logger}
}

// Run executes command and waits for it to exit or time out.
func (e *Exec) Run(ctx context.Context, command Command) Result {
	timeout := command.Timeout
	if timeout <= 0 {
		timeout = e.timeout
	}
	runContext, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runContext, command.Name, command.Args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// A daemonizing child can hold our pipes open after it exits;
	// don't wait on it forever.
	cmd.WaitDelay = time.Second

	started := time.Now()
	err := cmd.Run()
	result := Result{
		Command: command.String(),
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	result.ExitCode, result.Stderr = classify(runContext, ctx, timeout, err, result.Stderr)

	e.logger.Debug("ran control command",
		"command", result.Command,
		"exit_code", result.ExitCode,
		"duration", time.Since(started),
	)
	return result
}

// classify maps the error from cmd.Run onto an exit status and, when
// the process produced no usable diagnostics, a stderr message.
func classify(runContext, parent context.Context, timeout time.Duration, err error, stderr string) (int, string) {
	if err == nil {
		return 0, stderr
	}
	if errors.Is(runContext.Err(), context.DeadlineExceeded) && parent.Err() == nil {
		return exitFailure, fmt.Sprintf("command timed out after %v", timeout)
	}
	if parent.Err() != nil {
		return exitFailure, fmt.Sprintf("command cancelled: %v", parent.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code <= 0 {
			// Killed by a signal.
			code = exitFailure
		}
		return code, stderr
	}

	var notFound *exec.Error
	if errors.As(err, &notFound) {
		return exitNotFound, err.Error()
	}
	return exitFailure, err.Error()
}
