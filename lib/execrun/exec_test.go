// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package execrun

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestExecCapturesOutput(t *testing.T) {
	runner := NewExec(5*time.Second, nil)
	result := runner.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo 42; echo oops >&2"},
	})

	if !result.Succeeded() {
		t.Fatalf("Succeeded() = false, exit %d, stderr %q", result.ExitCode, result.Stderr)
	}
	if got := result.TrimmedStdout(); got != "42" {
		t.Errorf("TrimmedStdout() = %q, want %q", got, "42")
	}
	if got := strings.TrimSpace(result.Stderr); got != "oops" {
		t.Errorf("Stderr = %q, want %q", got, "oops")
	}
	if result.Command != "sh -c echo 42; echo oops >&2" {
		t.Errorf("Command = %q", result.Command)
	}
}

func TestExecNonZeroExit(t *testing.T) {
	runner := NewExec(5*time.Second, nil)
	result := runner.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo 'Failure: No such entity' >&2; exit 3"},
	})

	if result.Succeeded() {
		t.Fatal("Succeeded() = true for exit 3")
	}
	if result.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", result.ExitCode)
	}
	if !strings.Contains(result.Stderr, "No such entity") {
		t.Errorf("Stderr = %q, want the command's own message", result.Stderr)
	}
}

func TestExecTimeout(t *testing.T) {
	runner := NewExec(5*time.Second, nil)
	result := runner.Run(context.Background(), Command{
		Name:    "sleep",
		Args:    []string{"5"},
		Timeout: 50 * time.Millisecond,
	})

	if result.Succeeded() {
		t.Fatal("timed-out command reported success")
	}
	if result.ExitCode != exitFailure {
		t.Errorf("ExitCode = %d, want %d", result.ExitCode, exitFailure)
	}
	if !strings.Contains(result.Stderr, "timed out") {
		t.Errorf("Stderr = %q, want a timeout message", result.Stderr)
	}
}

func TestExecMissingBinary(t *testing.T) {
	runner := NewExec(0, nil)
	result := runner.Run(context.Background(), Command{Name: "quietmic-no-such-binary"})

	if result.ExitCode != exitNotFound {
		t.Errorf("ExitCode = %d, want %d", result.ExitCode, exitNotFound)
	}
	if result.Stderr == "" {
		t.Error("Stderr is empty, want the spawn error")
	}
}

func TestExecCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewExec(0, nil).Run(ctx, Command{Name: "sleep", Args: []string{"5"}})
	if result.Succeeded() {
		t.Fatal("cancelled command reported success")
	}
	if !strings.Contains(result.Stderr, "cancelled") {
		t.Errorf("Stderr = %q, want a cancellation message", result.Stderr)
	}
}

func TestScriptedMatching(t *testing.T) {
	runner := NewScripted()
	runner.Respond("pactl load-module *", Result{Stdout: "7\n"})
	runner.Respond("pactl get-default-sink", Result{Stdout: "speakers\n"})
	runner.Respond("pactl get-default-sink", Result{ExitCode: 1, Stderr: "Connection refused"})

	ctx := context.Background()
	load := runner.Run(ctx, Command{Name: "pactl", Args: []string{"load-module", "module-loopback"}})
	if load.TrimmedStdout() != "7" {
		t.Errorf("prefix rule: stdout = %q, want 7", load.Stdout)
	}

	sink := runner.Run(ctx, Command{Name: "pactl", Args: []string{"get-default-sink"}})
	if sink.Succeeded() || sink.Stderr != "Connection refused" {
		t.Errorf("latest rule should win, got %+v", sink)
	}

	unknown := runner.Run(ctx, Command{Name: "pactl", Args: []string{"info"}})
	if unknown.Succeeded() || !strings.Contains(unknown.Stderr, "unexpected command") {
		t.Errorf("unmatched command: %+v", unknown)
	}

	if got := runner.CallCount("pactl *"); got != 3 {
		t.Errorf("CallCount = %d, want 3", got)
	}
	if calls := runner.Calls(); calls[0] != "pactl load-module module-loopback" {
		t.Errorf("Calls()[0] = %q", calls[0])
	}
}
