// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pulse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/quietmic/lib/clock"
	"github.com/bureau-foundation/quietmic/lib/execrun"
	"github.com/bureau-foundation/quietmic/lib/testutil"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestCommandLines(t *testing.T) {
	runner := execrun.NewScripted()
	runner.Respond("*", execrun.Result{})
	controller := New(Options{Runner: runner})
	ctx := context.Background()

	controller.ListSources(ctx)
	controller.ListModules(ctx)
	controller.ListSinks(ctx)
	controller.LoadLoopback(ctx, "alsa_input.usb", "effect_input.deep_filter", 20)
	controller.UnloadModule(ctx, "42")
	controller.DefaultSink(ctx)

	want := []string{
		"pactl list sources",
		"pactl list modules short",
		"pactl list short sinks",
		"pactl load-module module-loopback source=alsa_input.usb sink=effect_input.deep_filter latency_msec=20",
		"pactl unload-module 42",
		"pactl get-default-sink",
	}
	got := runner.Calls()
	if len(got) != len(want) {
		t.Fatalf("got %d calls, want %d: %q", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRestartFailureReturnsImmediately(t *testing.T) {
	runner := execrun.NewScripted()
	runner.Respond("systemctl *", execrun.Result{
		ExitCode: 1,
		Stderr:   "Failed to restart pipewire.service: Unit pipewire.service not found.\n",
	})
	fake := clock.Fake(epoch)
	controller := New(Options{Runner: runner, Clock: fake, ReadyNode: "effect_input.deep_filter"})

	result := controller.RestartService(context.Background())
	if result.Succeeded() {
		t.Fatal("restart reported success")
	}
	if fake.PendingCount() != 0 {
		t.Error("failed restart should not wait for readiness")
	}
	if runner.CallCount("pactl *") != 0 {
		t.Error("failed restart should not probe the server")
	}
	if got := runner.Calls()[0]; got != "systemctl --user restart pipewire pipewire-pulse wireplumber" {
		t.Errorf("restart command = %q", got)
	}
}

func TestRestartReturnsWhenNodeAppears(t *testing.T) {
	runner := execrun.NewScripted()
	runner.Respond("systemctl *", execrun.Result{})
	runner.Respond("pactl list short sinks", execrun.Result{
		Stdout: "40\talsa_output.speakers\tPipeWire\ts16le 2ch 48000Hz\tSUSPENDED\n",
	})
	fake := clock.Fake(epoch)
	controller := New(Options{Runner: runner, Clock: fake, ReadyNode: "effect_input.deep_filter"})

	done := make(chan execrun.Result, 1)
	go func() { done <- controller.RestartService(context.Background()) }()

	// First probe: node not listed yet.
	fake.WaitForTimers(1)
	fake.Advance(DefaultPollInterval)

	// Second probe: node is back.
	fake.WaitForTimers(1)
	runner.Respond("pactl list short sinks", execrun.Result{
		Stdout: "40\talsa_output.speakers\tPipeWire\ts16le 2ch 48000Hz\tSUSPENDED\n" +
			"41\teffect_input.deep_filter\tPipeWire\tfloat32le 1ch 48000Hz\tSUSPENDED\n",
	})
	fake.Advance(DefaultPollInterval)

	result := testutil.RequireReceive(t, done, 5*time.Second, "waiting for restart")
	if !result.Succeeded() {
		t.Fatalf("restart failed: %+v", result)
	}
	if got := runner.CallCount("pactl list short sinks"); got != 2 {
		t.Errorf("probed %d times, want 2", got)
	}
	if elapsed := fake.Now().Sub(epoch); elapsed != 2*DefaultPollInterval {
		t.Errorf("waited %v, want %v", elapsed, 2*DefaultPollInterval)
	}
}

func TestRestartGivesUpAtSettleTimeout(t *testing.T) {
	runner := execrun.NewScripted()
	runner.Respond("systemctl *", execrun.Result{})
	runner.Respond("pactl list short sinks", execrun.Result{ExitCode: 1, Stderr: "Connection failure"})
	fake := clock.Fake(epoch)
	controller := New(Options{
		Runner:        runner,
		Clock:         fake,
		ReadyNode:     "effect_input.deep_filter",
		PollInterval:  time.Second,
		SettleTimeout: 3 * time.Second,
	})

	done := make(chan execrun.Result, 1)
	go func() { done <- controller.RestartService(context.Background()) }()

	for range 3 {
		fake.WaitForTimers(1)
		fake.Advance(time.Second)
	}

	result := testutil.RequireReceive(t, done, 5*time.Second, "waiting for restart")
	if !result.Succeeded() {
		t.Fatal("restart should still succeed when readiness is never observed")
	}
	if got := runner.CallCount("pactl list short sinks"); got != 3 {
		t.Errorf("probed %d times, want 3", got)
	}
}

func TestRestartWithoutReadyNodeWaitsFullSettle(t *testing.T) {
	runner := execrun.NewScripted()
	runner.Respond("systemctl *", execrun.Result{})
	fake := clock.Fake(epoch)
	controller := New(Options{Runner: runner, Clock: fake, PollInterval: time.Second})

	done := make(chan execrun.Result, 1)
	go func() { done <- controller.RestartService(context.Background()) }()

	for range 3 {
		fake.WaitForTimers(1)
		fake.Advance(time.Second)
	}
	testutil.RequireReceive(t, done, 5*time.Second, "waiting for restart")
	if runner.CallCount("pactl *") != 0 {
		t.Error("no probes expected without a ready node")
	}
}

func TestRestartHonoursCancellation(t *testing.T) {
	runner := execrun.NewScripted()
	runner.Respond("systemctl *", execrun.Result{})
	fake := clock.Fake(epoch)
	controller := New(Options{Runner: runner, Clock: fake, ReadyNode: "effect_input.deep_filter"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan execrun.Result, 1)
	go func() { done <- controller.RestartService(ctx) }()

	fake.WaitForTimers(1)
	cancel()
	result := testutil.RequireReceive(t, done, 5*time.Second, "waiting for cancelled restart")
	if !result.Succeeded() {
		t.Error("cancellation during settle should not rewrite the restart result")
	}
}

func TestSinkListed(t *testing.T) {
	output := "40\talsa_output.speakers\tPipeWire\ts16le 2ch 48000Hz\tSUSPENDED\n" +
		"41\teffect_input.deep_filter\tPipeWire\tfloat32le 1ch 48000Hz\tRUNNING\n"
	tests := []struct {
		name string
		want bool
	}{
		{"effect_input.deep_filter", true},
		{"alsa_output.speakers", true},
		{"effect_input", false},
		{"PipeWire", false},
	}
	for _, test := range tests {
		if got := sinkListed(output, test.name); got != test.want {
			t.Errorf("sinkListed(%q) = %v, want %v", test.name, got, test.want)
		}
	}
}

func TestResultError(t *testing.T) {
	if err := ResultError(execrun.Result{}); err != nil {
		t.Errorf("ResultError(success) = %v, want nil", err)
	}

	err := ResultError(execrun.Result{Command: "pactl unload-module 9", ExitCode: 1, Stderr: "Failure: No such entity\n"})
	var commandErr *CommandError
	if !errors.As(err, &commandErr) {
		t.Fatalf("ResultError returned %T, want *CommandError", err)
	}
	if err.Error() != "Failure: No such entity" {
		t.Errorf("Error() = %q", err.Error())
	}

	silent := ResultError(execrun.Result{Command: "pactl info", ExitCode: 2})
	if silent.Error() != "pactl info exited with status 2" {
		t.Errorf("Error() without stderr = %q", silent.Error())
	}
}
