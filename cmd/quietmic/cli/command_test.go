// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func captureHelp(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buffer bytes.Buffer
	previous := helpOutput
	helpOutput = &buffer
	t.Cleanup(func() { helpOutput = previous })
	return &buffer
}

func TestExecuteDispatchesToSubcommand(t *testing.T) {
	var called string
	var receivedArgs []string
	root := &Command{
		Name: "quietmic",
		Subcommands: []*Command{
			{Name: "status", Run: func(_ context.Context, args []string) error { called = "status"; return nil }},
			{
				Name: "monitor",
				Subcommands: []*Command{
					{Name: "start", Run: func(_ context.Context, args []string) error {
						called = "monitor start"
						receivedArgs = args
						return nil
					}},
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"monitor", "start", "extra"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if called != "monitor start" {
		t.Errorf("dispatched to %q", called)
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "extra" {
		t.Errorf("args = %v, want [extra]", receivedArgs)
	}
}

func TestExecuteParsesFlags(t *testing.T) {
	var attenuation float64
	var device string
	command := &Command{
		Name: "apply",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("apply", pflag.ContinueOnError)
			flagSet.Float64Var(&attenuation, "attenuation", 100, "limit")
			return flagSet
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) > 0 {
				device = args[0]
			}
			return nil
		},
	}

	if err := command.Execute(context.Background(), []string{"--attenuation", "42.5", "yeti"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if attenuation != 42.5 || device != "yeti" {
		t.Errorf("attenuation = %v, device = %q", attenuation, device)
	}
}

func TestExecuteUnknownCommandSuggests(t *testing.T) {
	captureHelp(t)
	root := &Command{
		Name: "quietmic",
		Subcommands: []*Command{
			{Name: "connect", Run: func(context.Context, []string) error { return nil }},
			{Name: "disconnect", Run: func(context.Context, []string) error { return nil }},
		},
	}

	err := root.Execute(context.Background(), []string{"conect"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "connect"?`) {
		t.Errorf("error = %v, want a suggestion for connect", err)
	}

	err = root.Execute(context.Background(), []string{"zzzzzzzzzz"})
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %v, want no suggestion", err)
	}
}

func TestExecuteUnknownFlagSuggests(t *testing.T) {
	command := &Command{
		Name: "apply",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("apply", pflag.ContinueOnError)
			flagSet.Float64("attenuation", 100, "limit")
			return flagSet
		},
		Run: func(context.Context, []string) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--atenuation", "40"})
	if err == nil || !strings.Contains(err.Error(), "did you mean --attenuation?") {
		t.Errorf("error = %v, want a suggestion for --attenuation", err)
	}
}

func TestExecuteSubcommandRequired(t *testing.T) {
	help := captureHelp(t)
	root := &Command{
		Name:        "monitor",
		Subcommands: []*Command{{Name: "start", Summary: "Start monitoring"}},
	}

	err := root.Execute(context.Background(), nil)
	if err == nil || err.Error() != "subcommand required" {
		t.Errorf("error = %v", err)
	}
	if !strings.Contains(help.String(), "start") {
		t.Errorf("help not printed:\n%s", help.String())
	}
}

func TestExecuteHelpFlag(t *testing.T) {
	help := captureHelp(t)
	ran := false
	command := &Command{
		Name:        "connect",
		Description: "Route a microphone into the filter chain.",
		Examples:    []Example{{Description: "By name", Command: "quietmic connect yeti"}},
		Run:         func(context.Context, []string) error { ran = true; return nil },
	}

	if err := command.Execute(context.Background(), []string{"--help"}); err != nil {
		t.Fatalf("Execute --help: %v", err)
	}
	if ran {
		t.Error("--help ran the command")
	}
	for _, want := range []string{"Route a microphone", "Usage:", "quietmic connect yeti"} {
		if !strings.Contains(help.String(), want) {
			t.Errorf("help missing %q:\n%s", want, help.String())
		}
	}
}

func TestPrintHelpListsSubcommandsAndFlags(t *testing.T) {
	var params struct {
		JSONOutput
	}
	root := &Command{Name: "quietmic"}
	devices := &Command{
		Name:    "devices",
		Summary: "List capture devices",
		Flags:   func() *pflag.FlagSet { return FlagsFromParams("devices", &params) },
		parent:  root,
	}
	root.Subcommands = []*Command{devices}

	var rootHelp, devicesHelp bytes.Buffer
	root.PrintHelp(&rootHelp)
	devices.PrintHelp(&devicesHelp)

	if !strings.Contains(rootHelp.String(), "devices") || !strings.Contains(rootHelp.String(), "List capture devices") {
		t.Errorf("root help:\n%s", rootHelp.String())
	}
	if !strings.Contains(devicesHelp.String(), "quietmic devices [flags]") || !strings.Contains(devicesHelp.String(), "--json") {
		t.Errorf("devices help:\n%s", devicesHelp.String())
	}
}
