// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/quietmic/cmd/quietmic/cli"
	"github.com/bureau-foundation/quietmic/lib/filterchain"
)

type statusParams struct {
	globalParams
	cli.JSONOutput
	ExitCode bool `json:"-" flag:"exit-code" desc:"exit with status 1 when no microphone is connected"`
}

type statusReport struct {
	Connected       bool    `json:"connected"`
	Source          string  `json:"source,omitempty"`
	ModuleID        string  `json:"module_id,omitempty"`
	Monitoring      bool    `json:"monitoring"`
	MonitorModuleID string  `json:"monitor_module_id,omitempty"`
	MonitorSink     string  `json:"monitor_sink,omitempty"`
	Attenuation     float64 `json:"attenuation"`
	ConfigPath      string  `json:"config_path"`
	ConfigInSync    bool    `json:"config_in_sync"`
}

func statusCommand() *cli.Command {
	var params statusParams

	return &cli.Command{
		Name:    "status",
		Summary: "Show routing and filter settings",
		Description: `Show which microphone is routed into the filter chain, whether
monitoring is on, and whether the filter-chain file on disk matches the
current settings. A file out of sync means "quietmic apply" has not run
since the settings changed.`,
		Usage: "quietmic status [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("status", &params)
		},
		Examples: []cli.Example{
			{Description: "Fail a script when suppression is off", Command: "quietmic status --exit-code >/dev/null"},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			s, err := openSession(ctx, params.globalParams, "status", false)
			if err != nil {
				return err
			}
			defer s.close()

			report := statusReport{
				Attenuation: s.settings.Attenuation,
				ConfigPath:  s.settings.ConfigPath,
			}
			if edge, ok := s.connector.Suppression(); ok {
				report.Connected = true
				report.Source = edge.Source
				report.ModuleID = edge.ModuleID
			}
			if edge, ok := s.connector.Monitor(); ok {
				report.Monitoring = true
				report.MonitorModuleID = edge.ModuleID
				report.MonitorSink = edge.Sink
			}
			report.ConfigInSync, err = filterchain.InSync(s.settings)
			if err != nil {
				return err
			}

			done, err := params.EmitJSON(stdout, report)
			if err != nil {
				return err
			}
			if !done {
				printStatus(s, report)
			}
			if params.ExitCode && !report.Connected {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

func printStatus(s *session, report statusReport) {
	styles := s.styles
	if report.Connected {
		fmt.Fprintf(stdout, "Suppression: %s %s\n", styles.Good.Render("on"),
			styles.Faint.Render(fmt.Sprintf("(%s, module %s)", report.Source, report.ModuleID)))
	} else {
		fmt.Fprintf(stdout, "Suppression: %s\n", styles.Warn.Render("off"))
	}
	if report.Monitoring {
		fmt.Fprintf(stdout, "Monitoring:  %s %s\n", styles.Good.Render("on"),
			styles.Faint.Render(fmt.Sprintf("(to %s, module %s)", report.MonitorSink, report.MonitorModuleID)))
	} else {
		fmt.Fprintf(stdout, "Monitoring:  off\n")
	}
	fmt.Fprintf(stdout, "Attenuation: %.1f dB\n", report.Attenuation)
	sync := styles.Good.Render("in sync")
	if !report.ConfigInSync {
		sync = styles.Bad.Render("out of sync, run quietmic apply")
	}
	fmt.Fprintf(stdout, "Filter file: %s %s\n", report.ConfigPath, sync)
}
