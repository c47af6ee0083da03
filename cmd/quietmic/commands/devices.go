// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/quietmic/cmd/quietmic/cli"
)

type devicesParams struct {
	globalParams
	cli.JSONOutput
}

// deviceEntry is one row of "quietmic devices".
type deviceEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Connected   bool   `json:"connected"`
}

func devicesCommand() *cli.Command {
	var params devicesParams

	return &cli.Command{
		Name:    "devices",
		Summary: "List capture devices",
		Description: `List the microphones PipeWire reports. Monitor sources and the
filter chain's own nodes are left out. The device currently routed into
the filter chain is marked with "*".`,
		Usage: "quietmic devices [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("devices", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			s, err := openSession(ctx, params.globalParams, "devices", false)
			if err != nil {
				return err
			}
			defer s.close()

			var entries []deviceEntry
			err = s.do(ctx, func(ctx context.Context) error {
				list, err := s.connector.Devices(ctx)
				if err != nil {
					return fmt.Errorf("listing devices: %w", err)
				}
				routed, _ := s.connector.Suppression()
				for _, device := range list {
					entries = append(entries, deviceEntry{
						Name:        device.Name,
						Description: device.Description,
						Connected:   device.Name == routed.Source,
					})
				}
				return nil
			})
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(stdout, entries); done {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(stdout, s.styles.Faint.Render("No capture devices found."))
				return nil
			}
			width := len("DESCRIPTION")
			for _, entry := range entries {
				width = max(width, ansi.StringWidth(entry.Description))
			}
			fmt.Fprintf(stdout, "  %s   %s\n", padRight(s.styles.Heading.Render("DESCRIPTION"), width), s.styles.Heading.Render("NAME"))
			for _, entry := range entries {
				marker := " "
				if entry.Connected {
					marker = s.styles.Good.Render("*")
				}
				fmt.Fprintf(stdout, "%s %s   %s\n", marker, padRight(entry.Description, width), s.styles.Faint.Render(entry.Name))
			}
			return nil
		},
	}
}

// padRight pads styled text to width terminal cells. tabwriter counts
// escape sequences as text, so columns holding styled cells are padded
// here instead.
func padRight(text string, width int) string {
	return text + strings.Repeat(" ", max(0, width-ansi.StringWidth(text)))
}
