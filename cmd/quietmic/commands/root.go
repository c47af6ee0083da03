// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/quietmic/cmd/quietmic/cli"
	"github.com/bureau-foundation/quietmic/lib/version"
)

// Root returns the quietmic command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "quietmic",
		Description: `quietmic: DeepFilterNet noise suppression for PipeWire.

Routes a microphone through a noise-suppression filter chain and keeps
that routing intact when the filter settings change and PipeWire has to
restart. Applications record from "DeepFilter Noise Cancelling".`,
		Subcommands: []*cli.Command{
			devicesCommand(),
			statusCommand(),
			connectCommand(),
			disconnectCommand(),
			applyCommand(),
			monitorCommand(),
			recoverCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string) error {
					if len(args) > 0 {
						return fmt.Errorf("unexpected argument: %s", args[0])
					}
					fmt.Fprintf(stdout, "quietmic %s\n", version.Full())
					return nil
				},
			},
		},
	}
}
