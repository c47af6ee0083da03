// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/quietmic/cmd/quietmic/cli"
)

// unchangedAttenuation is the --attenuation default; it leaves the saved
// setting alone.
const unchangedAttenuation = -1

type applyParams struct {
	globalParams
	Attenuation float64 `json:"-" flag:"attenuation,a" default:"-1" desc:"attenuation limit in dB (0-100); saved to the settings file"`
}

func applyCommand() *cli.Command {
	var params applyParams

	return &cli.Command{
		Name:    "apply",
		Summary: "Write the filter chain and restart PipeWire",
		Description: `Regenerate the filter-chain configuration from the current settings
and restart the audio service so it takes effect. A routed microphone
is disconnected before the restart and reconnected afterwards.

If the restart is interrupted before the microphone is reconnected,
"quietmic recover" finishes the job.`,
		Usage: "quietmic apply [flags]",
		Examples: []cli.Example{
			{Description: "Apply the saved settings", Command: "quietmic apply"},
			{Description: "Let some background through", Command: "quietmic apply --attenuation 40"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("apply", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			s, err := openSession(ctx, params.globalParams, "apply", true)
			if err != nil {
				return err
			}
			defer s.close()

			if params.Attenuation != unchangedAttenuation {
				if err := s.settings.SetAttenuation(params.Attenuation); err != nil {
					return err
				}
				if err := s.settings.Save(s.settingsPath); err != nil {
					return err
				}
				s.logger.Info("saved settings", "path", s.settingsPath, "attenuation", s.settings.Attenuation)
			}

			return s.do(ctx, func(ctx context.Context) error {
				message, err := s.connector.ApplySettings(ctx)
				if err != nil {
					return err
				}
				s.printMessage(s.styles.Good.Render(message))
				if edge, ok := s.connector.Suppression(); ok {
					s.printMessage(s.styles.Faint.Render("Reconnected " + edge.Source))
				}
				return nil
			})
		},
	}
}

type recoverParams struct {
	globalParams
}

func recoverCommand() *cli.Command {
	var params recoverParams

	return &cli.Command{
		Name:    "recover",
		Summary: "Reconnect the microphone after an interrupted apply",
		Description: `Reconnect the microphone recorded by an apply that did not finish.
Records older than ten minutes are discarded. Safe to run at login.`,
		Usage: "quietmic recover [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("recover", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			s, err := openSession(ctx, params.globalParams, "recover", true)
			if err != nil {
				return err
			}
			defer s.close()

			return s.do(ctx, func(ctx context.Context) error {
				message, err := s.connector.Recover(ctx)
				if err != nil {
					return err
				}
				s.printMessage(message)
				return nil
			})
		},
	}
}
