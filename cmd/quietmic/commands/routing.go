// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/quietmic/cmd/quietmic/cli"
)

type connectParams struct {
	globalParams
}

func connectCommand() *cli.Command {
	var params connectParams

	return &cli.Command{
		Name:    "connect",
		Summary: "Route a microphone through noise suppression",
		Description: `Route a microphone into the filter chain. The device may be named by
its PipeWire node name, its exact description, or any fuzzy fragment
of either ("yeti", "usb mic"). A microphone already routed is
disconnected first.`,
		Usage: "quietmic connect <device> [flags]",
		Examples: []cli.Example{
			{Description: "Connect by description fragment", Command: "quietmic connect yeti"},
			{Description: "Connect by node name", Command: "quietmic connect alsa_input.usb-Blue_Microphones_Yeti-00.analog-stereo"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("connect", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			query := strings.Join(args, " ")
			if strings.TrimSpace(query) == "" {
				return fmt.Errorf("device is required\n\nUsage: quietmic connect <device>")
			}
			s, err := openSession(ctx, params.globalParams, "connect", true)
			if err != nil {
				return err
			}
			defer s.close()

			return s.do(ctx, func(ctx context.Context) error {
				if _, err := s.connector.Devices(ctx); err != nil {
					return fmt.Errorf("listing devices: %w", err)
				}
				device, err := s.connector.Resolve(query)
				if err != nil {
					return err
				}
				message, err := s.connector.Connect(ctx, device)
				if err != nil {
					return fmt.Errorf("connecting %s: %w", device.Display(), err)
				}
				s.printMessage(fmt.Sprintf("%s %s", s.styles.Good.Render(message), s.styles.Faint.Render("("+device.Display()+")")))
				return nil
			})
		},
	}
}

type disconnectParams struct {
	globalParams
}

func disconnectCommand() *cli.Command {
	var params disconnectParams

	return &cli.Command{
		Name:    "disconnect",
		Summary: "Stop routing the microphone through noise suppression",
		Description: `Unload the loopback that routes the microphone into the filter chain.
Monitoring is stopped first, since the filter output is silent without
a microphone.`,
		Usage: "quietmic disconnect [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("disconnect", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			s, err := openSession(ctx, params.globalParams, "disconnect", true)
			if err != nil {
				return err
			}
			defer s.close()

			return s.do(ctx, func(ctx context.Context) error {
				if _, held := s.connector.Monitor(); held {
					if _, err := s.connector.StopMonitoring(ctx, ""); err != nil {
						s.logger.Warn("stopping monitoring before disconnect failed", "error", err)
					}
				}
				message, err := s.connector.Disconnect(ctx)
				if err != nil {
					return err
				}
				s.printMessage(message)
				return nil
			})
		},
	}
}

type monitorStopParams struct {
	globalParams
	ModuleID string `json:"-" flag:"id" desc:"unload this loopback module instead of the discovered monitor"`
}

func monitorCommand() *cli.Command {
	var startParams globalParams
	var stopParams monitorStopParams

	return &cli.Command{
		Name:    "monitor",
		Summary: "Listen to the filtered microphone",
		Description: `Loop the filter chain's output into the default speakers so you can
hear what applications receive. Requires a connected microphone.`,
		Subcommands: []*cli.Command{
			{
				Name:    "start",
				Summary: "Start monitoring on the default sink",
				Usage:   "quietmic monitor start [flags]",
				Flags: func() *pflag.FlagSet {
					return cli.FlagsFromParams("monitor start", &startParams)
				},
				Run: func(ctx context.Context, args []string) error {
					if len(args) > 0 {
						return fmt.Errorf("unexpected argument: %s", args[0])
					}
					s, err := openSession(ctx, startParams, "monitor start", true)
					if err != nil {
						return err
					}
					defer s.close()

					return s.do(ctx, func(ctx context.Context) error {
						moduleID, err := s.connector.StartMonitoring(ctx)
						if err != nil {
							return err
						}
						s.printMessage("Monitoring started " + s.styles.Faint.Render("(module "+moduleID+")"))
						return nil
					})
				},
			},
			{
				Name:    "stop",
				Summary: "Stop monitoring",
				Usage:   "quietmic monitor stop [flags]",
				Flags: func() *pflag.FlagSet {
					return cli.FlagsFromParams("monitor stop", &stopParams)
				},
				Run: func(ctx context.Context, args []string) error {
					if len(args) > 0 {
						return fmt.Errorf("unexpected argument: %s", args[0])
					}
					s, err := openSession(ctx, stopParams.globalParams, "monitor stop", true)
					if err != nil {
						return err
					}
					defer s.close()

					return s.do(ctx, func(ctx context.Context) error {
						message, err := s.connector.StopMonitoring(ctx, stopParams.ModuleID)
						if err != nil {
							return err
						}
						s.printMessage(message)
						return nil
					})
				},
			},
		},
	}
}
