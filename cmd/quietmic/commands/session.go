// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/bureau-foundation/quietmic/cmd/quietmic/cli"
	"github.com/bureau-foundation/quietmic/connector"
	"github.com/bureau-foundation/quietmic/lib/config"
	"github.com/bureau-foundation/quietmic/lib/execrun"
	"github.com/bureau-foundation/quietmic/lib/filterchain"
	"github.com/bureau-foundation/quietmic/lib/pulse"
)

// globalParams are accepted by every command.
type globalParams struct {
	ConfigPath string `json:"-" flag:"config" desc:"settings file (default $QUIETMIC_CONFIG or ~/.config/quietmic/settings.yaml)"`
	Verbose    bool   `json:"-" flag:"verbose,v" desc:"log every control command"`
}

// Replaced by tests.
var (
	stdout    io.Writer = os.Stdout
	newRunner           = func(timeout time.Duration, logger *slog.Logger) execrun.Runner {
		return execrun.NewExec(timeout, logger)
	}
	pollInterval time.Duration
)

type session struct {
	settings     *config.Settings
	settingsPath string
	logger       *slog.Logger
	connector    *connector.Connector
	queue        *connector.Queue
	lock         *cli.Lock
	styles       cli.Styles
}

// openSession loads settings and builds a connector that has adopted
// the loopbacks already in the module table. mutating sessions hold
// the CLI lock until close.
func openSession(ctx context.Context, global globalParams, command string, mutating bool) (*session, error) {
	logger := cli.NewCommandLogger(global.Verbose).With("command", command)

	settings, settingsPath, err := config.Load(global.ConfigPath)
	if err != nil {
		return nil, err
	}

	var lock *cli.Lock
	if mutating {
		lock, err = cli.AcquireLock(cli.DefaultLockPath())
		if err != nil {
			return nil, err
		}
	}

	control := pulse.New(pulse.Options{
		Runner:        newRunner(settings.CommandDuration(), logger),
		Logger:        logger,
		ServiceUnits:  settings.ServiceUnits,
		ReadyNode:     filterchain.InputNode,
		PollInterval:  pollInterval,
		SettleTimeout: settings.SettleDuration(),
	})
	s := &session{
		settings:     settings,
		settingsPath: settingsPath,
		logger:       logger,
		connector:    connector.New(connector.Options{Control: control, Settings: settings, Logger: logger}),
		queue:        connector.NewQueue(),
		lock:         lock,
		styles:       cli.NewStyles(stdout),
	}

	err = s.do(ctx, func(ctx context.Context) error {
		s.connector.DiscoverExistingConnection(ctx)
		return nil
	})
	if err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

// do runs op on the session's queue.
func (s *session) do(ctx context.Context, op func(context.Context) error) error {
	return s.queue.Do(ctx, op)
}

func (s *session) close() {
	s.queue.Close()
	if err := s.lock.Release(); err != nil {
		s.logger.Warn("releasing lock failed", "error", err)
	}
}

// printMessage writes a connector result message.
func (s *session) printMessage(message string) {
	io.WriteString(stdout, message+"\n")
}
