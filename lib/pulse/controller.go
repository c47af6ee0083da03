// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pulse

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bureau-foundation/quietmic/lib/clock"
	"github.com/bureau-foundation/quietmic/lib/execrun"
)

const (
	// LoopbackModule is the pactl module that forwards a source to a sink.
	LoopbackModule = "module-loopback"

	// DefaultPollInterval is the gap between readiness probes after a
	// service restart.
	DefaultPollInterval = 250 * time.Millisecond

	// DefaultSettleTimeout caps the post-restart wait. The server is
	// treated as ready once it passes, whether or not a probe succeeded.
	DefaultSettleTimeout = 3 * time.Second

	// restartTimeout bounds systemctl itself. Stopping pipewire can take
	// several seconds when clients are slow to disconnect.
	restartTimeout = 30 * time.Second
)

// DefaultServiceUnits are the user units restarted to reload the
// filter-chain configuration.
var DefaultServiceUnits = []string{"pipewire", "pipewire-pulse", "wireplumber"}

// Options configures a Controller. Zero values select defaults.
type Options struct {
	Runner execrun.Runner
	Clock  clock.Clock
	Logger *slog.Logger

	// ServiceUnits are passed to "systemctl --user restart".
	ServiceUnits []string

	// ReadyNode is a sink name whose presence in "pactl list short
	// sinks" marks the restart as complete. Empty means wait out the
	// full SettleTimeout.
	ReadyNode string

	PollInterval  time.Duration
	SettleTimeout time.Duration
}

// Controller issues control-plane verbs. It holds no state beyond its
// configuration and is safe to share.
type Controller struct {
	runner        execrun.Runner
	clock         clock.Clock
	logger        *slog.Logger
	serviceUnits  []string
	readyNode     string
	pollInterval  time.Duration
	settleTimeout time.Duration
}

// New returns a Controller. Options.Runner is required.
func New(options Options) *Controller {
	controller := &Controller{
		runner:        options.Runner,
		clock:         options.Clock,
		logger:        options.Logger,
		serviceUnits:  options.ServiceUnits,
		readyNode:     options.ReadyNode,
		pollInterval:  options.PollInterval,
		settleTimeout: options.SettleTimeout,
	}
	if controller.clock == nil {
		controller.clock = clock.Real()
	}
	if controller.logger == nil {
		controller.logger = slog.New(slog.DiscardHandler)
	}
	if len(controller.serviceUnits) == 0 {
		controller.serviceUnits = DefaultServiceUnits
	}
	if controller.pollInterval <= 0 {
		controller.pollInterval = DefaultPollInterval
	}
	if controller.settleTimeout <= 0 {
		controller.settleTimeout = DefaultSettleTimeout
	}
	return controller
}

func (c *Controller) pactl(ctx context.Context, args ...string) execrun.Result {
	return c.runner.Run(ctx, execrun.Command{Name: "pactl", Args: args})
}

// ListSources runs "pactl list sources" (the long, multi-line form).
func (c *Controller) ListSources(ctx context.Context) execrun.Result {
	return c.pactl(ctx, "list", "sources")
}

// ListModules runs "pactl list modules short": one tab-separated line
// per module (id, name, arguments).
func (c *Controller) ListModules(ctx context.Context) execrun.Result {
	return c.pactl(ctx, "list", "modules", "short")
}

// ListSinks runs "pactl list short sinks".
func (c *Controller) ListSinks(ctx context.Context) execrun.Result {
	return c.pactl(ctx, "list", "short", "sinks")
}

// LoadLoopback loads a module-loopback from source to sink. On success
// stdout holds the new module id.
func (c *Controller) LoadLoopback(ctx context.Context, source, sink string, latencyMs int) execrun.Result {
	return c.pactl(ctx, "load-module", LoopbackModule,
		"source="+source,
		"sink="+sink,
		"latency_msec="+strconv.Itoa(latencyMs),
	)
}

// UnloadModule unloads the module with the given id.
func (c *Controller) UnloadModule(ctx context.Context, moduleID string) execrun.Result {
	return c.pactl(ctx, "unload-module", moduleID)
}

// DefaultSink runs "pactl get-default-sink"; stdout holds the sink name.
func (c *Controller) DefaultSink(ctx context.Context) execrun.Result {
	return c.pactl(ctx, "get-default-sink")
}

// RestartService restarts the audio service units. On success it
// blocks until the server is ready again before returning; on failure
// it returns immediately with the systemctl result.
func (c *Controller) RestartService(ctx context.Context) execrun.Result {
	args := append([]string{"--user", "restart"}, c.serviceUnits...)
	result := c.runner.Run(ctx, execrun.Command{
		Name:    "systemctl",
		Args:    args,
		Timeout: restartTimeout,
	})
	if !result.Succeeded() {
		return result
	}
	c.waitReady(ctx)
	return result
}

// waitReady polls for the ready node until it is listed or the settle
// timeout passes. Both waits honour ctx; nothing else interrupts them.
func (c *Controller) waitReady(ctx context.Context) {
	started := c.clock.Now()
	deadline := started.Add(c.settleTimeout)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.clock.After(c.pollInterval):
		}

		if c.readyNode != "" {
			probe := c.ListSinks(ctx)
			if probe.Succeeded() && sinkListed(probe.Stdout, c.readyNode) {
				c.logger.Info("audio service ready",
					"node", c.readyNode,
					"waited", c.clock.Now().Sub(started),
				)
				return
			}
		}

		if !c.clock.Now().Before(deadline) {
			if c.readyNode != "" {
				c.logger.Warn("audio service not ready before settle timeout, continuing",
					"node", c.readyNode,
					"timeout", c.settleTimeout,
				)
			}
			return
		}
	}
}

// sinkListed reports whether name appears in the NAME column of
// "pactl list short sinks" output.
func sinkListed(output, name string) bool {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) >= 2 && strings.TrimSpace(fields[1]) == name {
			return true
		}
	}
	return false
}
