// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package connector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/quietmic/lib/clock"
	"github.com/bureau-foundation/quietmic/lib/config"
	"github.com/bureau-foundation/quietmic/lib/devices"
	"github.com/bureau-foundation/quietmic/lib/execrun"
	"github.com/bureau-foundation/quietmic/lib/filterchain"
	"github.com/bureau-foundation/quietmic/lib/pulse"
)

// Loopback latencies in milliseconds.
const (
	SuppressionLatency = 20
	MonitorLatency     = 1
)

const loopbackModule = pulse.LoopbackModule

var (
	// ErrNotConnected is returned by operations that need a
	// suppression edge when none is held.
	ErrNotConnected = errors.New("no microphone is connected to the filter chain")

	// ErrNoDefaultSink means the server could not name its default
	// output.
	ErrNoDefaultSink = errors.New("failed to get default sink")

	// ErrNoModuleID means a load succeeded but printed no module id.
	ErrNoModuleID = errors.New("control plane returned no module id")
)

// ControlPlane is the subset of *pulse.Controller the connector
// drives.
type ControlPlane interface {
	ListSources(ctx context.Context) execrun.Result
	ListModules(ctx context.Context) execrun.Result
	LoadLoopback(ctx context.Context, source, sink string, latencyMs int) execrun.Result
	UnloadModule(ctx context.Context, moduleID string) execrun.Result
	DefaultSink(ctx context.Context) execrun.Result
	RestartService(ctx context.Context) execrun.Result
}

// Edge is one loopback the connector created or adopted.
type Edge struct {
	ModuleID string `json:"module_id"`
	Source   string `json:"source"`
	Sink     string `json:"sink"`
}

// Options configures a Connector.
type Options struct {
	// Control is required.
	Control ControlPlane

	// Settings is required. The connector reads it on every apply, so
	// callers may change it between operations.
	Settings *config.Settings

	// Catalog defaults to a catalog listing through Control.
	Catalog *devices.Catalog

	Clock  clock.Clock
	Logger *slog.Logger
}

// Connector tracks the suppression and monitoring edges. It is not
// safe for concurrent use.
type Connector struct {
	control  ControlPlane
	settings *config.Settings
	catalog  *devices.Catalog
	clock    clock.Clock
	logger   *slog.Logger

	suppression *Edge
	monitor     *Edge
}

// New returns a Connector that holds no edges. Call
// DiscoverExistingConnection to adopt edges left by a previous run.
func New(options Options) *Connector {
	connector := &Connector{
		control:  options.Control,
		settings: options.Settings,
		catalog:  options.Catalog,
		clock:    options.Clock,
		logger:   options.Logger,
	}
	if connector.logger == nil {
		connector.logger = slog.New(slog.DiscardHandler)
	}
	connector.logger = connector.logger.With("component", "connector")
	if connector.clock == nil {
		connector.clock = clock.Real()
	}
	if connector.catalog == nil {
		connector.catalog = devices.NewCatalog(options.Control, connector.logger)
	}
	return connector
}

// Suppression returns the edge routing a microphone into the filter
// chain.
func (c *Connector) Suppression() (Edge, bool) {
	if c.suppression == nil {
		return Edge{}, false
	}
	return *c.suppression, true
}

// Monitor returns the edge routing the filter output to the speakers.
func (c *Connector) Monitor() (Edge, bool) {
	if c.monitor == nil {
		return Edge{}, false
	}
	return *c.monitor, true
}

// Settings returns the settings the connector applies.
func (c *Connector) Settings() *config.Settings {
	return c.settings
}

// Devices refreshes the catalog and returns the capture devices. On
// failure the error carries the control plane's message and no list is
// returned.
func (c *Connector) Devices(ctx context.Context) ([]devices.Device, error) {
	if err := c.catalog.Refresh(ctx); err != nil {
		return nil, err
	}
	return c.catalog.List(), nil
}

// Resolve maps user input to a device in the most recent listing.
func (c *Connector) Resolve(query string) (devices.Device, error) {
	return c.catalog.Resolve(query)
}

// modules reads the module table.
func (c *Connector) modules(ctx context.Context) ([]Module, error) {
	result := c.control.ListModules(ctx)
	if err := pulse.ResultError(result); err != nil {
		return nil, fmt.Errorf("listing modules: %w", err)
	}
	return ParseModules(result.Stdout), nil
}

// load creates a loopback and returns its edge.
func (c *Connector) load(ctx context.Context, source, sink string, latencyMs int) (*Edge, error) {
	result := c.control.LoadLoopback(ctx, source, sink, latencyMs)
	if err := pulse.ResultError(result); err != nil {
		return nil, err
	}
	moduleID := result.TrimmedStdout()
	if moduleID == "" {
		return nil, ErrNoModuleID
	}
	return &Edge{ModuleID: moduleID, Source: source, Sink: sink}, nil
}

// release unloads a held edge that is about to be replaced. An edge
// whose module is no longer in the table is dropped without an unload.
func (c *Connector) release(ctx context.Context, edge *Edge) error {
	modules, err := c.modules(ctx)
	if err == nil {
		if _, present := findModule(modules, edge.ModuleID); !present {
			c.logger.Info("held module already gone", "module_id", edge.ModuleID, "source", edge.Source)
			return nil
		}
	}
	if err := pulse.ResultError(c.control.UnloadModule(ctx, edge.ModuleID)); err != nil {
		return fmt.Errorf("unloading module %s: %w", edge.ModuleID, err)
	}
	return nil
}

// DiscoverExistingConnection adopts loopbacks left in the module table
// by an earlier run. It returns the source of the first loopback into
// the filter chain and holds that loopback as the suppression edge. A
// loopback out of the filter chain is adopted as the monitoring edge.
// A failed module listing discovers nothing and changes nothing.
func (c *Connector) DiscoverExistingConnection(ctx context.Context) (string, bool) {
	modules, err := c.modules(ctx)
	if err != nil {
		c.logger.Warn("discovering existing connection failed", "error", err)
		return "", false
	}

	if module, ok := findLoopback(modules, "source", filterchain.OutputNode); ok {
		c.monitor = &Edge{ModuleID: module.ID, Source: filterchain.OutputNode, Sink: module.Args["sink"]}
		c.logger.Debug("adopted monitoring edge", "module_id", module.ID)
	}

	module, ok := findLoopback(modules, "sink", filterchain.InputNode)
	if !ok {
		return "", false
	}
	source := module.Args["source"]
	c.suppression = &Edge{ModuleID: module.ID, Source: source, Sink: filterchain.InputNode}
	c.logger.Info("adopted existing connection", "module_id", module.ID, "source", source)
	return source, true
}

// Connect routes device into the filter chain. A suppression edge
// already held is unloaded first, so reconnecting never leaks a
// loopback.
func (c *Connector) Connect(ctx context.Context, device devices.Device) (string, error) {
	if c.suppression != nil {
		if err := c.release(ctx, c.suppression); err != nil {
			return "", err
		}
		c.suppression = nil
	}

	edge, err := c.load(ctx, device.Name, filterchain.InputNode, SuppressionLatency)
	if err != nil {
		c.logger.Error("connect failed", "source", device.Name, "error", err)
		return "", err
	}
	c.suppression = edge
	c.logger.Info("connected", "source", device.Name, "module_id", edge.ModuleID)
	return "Successfully connected", nil
}

// Disconnect unloads the suppression edge. Without one it succeeds
// without touching the server. A failed unload keeps the edge so the
// caller can retry.
func (c *Connector) Disconnect(ctx context.Context) (string, error) {
	if c.suppression == nil {
		return "No active connections", nil
	}
	result := c.control.UnloadModule(ctx, c.suppression.ModuleID)
	if err := pulse.ResultError(result); err != nil {
		c.logger.Error("disconnect failed", "module_id", c.suppression.ModuleID, "error", err)
		return "", err
	}
	c.logger.Info("disconnected", "source", c.suppression.Source, "module_id", c.suppression.ModuleID)
	c.suppression = nil
	return "Successfully disconnected", nil
}

// StartMonitoring loops the filter output into the current default
// sink and returns the new module id. It requires a suppression edge,
// since the filter output is silent without one. A monitoring edge
// already held is replaced.
func (c *Connector) StartMonitoring(ctx context.Context) (string, error) {
	if c.suppression == nil {
		return "", ErrNotConnected
	}

	result := c.control.DefaultSink(ctx)
	if err := pulse.ResultError(result); err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoDefaultSink, err)
	}
	sink := result.TrimmedStdout()
	if sink == "" {
		return "", ErrNoDefaultSink
	}

	if c.monitor != nil {
		if err := c.release(ctx, c.monitor); err != nil {
			return "", err
		}
		c.monitor = nil
	}

	edge, err := c.load(ctx, filterchain.OutputNode, sink, MonitorLatency)
	if err != nil {
		return "", err
	}
	c.monitor = edge
	c.logger.Info("monitoring started", "sink", sink, "module_id", edge.ModuleID)
	return edge.ModuleID, nil
}

// StopMonitoring unloads moduleID unconditionally. An empty moduleID
// means the held monitoring edge.
func (c *Connector) StopMonitoring(ctx context.Context, moduleID string) (string, error) {
	if moduleID == "" {
		if c.monitor == nil {
			return "Monitoring not active", nil
		}
		moduleID = c.monitor.ModuleID
	}
	if err := pulse.ResultError(c.control.UnloadModule(ctx, moduleID)); err != nil {
		return "", err
	}
	if c.monitor != nil && c.monitor.ModuleID == moduleID {
		c.monitor = nil
	}
	c.logger.Info("monitoring stopped", "module_id", moduleID)
	return "Monitoring stopped", nil
}
