// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package connector

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bureau-foundation/quietmic/lib/devices"
	"github.com/bureau-foundation/quietmic/lib/filterchain"
	"github.com/bureau-foundation/quietmic/lib/journal"
	"github.com/bureau-foundation/quietmic/lib/pulse"
)

// ErrConfigWrite wraps a failure to write the filter-chain document.
var ErrConfigWrite = errors.New("failed to update configuration")

// ApplySettings loads the current settings into the audio server. The
// steps run in a fixed order:
//
//  1. Read the routed source of the held suppression edge from the
//     module table.
//  2. Disconnect it, ignoring failure.
//  3. Write the filter-chain document. Failure aborts before the
//     restart.
//  4. Restart the audio service and wait for it. Failure aborts
//     before any reconnect; the returned error wraps the
//     *pulse.CommandError.
//  5. Reconnect the source from step 1 if it is still listed. Failure
//     here is logged, not returned.
//  6. Report the applied attenuation.
//
// The source from step 1 is journaled until step 5 succeeds.
func (c *Connector) ApplySettings(ctx context.Context) (string, error) {
	logger := c.logger.With("operation", "apply")

	source := ""
	if c.suppression != nil {
		source = c.routedSource(ctx, c.suppression.ModuleID)
		if source != "" {
			c.writeJournal(source, c.suppression.ModuleID)
		}
		if _, err := c.Disconnect(ctx); err != nil {
			logger.Warn("disconnect before restart failed, continuing", "error", err)
		}
	}

	if err := filterchain.Write(c.settings); err != nil {
		logger.Error("writing filter chain failed", "path", c.settings.ConfigPath, "error", err)
		return "", fmt.Errorf("%w: %w", ErrConfigWrite, err)
	}

	result := c.control.RestartService(ctx)
	if err := pulse.ResultError(result); err != nil {
		logger.Error("service restart failed", "error", err)
		return "", fmt.Errorf("PipeWire restart error: %w", err)
	}

	// Module ids do not survive a restart.
	c.suppression = nil
	c.monitor = nil

	if source != "" {
		if err := c.replay(ctx, source); err != nil {
			logger.Warn("reconnecting after restart failed", "source", source, "error", err)
		}
	}

	return "Settings applied: Attenuation Limit = " + formatAttenuation(c.settings.Attenuation) + " dB", nil
}

// Recover finishes an apply that was interrupted before it could
// reconnect. It reconnects the journaled source unless a suppression
// edge is already held. An entry older than journal.DefaultMaxAge is
// discarded.
func (c *Connector) Recover(ctx context.Context) (string, error) {
	path := c.settings.JournalPath
	if path == "" {
		return "Nothing to recover", nil
	}
	entry, ok, err := journal.Check(path, journal.DefaultMaxAge, c.clock.Now())
	if err != nil {
		return "", err
	}
	if !ok {
		return "Nothing to recover", nil
	}

	if c.suppression != nil {
		c.logger.Info("journaled apply already reconnected", "source", c.suppression.Source)
		if err := journal.Clear(path); err != nil {
			return "", err
		}
		return "Already connected", nil
	}

	if err := c.replay(ctx, entry.Source); err != nil {
		return "", fmt.Errorf("recovering %s: %w", entry.Source, err)
	}
	return "Recovered connection to " + entry.Source, nil
}

// routedSource returns the source argument of the loopback moduleID,
// read from the module table. It returns "" when the table cannot be
// read or no longer holds the module.
func (c *Connector) routedSource(ctx context.Context, moduleID string) string {
	modules, err := c.modules(ctx)
	if err != nil {
		c.logger.Warn("cannot read routed source", "module_id", moduleID, "error", err)
		return ""
	}
	module, ok := findModule(modules, moduleID)
	if !ok || module.Name != loopbackModule {
		c.logger.Warn("held loopback missing from module table", "module_id", moduleID)
		return ""
	}
	return module.Args["source"]
}

// replay reconnects source against a fresh device listing and clears
// the journal once it is routed again.
func (c *Connector) replay(ctx context.Context, source string) error {
	if err := c.catalog.Refresh(ctx); err != nil {
		return err
	}
	device, ok := c.catalog.FindByName(source)
	if !ok {
		return fmt.Errorf("%w: %s", devices.ErrNotFound, source)
	}
	if _, err := c.Connect(ctx, device); err != nil {
		return err
	}
	if path := c.settings.JournalPath; path != "" {
		if err := journal.Clear(path); err != nil {
			c.logger.Warn("clearing apply journal failed", "path", path, "error", err)
		}
	}
	return nil
}

func (c *Connector) writeJournal(source, moduleID string) {
	path := c.settings.JournalPath
	if path == "" {
		return
	}
	entry := journal.Entry{
		Source:       source,
		ModuleID:     moduleID,
		ConfigDigest: filterchain.Digest(filterchain.Render(c.settings)),
		Timestamp:    c.clock.Now(),
	}
	if err := journal.Write(path, entry); err != nil {
		c.logger.Warn("writing apply journal failed", "path", path, "error", err)
	}
}

func formatAttenuation(value float64) string {
	return strconv.FormatFloat(value, 'f', 1, 64)
}
