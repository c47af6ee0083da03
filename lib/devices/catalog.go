// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package devices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bureau-foundation/quietmic/lib/execrun"
	"github.com/bureau-foundation/quietmic/lib/pulse"
)

var (
	// ErrNotFound means no device in the snapshot matches.
	ErrNotFound = errors.New("no matching capture device")

	// ErrAmbiguous means more than one device matches equally well.
	ErrAmbiguous = errors.New("ambiguous capture device")
)

// SourceLister runs the control plane's source listing.
// *pulse.Controller satisfies it.
type SourceLister interface {
	ListSources(ctx context.Context) execrun.Result
}

// Catalog holds the most recent successful device listing. It is not
// safe for concurrent use; the connector owns it.
type Catalog struct {
	lister  SourceLister
	logger  *slog.Logger
	devices []Device
}

// NewCatalog returns an empty catalog. Call Refresh to populate it.
func NewCatalog(lister SourceLister, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Catalog{lister: lister, logger: logger}
}

// Refresh re-reads the source list. On failure the previous snapshot
// is kept and the returned error is a *pulse.CommandError carrying the
// control plane's message; callers must check it before trusting List.
func (c *Catalog) Refresh(ctx context.Context) error {
	result := c.lister.ListSources(ctx)
	if err := pulse.ResultError(result); err != nil {
		c.logger.Warn("listing capture devices failed, keeping previous snapshot",
			"error", err,
			"kept", len(c.devices),
		)
		return err
	}
	c.devices = ParseSources(result.Stdout)
	c.logger.Debug("refreshed capture devices", "count", len(c.devices))
	return nil
}

// List returns the snapshot in listing order. The slice is a copy.
func (c *Catalog) List() []Device {
	return append([]Device(nil), c.devices...)
}

// FindByDisplay returns the first device whose Display equals display.
// Display strings are not guaranteed unique; later duplicates are
// unreachable through this method (use Resolve to detect them).
func (c *Catalog) FindByDisplay(display string) (Device, bool) {
	for _, device := range c.devices {
		if device.Display() == display {
			return device, true
		}
	}
	return Device{}, false
}

// FindByName returns the device with the given control-plane name.
func (c *Catalog) FindByName(name string) (Device, bool) {
	for _, device := range c.devices {
		if device.Name == name {
			return device, true
		}
	}
	return Device{}, false
}

// Resolve maps user input to a device. It tries, in order: an exact
// name, an exact display string (refusing duplicates with
// ErrAmbiguous), and a fuzzy match over display and name (refusing a
// tie for the best score).
func (c *Catalog) Resolve(query string) (Device, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Device{}, fmt.Errorf("%w: empty device query", ErrNotFound)
	}
	if device, ok := c.FindByName(query); ok {
		return device, nil
	}

	var byDisplay []Device
	for _, device := range c.devices {
		if device.Display() == query {
			byDisplay = append(byDisplay, device)
		}
	}
	switch len(byDisplay) {
	case 0:
	case 1:
		return byDisplay[0], nil
	default:
		return Device{}, ambiguous(query, byDisplay)
	}

	best := bestFuzzy(query, c.devices)
	switch len(best) {
	case 0:
		return Device{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	case 1:
		return best[0], nil
	default:
		return Device{}, ambiguous(query, best)
	}
}

func ambiguous(query string, candidates []Device) error {
	names := make([]string, len(candidates))
	for i, candidate := range candidates {
		names[i] = candidate.Name
	}
	return fmt.Errorf("%w: %q matches %s (use the device name)",
		ErrAmbiguous, query, strings.Join(names, ", "))
}
