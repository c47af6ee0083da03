// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bureau-foundation/quietmic/lib/atomicfile"
)

// DefaultMaxAge is how long an entry stays eligible for recovery.
const DefaultMaxAge = 10 * time.Minute

// Entry is one in-flight apply.
type Entry struct {
	// Source is the device name routed into the filter chain before
	// the apply began.
	Source string `json:"source"`

	// ModuleID is the loopback module the apply unloaded. It is
	// informational: the id does not survive the restart.
	ModuleID string `json:"module_id"`

	// ConfigDigest identifies the filter-chain document the apply
	// wrote.
	ConfigDigest string `json:"config_digest,omitempty"`

	// Timestamp is when the apply started.
	Timestamp time.Time `json:"timestamp"`
}

// Write atomically replaces the journal at path with entry, creating
// the parent directory if needed. The file is private to the user.
func Write(path string, entry Entry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling journal entry: %w", err)
	}
	data = append(data, '\n')
	if err := atomicfile.Write(path, data, 0o600); err != nil {
		return fmt.Errorf("writing journal: %w", err)
	}
	return nil
}

// Read returns the entry at path. The boolean is false when no journal
// exists; any other failure is returned as an error.
func Read(path string) (Entry, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading journal: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("parsing journal %s: %w", path, err)
	}
	return entry, true, nil
}

// Check returns the entry at path when it exists and was written
// within maxAge of now. A stale entry is removed and reported as
// absent. A corrupt file is an error; the caller decides whether to
// Clear it.
func Check(path string, maxAge time.Duration, now time.Time) (Entry, bool, error) {
	entry, ok, err := Read(path)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	if now.Sub(entry.Timestamp) > maxAge {
		if err := Clear(path); err != nil {
			return Entry{}, false, err
		}
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Clear removes the journal. Removing a journal that does not exist is
// not an error.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing journal: %w", err)
	}
	return nil
}
