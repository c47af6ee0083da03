// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package atomicfile replaces files so that readers see either the old
// content or the new content, never a mix.
//
// [Write] stages data in a temporary file next to the target, fsyncs
// it, renames it over the target, and fsyncs the parent directory. If
// any step fails the temporary file is removed and the target is left
// as it was.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// Write atomically replaces path with data. The parent directory is
// created (mode 0755) when missing.
func Write(path string, data []byte, mode os.FileMode) error {
	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", directory, err)
	}

	// CreateTemp in the same directory keeps the rename on one
	// filesystem and lets concurrent writers stage independently.
	file, err := os.CreateTemp(directory, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary file for %s: %w", path, err)
	}
	temporaryPath := file.Name()

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing %s: %w", temporaryPath, err)
	}
	if err := file.Chmod(mode); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("setting mode on %s: %w", temporaryPath, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing %s: %w", temporaryPath, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing %s: %w", temporaryPath, err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming into %s: %w", path, err)
	}

	// The rename is only durable once the directory entry is flushed.
	parent, err := os.Open(directory)
	if err == nil {
		parent.Sync()
		parent.Close()
	}
	return nil
}
