// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads and saves quietmic's settings.
//
// Settings live in a single file named by the QUIETMIC_CONFIG
// environment variable, the --config flag, or, failing both,
// ~/.config/quietmic/settings.yaml. A missing default file is not an
// error: a fresh install runs on [Default]. A file named explicitly
// must exist.
//
// Files ending in .json or .jsonc are parsed as JSON with comments and
// trailing commas; anything else is YAML. [Save] writes the format the
// extension selects, atomically.
//
// ${HOME}, ${VAR:-default} and a leading "~/" are expanded in path
// fields after loading.
package config
