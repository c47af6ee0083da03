// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for quietmic.
//
// The central type is [Command]: a named command with optional nested
// [Command.Subcommands], a [pflag.FlagSet] factory, and a Run function.
// [Command.Execute] handles flag parsing, subcommand routing, and help
// output. Unknown commands and flags get a Levenshtein-based "did you
// mean" suggestion.
//
// Flags are usually declared as tagged struct fields and bound with
// [FlagsFromParams]. Embedding [JSONOutput] adds --json.
//
// Mutating commands hold a [Lock] so that two quietmic processes never
// edit the audio server's module table at the same time.
package cli
