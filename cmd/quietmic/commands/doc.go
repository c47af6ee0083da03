// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the quietmic command tree.
//
// Every command opens a [session]: it loads settings, wires the
// connector to pactl and systemctl, and adopts whatever loopbacks an
// earlier invocation left in the audio server. Commands that change
// routing also take the CLI lock and run their work through a
// connector.Queue.
package commands
