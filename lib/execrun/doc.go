// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package execrun runs external control commands (pactl, systemctl)
// and captures their output.
//
// A failed command is data, not an error: [Runner.Run] always returns a
// [Result], and timeouts or spawn failures are folded into a non-zero
// exit status with a descriptive stderr. Callers decide what a failure
// means. Commands are passed as an argv vector and never go through a
// shell, so device names containing shell metacharacters are safe.
//
// [Scripted] is a programmable Runner for tests.
package execrun
