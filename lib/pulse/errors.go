// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pulse

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/quietmic/lib/execrun"
)

// CommandError is a control command that exited non-zero. Its message
// is the command's own stderr, so what the user sees is exactly what
// pactl or systemctl said.
type CommandError struct {
	Result execrun.Result
}

func (e *CommandError) Error() string {
	message := strings.TrimSpace(e.Result.Stderr)
	if message == "" {
		return fmt.Sprintf("%s exited with status %d", e.Result.Command, e.Result.ExitCode)
	}
	return message
}

// Stderr returns the command's stderr without surrounding whitespace.
func (e *CommandError) Stderr() string {
	return strings.TrimSpace(e.Result.Stderr)
}

// ResultError returns nil for a successful result and a *CommandError
// otherwise.
func ResultError(result execrun.Result) error {
	if result.Succeeded() {
		return nil
	}
	return &CommandError{Result: result}
}
