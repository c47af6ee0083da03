// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError requests a non-zero exit status without an error message.
// The command has already written whatever the user needs to see; a
// non-zero status is a valid answer (e.g. "status --exit-code" when no
// microphone is routed).
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the requested status. main checks for this method
// to tell a handled exit from an error to print.
func (e *ExitError) ExitCode() int {
	return e.Code
}
