// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package execrun

import (
	"strings"
	"time"
)

// Command is one external invocation.
type Command struct {
	// Name is the executable, resolved through PATH.
	Name string

	// Args are passed verbatim as argv[1:].
	Args []string

	// Timeout bounds the run. Zero means the runner's default.
	Timeout time.Duration
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is the outcome of one Command. It is a value; nothing retains
// it after the caller is done.
type Result struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
}

// Succeeded reports whether the command exited with status zero.
func (r Result) Succeeded() bool {
	return r.ExitCode == 0
}

// TrimmedStdout returns Stdout without surrounding whitespace. pactl
// prints module ids and sink names followed by a newline.
func (r Result) TrimmedStdout() string {
	return strings.TrimSpace(r.Stdout)
}
