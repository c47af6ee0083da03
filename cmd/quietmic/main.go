// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// quietmic routes a microphone through DeepFilterNet noise suppression
// on a PipeWire desktop.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/quietmic/cmd/quietmic/commands"
	"github.com/bureau-foundation/quietmic/lib/process"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own verdict (status --exit-code)
		// return an error carrying the exit status and nothing to print.
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		process.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return commands.Root().Execute(ctx, os.Args[1:])
}
