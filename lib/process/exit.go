// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"io"
	"os"
)

// Fatal writes "quietmic: err" to stderr and exits with status 1.
func Fatal(err error) {
	report(os.Stderr, err)
	os.Exit(1)
}

func report(w io.Writer, err error) {
	fmt.Fprintf(w, "quietmic: %v\n", err)
}
