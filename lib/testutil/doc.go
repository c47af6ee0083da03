// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds shared test helpers.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern used when a test drives an operation running on another
// goroutine (a connector queue, or an apply blocked on a fake clock).
// They are the only place the test suite waits on wall-clock time.
package testutil
