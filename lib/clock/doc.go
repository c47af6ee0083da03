// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Components that wait on the audio control plane (the restart settle
// poll, command timeouts, journal staleness) take a Clock instead of
// calling the time package directly. Production code passes Real();
// tests pass Fake() and step time forward with Advance:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go controller.RestartService(ctx)
//	c.WaitForTimers(1)
//	c.Advance(250 * time.Millisecond)
package clock
