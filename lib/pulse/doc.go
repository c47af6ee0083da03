// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pulse is a typed interface to the PipeWire/PulseAudio
// control plane. Each method of [Controller] issues one control verb
// through an [execrun.Runner] and returns the raw [execrun.Result]:
// pactl for queries and module loading, systemctl --user for the
// service restart.
//
// The controller is stateless. It builds command lines and knows how
// long to wait after a restart; interpreting module tables and device
// listings is left to the devices and connector packages so that
// output-format drift stays in one place.
//
// A restart tears down every module in the server, and the server
// takes a moment to come back. [Controller.RestartService] does not
// return until the filter-chain node is visible again (or an upper
// bound passes), so callers can issue queries immediately afterwards.
package pulse
