// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package devices maintains the catalog of capture devices a user can
// route into the noise filter.
//
// The catalog is built by scraping the long form of "pactl list
// sources". Records the parser cannot make sense of are skipped rather
// than reported: pactl output carries plenty of fields quietmic does
// not care about, and a record without a name or description is not a
// device anyone could select. Monitor sources (the loopback taps pactl
// creates for every output) and the filter chain's own endpoints are
// excluded so the user is never offered quietmic's plumbing as a
// microphone.
//
// A [Catalog] is a snapshot. [Catalog.Refresh] replaces it wholesale
// on success and leaves it untouched on failure.
package devices
