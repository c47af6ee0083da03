// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package connector owns quietmic's routing state: which microphone is
// looped into the noise-suppression filter chain, and whether the
// filter output is looped to the speakers for a self-test.
//
// The audio server offers no transactions. Everything the connector
// knows comes from scraping pactl output, and the server's module
// table can change underneath it at any time. The connector therefore
// re-reads the module table whenever a decision depends on it, and
// treats module ids as meaningless after a service restart.
//
// [Connector.ApplySettings] is the central protocol. Changing the
// filter parameters requires restarting PipeWire, which destroys every
// loopback. ApplySettings snapshots the routed device from the module
// table, rewrites the filter-chain document, restarts the service, and
// replays the routing edge against a fresh device listing. The device
// being replayed is journaled (see package journal) so an apply that
// dies mid-restart can be finished by [Connector.Recover].
//
// A Connector holds no locks and supports one operation at a time.
// Callers that may issue operations concurrently submit them through a
// [Queue].
package connector
