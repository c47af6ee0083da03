// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package journal records the routing edge that an apply is about to
// tear down, so that an apply interrupted between the service restart
// and the reconnect can be finished later.
//
// The workflow:
//
//  1. Before disconnecting the suppression edge, call [Write] with the
//     source device and the module id being replaced.
//  2. Restart the audio service and reconnect the source.
//  3. On a successful reconnect, call [Clear].
//  4. If the process dies first, the next run calls [Check], finds a
//     fresh entry, and reconnects the journaled source.
//
// Entries are written atomically and carry a timestamp. [Check]
// discards entries older than a maximum age so a leftover file from
// last week never reroutes a microphone.
package journal
