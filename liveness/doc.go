// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package liveness watches a peer for permanent disappearance.
//
// A channel never learns on its own that its peer is gone: posts to a
// closed popup fail, but a quiet peer and a dead one look the same. The
// layer above the channel runs a [Watcher] that polls the peer's
// Closed method on a fixed interval and reports the first time it
// returns true. The watcher fires at most once and then exits.
package liveness
