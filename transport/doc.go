// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport binds a local window to one peer handle.
//
// A [Peer] is anything that can be posted to: a [window.Window] in the
// same process, or the remote proxy a bridge link exposes. A [Host] is
// the local side, the window whose subscription table receives the
// peer's traffic. An [Adapter] joins the two and gives the channel layer
// a uniform Post/Listen pair regardless of whether the peer is a frame,
// a popup, an opener, or a window in another process.
//
// Listen registers with the host's subscription table under the peer's
// id, so an adapter only ever sees bytes the host received from its own
// peer. Two adapters on one host bound to different peers never see
// each other's traffic.
//
// Post fails with an error wrapping [ErrPeerUnreachable] when the peer
// handle is nil, reports itself closed, or rejects the post because it
// is gone. Otherwise posting is fire-and-forget: success means the peer
// accepted the bytes, not that anything handled them.
package transport
