// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge carries window messages between processes.
//
// A [Link] joins a local window to a window in another process over a
// stream connection (Unix or TCP socket). [Link.Remote] returns a peer
// handle for the far window, so a channel can be opened to it exactly as
// to a frame or popup in the same process. Messages arriving from the
// far side are posted into the local window with the far window's id as
// their declared source.
//
// On the wire every frame is a 4-byte big-endian body length, a 1-byte
// compression tag, and a CBOR body. Bodies at or above the configured
// threshold are zstd-compressed when that makes them smaller. A link
// starts with a hello exchange naming both windows and ends with a bye
// frame; after either side closes, the remote handle reports Closed and
// posts fail with [ErrLinkClosed] and transport.ErrPeerUnreachable.
//
// [Server] accepts links on a listening socket and [Dial] opens one.
package bridge
