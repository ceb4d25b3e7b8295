// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chat is the demo application built on channels: two windows
// exchange short text messages and show whether they are connected.
//
// The embedding side runs a [Host]. It registers its handler first and
// counts as connected once the guest announces itself with a
// {type: "connected"} payload. The embedded side (a frame or a popup)
// runs a [Guest], which sends that announcement on start and counts as
// connected once it is acknowledged. Every payload is acknowledged with
// {ok: true}.
//
// Each side keeps a [Log] of messages in arrival order. Sending echoes
// the trimmed text into the local log before the send completes; blank
// input is not sent.
//
// A Host can be detached and re-attached to a new peer, which is how the
// popup dialog is closed and opened again. [Host.Watch] polls a popup
// and detaches when it closes.
package chat
