// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package window is the page-level runtime that channels run on.
//
// A [Window] stands in for one browser execution context: a top-level
// page, an embedded frame, or a popup. Each window owns a single
// dispatch goroutine that runs delivered messages and scheduled tasks
// one at a time in FIFO order, the same way a page's event loop does.
// Code running on a window never races with other code on that window.
//
// [Window.PostMessage] is the only way to reach another window. It
// copies the data, never blocks, and fails with [ErrClosed] once the
// target has been closed. Delivered messages carry the declared source
// window id.
//
// Inbound traffic is routed through an explicit subscription table
// keyed by source id: [Window.Listen] registers the one callback that
// receives messages from a given source, and the returned cancel
// function removes it. Messages from a source with no listener are
// dropped. There is no process-wide "message" event.
//
// A [Browser] creates windows and records their relationships: frames
// embedded in a window ([Window.Embed], [Window.Parent]) and popups it
// opened ([Window.OpenPopup], [Window.Opener]). Closing a window closes
// its frames; popups outlive their opener.
package window
