// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for bidc packages.
//
// [RequireReceive], [RequireClosed], and [RequireNoReceive] wrap the
// select-with-deadline pattern so tests waiting on a window's event loop
// never hang and never call time.After themselves. These are the only
// wall-clock timeouts in the test suite; protocol timeouts are driven
// by lib/clock.Fake.
//
// [SocketDir] returns a short temporary directory for Unix sockets,
// whose paths are limited to 108 bytes.
//
// [UniqueID] returns "prefix-N" identifiers for window names and message
// bodies that must not collide between tests.
package testutil
