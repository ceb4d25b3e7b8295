// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Two things in bidc depend on time: the optional acknowledgement
// timeout on a channel, and the liveness watcher that polls whether a
// popup has been closed. Both take a [Clock] instead of calling the time
// package, so tests drive them with [Fake] and never sleep:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	watcher := liveness.Watch(peer, liveness.Options{Clock: fake, ...})
//	fake.WaitForTimers(1)
//	fake.Advance(500 * time.Millisecond)
//
// WaitForTimers closes the race between a goroutine registering its
// timer and the test advancing time past it.
package clock
