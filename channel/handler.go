// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"context"
	"sync"
)

// Handler processes one inbound payload. Its return value is encoded
// and sent back as the acknowledgement; a non-nil error is sent back
// instead and fails the sender's call with a RemoteError. Returning a
// *Deferred postpones the acknowledgement until the Deferred is
// resolved.
//
// ctx is cancelled when the channel is closed.
type Handler func(ctx context.Context, payload Value) (any, error)

// Deferred is a handler result that is not known yet.
//
//	ch.Receive(func(ctx context.Context, payload channel.Value) (any, error) {
//	    deferred := channel.NewDeferred()
//	    go func() { deferred.Resolve(lookup(payload)) }()
//	    return deferred, nil
//	})
type Deferred struct {
	mu       sync.Mutex
	resolved bool
	value    any
	err      error
	settle   func(value any, err error)
}

// NewDeferred returns an unresolved Deferred.
func NewDeferred() *Deferred { return &Deferred{} }

// Resolve settles the Deferred. Only the first call has any effect.
func (d *Deferred) Resolve(value any, err error) {
	d.mu.Lock()
	if d.resolved {
		d.mu.Unlock()
		return
	}
	d.resolved = true
	d.value, d.err = value, err
	settle := d.settle
	d.mu.Unlock()

	if settle != nil {
		settle(value, err)
	}
}

// then arranges for settle to run once the Deferred resolves, right
// away if it already has.
func (d *Deferred) then(settle func(value any, err error)) {
	d.mu.Lock()
	if !d.resolved {
		d.settle = settle
		d.mu.Unlock()
		return
	}
	value, err := d.value, d.err
	d.mu.Unlock()
	settle(value, err)
}
