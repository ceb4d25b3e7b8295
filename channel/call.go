// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"context"
	"sync"

	"github.com/bureau-foundation/bidc/lib/clock"
)

// Call is one send awaiting its acknowledgement.
type Call struct {
	id   uint64
	done chan struct{}
	once sync.Once

	// timer is set under the channel lock before the call is
	// published, and is nil without an ack timeout.
	timer *clock.Timer

	reply Value
	err   error
}

func newCall(id uint64) *Call {
	return &Call{id: id, done: make(chan struct{})}
}

func failedCall(err error) *Call {
	call := newCall(0)
	call.complete(Value{}, err)
	return call
}

// ID returns the correlation id, or zero if the call failed before one
// was allocated.
func (call *Call) ID() uint64 { return call.id }

// Done is closed when the call completes.
func (call *Call) Done() <-chan struct{} { return call.done }

// Reply returns the acknowledgement value. Valid after Done is closed.
func (call *Call) Reply() Value {
	<-call.done
	return call.reply
}

// Err returns the failure, if any. Valid after Done is closed.
func (call *Call) Err() error {
	<-call.done
	return call.err
}

// Wait blocks until the call completes or ctx is done. Abandoning the
// wait does not cancel the call.
func (call *Call) Wait(ctx context.Context) (Value, error) {
	select {
	case <-call.done:
		return call.reply, call.err
	case <-ctx.Done():
		return Value{}, ctx.Err()
	}
}

func (call *Call) complete(reply Value, err error) {
	call.once.Do(func() {
		if call.timer != nil {
			call.timer.Stop()
		}
		call.reply = reply
		call.err = err
		close(call.done)
	})
}
