// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"errors"
	"fmt"
)

var (
	// ErrSendFailed means the payload never left this window. The
	// error also wraps the transport cause, typically
	// transport.ErrPeerUnreachable.
	ErrSendFailed = errors.New("channel: send failed")

	// ErrClosed is returned by calls on, and pending calls of, a
	// closed channel.
	ErrClosed = errors.New("channel: closed")

	// ErrTimeout fails a call whose acknowledgement did not arrive
	// within Config.AckTimeout.
	ErrTimeout = errors.New("channel: acknowledgement timed out")
)

// backlogFullMessage is sent as the acknowledgement error when a
// payload arrives with no handler and no room to hold it.
const backlogFullMessage = "no handler registered and backlog full"

// RemoteError is the failure reported by the peer's handler.
//
//	var remote *channel.RemoteError
//	if errors.As(err, &remote) { ... remote.Message ... }
type RemoteError struct {
	// ID is the correlation id of the failed send.
	ID uint64

	// Message is the handler's error text.
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("channel: remote handler failed for message %d: %s", e.ID, e.Message)
}
