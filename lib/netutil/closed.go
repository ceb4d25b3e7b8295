// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds small helpers shared by socket code.
package netutil

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// IsExpectedCloseError reports whether err is an ordinary end of a
// connection: EOF, use of a closed connection, broken pipe, or reset.
// A bridge link sees these whenever the other process exits or closes
// its window; they are not worth logging as errors.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}

// SplitAddress splits "network:address" (for example "unix:/tmp/x.sock"
// or "tcp:127.0.0.1:7000") into its parts. An address without a known
// network prefix is treated as a Unix socket path.
func SplitAddress(value string) (network, address string) {
	for _, candidate := range []string{"unix", "tcp", "tcp4", "tcp6"} {
		prefix := candidate + ":"
		if len(value) > len(prefix) && value[:len(prefix)] == prefix {
			return candidate, value[len(prefix):]
		}
	}
	return "unix", value
}
