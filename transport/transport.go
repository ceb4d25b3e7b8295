// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/bureau-foundation/bidc/window"
)

var (
	// ErrPeerUnreachable means the bound peer is known to be gone.
	ErrPeerUnreachable = errors.New("transport: peer unreachable")

	// ErrClosed is returned by an adapter after Close.
	ErrClosed = errors.New("transport: adapter closed")
)

// Peer is a handle to another execution context.
type Peer interface {
	// ID is the source id the peer's traffic is declared with.
	ID() window.ID

	// PostMessage delivers data to the peer as coming from source.
	PostMessage(source window.ID, data []byte) error
}

// Liveness is implemented by peers that know when they are gone for
// good, such as a closed popup.
type Liveness interface {
	Closed() bool
}

// Host is the local execution context.
type Host interface {
	ID() window.ID
	Listen(source window.ID, callback func(window.Message)) (cancel func(), err error)
}

// Compile-time interface checks.
var (
	_ Peer     = (*window.Window)(nil)
	_ Liveness = (*window.Window)(nil)
	_ Host     = (*window.Window)(nil)
)

// Adapter carries raw bytes between a host and one peer.
type Adapter struct {
	host   Host
	peer   Peer
	logger *slog.Logger

	mu       sync.Mutex
	callback func(data []byte)
	cancel   func()
	closed   bool
}

// New binds host to peer. Nothing is registered or sent until Listen
// or Post is called. A nil logger uses slog.Default().
func New(host Host, peer Peer, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	if !isNil(peer) {
		logger = logger.With("peer", string(peer.ID()))
	}
	return &Adapter{host: host, peer: peer, logger: logger}
}

// Peer returns the bound peer handle.
func (a *Adapter) Peer() Peer { return a.peer }

// Unreachable reports whether peer is nil or reports itself closed.
func Unreachable(peer Peer) bool {
	if isNil(peer) {
		return true
	}
	if liveness, ok := peer.(Liveness); ok {
		return liveness.Closed()
	}
	return false
}

// Post sends data to the peer with the host's id as the declared
// source.
func (a *Adapter) Post(data []byte) error {
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if Unreachable(a.peer) {
		return fmt.Errorf("posting to %s: %w", peerName(a.peer), ErrPeerUnreachable)
	}
	if err := a.peer.PostMessage(a.host.ID(), data); err != nil {
		if errors.Is(err, window.ErrClosed) || errors.Is(err, ErrPeerUnreachable) {
			return fmt.Errorf("posting to %s: %w", peerName(a.peer), ErrPeerUnreachable)
		}
		return fmt.Errorf("posting to %s: %w", peerName(a.peer), err)
	}
	return nil
}

// Listen makes callback the receiver of everything the host gets from
// the peer. The first call registers with the host; later calls only
// replace the callback. The callback runs on the host's event loop.
func (a *Adapter) Listen(callback func(data []byte)) error {
	if isNil(a.peer) {
		return fmt.Errorf("listening: %w", ErrPeerUnreachable)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	a.callback = callback
	if a.cancel != nil {
		return nil
	}

	cancel, err := a.host.Listen(a.peer.ID(), a.deliver)
	if err != nil {
		a.callback = nil
		return fmt.Errorf("listening for %s on %s: %w", a.peer.ID(), a.host.ID(), err)
	}
	a.cancel = cancel
	return nil
}

func (a *Adapter) deliver(message window.Message) {
	a.mu.Lock()
	callback := a.callback
	a.mu.Unlock()
	if callback == nil {
		return
	}
	callback(message.Data)
}

// Close removes the host subscription. Later Post and Listen calls fail
// with ErrClosed. Close is idempotent.
func (a *Adapter) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	cancel := a.cancel
	a.cancel = nil
	a.callback = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	a.logger.Debug("transport adapter closed")
}

func peerName(peer Peer) string {
	if isNil(peer) {
		return "<nil peer>"
	}
	return string(peer.ID())
}

// isNil catches both a nil interface and an interface holding a nil
// pointer, which is what a caller gets from a window that was never
// opened.
func isNil(peer Peer) bool {
	if peer == nil {
		return true
	}
	value := reflect.ValueOf(peer)
	return value.Kind() == reflect.Pointer && value.IsNil()
}
