// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/bidc/bridge"
	"github.com/bureau-foundation/bidc/channel"
	"github.com/bureau-foundation/bidc/chat"
	"github.com/bureau-foundation/bidc/liveness"
)

// peerSlot gives a chat host to one bridge link at a time. Two dialers
// may declare the same window id, so the link being replaced is closed
// and its already-delivered frames are drained before the next link's
// channel subscribes to that id.
type peerSlot struct {
	host     *chat.Host
	local    channel.Host
	liveness liveness.Config
	logger   *slog.Logger

	mu      sync.Mutex
	current *bridge.Link
}

func newPeerSlot(host *chat.Host, local channel.Host, watch liveness.Config, logger *slog.Logger) *peerSlot {
	if logger == nil {
		logger = slog.Default()
	}
	return &peerSlot{host: host, local: local, liveness: watch, logger: logger}
}

// accept is the bridge.Server Handle: it runs before any frame from
// link reaches the local window.
func (s *peerSlot) accept(link *bridge.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if previous := s.current; previous != nil {
		s.current = nil
		s.logger.Info("new peer replaces the current one",
			"previous", string(previous.RemoteID()),
			"next", string(link.RemoteID()),
		)
		previous.Close()
		if err := s.drain(); err != nil {
			return err
		}
	}

	if err := s.host.Attach(link.Remote()); err != nil {
		return err
	}
	s.current = link
	if err := s.host.Watch(link.Remote(), s.liveness); err != nil {
		s.logger.Warn("peer liveness not watched", "error", err)
	}
	return nil
}

// drain waits until everything queued on the local window so far has
// been dispatched.
func (s *peerSlot) drain() error {
	done := make(chan struct{})
	if err := s.local.Do(func() { close(done) }); err != nil {
		return fmt.Errorf("draining local window: %w", err)
	}
	<-done
	return nil
}
