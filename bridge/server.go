// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/bureau-foundation/bidc/lib/netutil"
)

// Server accepts bridge links for one local window.
type Server struct {
	// Address is "unix:<path>", "tcp:<host:port>", or a bare socket
	// path.
	Address string

	// Local is the window every accepted link attaches to.
	Local Local

	// Config applies to every accepted link. Its Logger is also the
	// server's.
	Config Config

	// Handle is called for each link after the hello exchange and
	// before any of its frames reach Local; it replaces Config.OnOpen.
	// Returning an error refuses the link. The link stays open after
	// Handle returns; Stop closes it.
	Handle func(link *Link) error

	listener net.Listener
	cancel   context.CancelFunc
	done     chan struct{}
	handlers sync.WaitGroup

	mu    sync.Mutex
	links map[*Link]struct{}
}

// Links returns the number of established links.
func (s *Server) Links() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.links)
}

func (s *Server) logger() *slog.Logger {
	if s.Config.Logger != nil {
		return s.Config.Logger
	}
	return slog.Default()
}

// Start binds the listener and begins accepting in the background. It
// returns once the listener is bound.
func (s *Server) Start(ctx context.Context) error {
	if s.Address == "" {
		return errors.New("bridge: Address is required")
	}
	if s.Local == nil {
		return errors.New("bridge: Local is required")
	}

	network, address := netutil.SplitAddress(s.Address)
	listener, err := net.Listen(network, address)
	if err != nil {
		return fmt.Errorf("bridge: failed to listen on %s: %w", s.Address, err)
	}

	s.listener = listener
	s.links = make(map[*Link]struct{})
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.acceptLoop(ctx)
	}()

	s.logger().Info("bridge server started",
		"address", listener.Addr().String(),
		"network", network,
		"window", string(s.Local.ID()),
	)
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and every open link, then waits for the
// accept loop and every link's goroutine to finish.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		s.listener.Close()
	}

	if s.done != nil {
		<-s.done
	}
}

// Wait blocks until the server has stopped.
func (s *Server) Wait() {
	if s.done != nil {
		<-s.done
	}
}

func (s *Server) acceptLoop(ctx context.Context) {
	var connectionCount int64

	for {
		connection, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.handlers.Wait()
				return
			default:
			}
			if netutil.IsExpectedCloseError(err) {
				s.handlers.Wait()
				return
			}
			s.logger().Error("accept failed", "error", err)
			continue
		}

		connectionCount++
		connectionID := connectionCount
		s.handlers.Add(1)
		go func() {
			defer s.handlers.Done()
			s.serve(ctx, connection, connectionID)
		}()
	}
}

func (s *Server) serve(ctx context.Context, connection net.Conn, connectionID int64) {
	config := s.Config
	config.Logger = s.logger().With("connection_id", connectionID)
	if s.Handle != nil {
		config.OnOpen = s.Handle
	}

	link, err := Open(ctx, connection, s.Local, config)
	if err != nil {
		config.Logger.Warn("bridge link not opened",
			"remote_addr", connection.RemoteAddr(),
			"error", err,
		)
		return
	}

	s.mu.Lock()
	s.links[link] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.links, link)
		s.mu.Unlock()
	}()

	select {
	case <-link.Done():
	case <-ctx.Done():
		link.Close()
	}
}

// Dial connects to a bridge server at address and opens a link for
// local.
func Dial(ctx context.Context, address string, local Local, config Config) (*Link, error) {
	network, target := netutil.SplitAddress(address)
	var dialer net.Dialer
	connection, err := dialer.DialContext(ctx, network, target)
	if err != nil {
		return nil, fmt.Errorf("bridge: dialing %s: %w", address, err)
	}
	return Open(ctx, connection, local, config)
}
