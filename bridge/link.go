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
	"time"

	"github.com/bureau-foundation/bidc/lib/config"
	"github.com/bureau-foundation/bidc/lib/netutil"
	"github.com/bureau-foundation/bidc/transport"
	"github.com/bureau-foundation/bidc/window"
)

var (
	// ErrLinkClosed is returned when posting over a link that either
	// side has closed. It is always paired with
	// transport.ErrPeerUnreachable.
	ErrLinkClosed = errors.New("bridge: link closed")

	// ErrHandshake means the hello exchange failed or was refused.
	ErrHandshake = errors.New("bridge: handshake failed")
)

// Defaults applied to zero Config fields.
const (
	DefaultCompressThreshold = 1024
	DefaultMaxFrameSize      = 1 << 20
	DefaultHandshakeTimeout  = 5 * time.Second
)

// Local is the window on this side of a link.
type Local interface {
	ID() window.ID
	PostMessage(source window.ID, data []byte) error
}

// Config tunes a link. Zero fields take the package defaults.
type Config struct {
	// Logger receives link lifecycle records. Nil uses slog.Default().
	Logger *slog.Logger

	Compression       Compression
	CompressThreshold int
	MaxFrameSize      int

	// HandshakeTimeout bounds the hello exchange and the final bye
	// write on Close.
	HandshakeTimeout time.Duration

	// OnOpen runs after the hello exchange and before any frame is
	// delivered to the local window, so listeners it registers see the
	// peer's first message. Posts to link.Remote() are queued until the
	// link starts. An error refuses the link. OnOpen must not call
	// link.Close.
	OnOpen func(link *Link) error
}

// FromConfig builds a link Config from the bridge section of a bidc
// configuration file.
func FromConfig(section config.BridgeConfig, logger *slog.Logger) (Config, error) {
	compression, err := ParseCompression(section.Compression)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Logger:            logger,
		Compression:       compression,
		CompressThreshold: section.CompressThreshold,
		MaxFrameSize:      section.MaxFrameSize,
		HandshakeTimeout:  section.HandshakeTimeout,
	}, nil
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.CompressThreshold <= 0 {
		c.CompressThreshold = DefaultCompressThreshold
	}
	if c.MaxFrameSize <= 0 {
		c.MaxFrameSize = DefaultMaxFrameSize
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	return c
}

// Link joins a local window to a window in another process.
type Link struct {
	conn     net.Conn
	local    Local
	remoteID window.ID
	codec    frameCodec
	config   Config
	logger   *slog.Logger
	remote   *Remote

	mu      sync.Mutex
	queue   [][]byte
	closing bool // Close called; bye queued
	closed  bool // no more posts accepted
	err     error
	wake    chan struct{}

	loops sync.WaitGroup
	done  chan struct{}
}

// Open performs the hello exchange on conn and starts moving messages.
// The link owns conn from here on, including when Open fails.
func Open(ctx context.Context, conn net.Conn, local Local, config Config) (*Link, error) {
	config = config.withDefaults()
	link := &Link{
		conn:  conn,
		local: local,
		codec: frameCodec{
			compression: config.Compression,
			threshold:   config.CompressThreshold,
			maxSize:     config.MaxFrameSize,
		},
		config: config,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	link.remote = &Remote{link: link}

	remoteID, err := link.handshake(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}
	link.remoteID = remoteID
	link.logger = config.Logger.With(
		"local_window", string(local.ID()),
		"remote_window", string(remoteID),
	)

	if config.OnOpen != nil {
		if err := config.OnOpen(link); err != nil {
			conn.Close()
			return nil, fmt.Errorf("bridge: link from %s refused: %w", remoteID, err)
		}
	}

	link.loops.Add(2)
	go link.readLoop()
	go link.writeLoop()
	go func() {
		link.loops.Wait()
		close(link.done)
	}()

	link.logger.Info("bridge link established",
		"remote_addr", conn.RemoteAddr(),
		"compression", config.Compression,
	)
	return link, nil
}

func (l *Link) handshake(ctx context.Context) (window.ID, error) {
	deadline := time.Now().Add(l.config.HandshakeTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := l.conn.SetDeadline(deadline); err != nil {
		return "", fmt.Errorf("%w: setting deadline: %w", ErrHandshake, err)
	}
	stop := context.AfterFunc(ctx, func() { l.conn.SetDeadline(time.Now()) })
	defer stop()

	hello, err := l.codec.encode(frame{Kind: frameHello, Version: ProtocolVersion, Window: l.local.ID()})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrHandshake, err)
	}

	// Both sides write first, so the write must not wait for the read
	// on a synchronous connection.
	written := make(chan error, 1)
	go func() {
		_, err := l.conn.Write(hello)
		written <- err
	}()

	reply, readErr := l.codec.read(l.conn)
	writeErr := <-written
	if readErr != nil {
		return "", fmt.Errorf("%w: reading hello: %w", ErrHandshake, readErr)
	}
	if writeErr != nil {
		return "", fmt.Errorf("%w: writing hello: %w", ErrHandshake, writeErr)
	}
	if reply.Kind != frameHello {
		return "", fmt.Errorf("%w: expected hello, got %q", ErrHandshake, reply.Kind)
	}
	if reply.Version != ProtocolVersion {
		return "", fmt.Errorf("%w: protocol version %d, want %d", ErrHandshake, reply.Version, ProtocolVersion)
	}
	if reply.Window == "" {
		return "", fmt.Errorf("%w: hello without window id", ErrHandshake)
	}

	if err := l.conn.SetDeadline(time.Time{}); err != nil {
		return "", fmt.Errorf("%w: clearing deadline: %w", ErrHandshake, err)
	}
	return reply.Window, nil
}

// Remote returns the peer handle for the far window.
func (l *Link) Remote() *Remote { return l.remote }

// RemoteID returns the far window's id.
func (l *Link) RemoteID() window.ID { return l.remoteID }

// Closed reports whether the link no longer carries messages.
func (l *Link) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Done is closed once the link's goroutines have exited.
func (l *Link) Done() <-chan struct{} { return l.done }

// Err returns the error that ended the link, or nil for an orderly
// close by either side.
func (l *Link) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Close sends a bye frame after any queued messages and tears the link
// down. Close waits for the link's goroutines and is idempotent.
func (l *Link) Close() error {
	bye, err := l.codec.encode(frame{Kind: frameBye})
	if err != nil {
		return err
	}

	l.mu.Lock()
	if !l.closed {
		l.closed = true
		l.closing = true
		l.queue = append(l.queue, bye)
	}
	l.mu.Unlock()
	l.signal()

	<-l.done
	return nil
}

func (l *Link) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Link) post(source window.ID, data []byte) error {
	wire, err := l.codec.encode(frame{Kind: frameMessage, Source: source, Data: data})
	if err != nil {
		return err
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrLinkClosed, transport.ErrPeerUnreachable)
	}
	l.queue = append(l.queue, wire)
	l.mu.Unlock()
	l.signal()
	return nil
}

// shutdown ends the link without a bye. The first non-nil cause is
// kept for Err.
func (l *Link) shutdown(cause error) {
	l.mu.Lock()
	l.closed = true
	l.queue = nil
	if l.err == nil {
		l.err = cause
	}
	l.mu.Unlock()

	l.conn.Close()
	l.signal()
}

func (l *Link) writeLoop() {
	defer l.loops.Done()

	for {
		<-l.wake

		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		closing := l.closing
		closed := l.closed
		l.mu.Unlock()

		if closing {
			l.conn.SetWriteDeadline(time.Now().Add(l.config.HandshakeTimeout))
		}
		for _, wire := range batch {
			if _, err := l.conn.Write(wire); err != nil {
				if !netutil.IsExpectedCloseError(err) {
					l.logger.Warn("bridge write failed", "error", err)
					l.shutdown(fmt.Errorf("writing frame: %w", err))
				} else {
					l.shutdown(nil)
				}
				return
			}
		}

		if closed {
			if closing {
				l.logger.Info("bridge link closed locally")
			}
			l.shutdown(nil)
			return
		}
	}
}

func (l *Link) readLoop() {
	defer l.loops.Done()

	for {
		f, err := l.codec.read(l.conn)
		if err != nil {
			if netutil.IsExpectedCloseError(err) || l.Closed() {
				l.shutdown(nil)
			} else {
				l.logger.Warn("bridge read failed", "error", err)
				l.shutdown(fmt.Errorf("reading frame: %w", err))
			}
			return
		}

		switch f.Kind {
		case frameMessage:
			if f.Source != l.remoteID {
				l.logger.Debug("dropping message with foreign source", "source", string(f.Source))
				continue
			}
			if err := l.local.PostMessage(f.Source, f.Data); err != nil {
				l.logger.Info("local window gone, closing link", "error", err)
				l.shutdown(nil)
				return
			}
		case frameBye:
			l.logger.Info("bridge link closed by remote")
			l.shutdown(nil)
			return
		default:
			l.logger.Debug("ignoring unexpected frame", "kind", string(f.Kind))
		}
	}
}

// Remote is the peer handle for the window at the far end of a link.
type Remote struct {
	link *Link
}

// Compile-time interface checks.
var (
	_ transport.Peer     = (*Remote)(nil)
	_ transport.Liveness = (*Remote)(nil)
)

// ID returns the far window's id.
func (r *Remote) ID() window.ID { return r.link.remoteID }

// PostMessage queues data for the far window. It never waits for the
// network.
func (r *Remote) PostMessage(source window.ID, data []byte) error {
	return r.link.post(source, data)
}

// Closed reports whether the link has ended.
func (r *Remote) Closed() bool { return r.link.Closed() }
