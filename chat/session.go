// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bureau-foundation/bidc/channel"
	"github.com/bureau-foundation/bidc/liveness"
	"github.com/bureau-foundation/bidc/transport"
	"github.com/bureau-foundation/bidc/window"
)

var (
	// ErrEmpty is returned by Say for blank input.
	ErrEmpty = errors.New("chat: empty message")

	// ErrDetached is returned by Say when no peer is attached.
	ErrDetached = errors.New("chat: no peer attached")

	// ErrNoPeer means a guest window has no parent or opener to talk
	// to.
	ErrNoPeer = errors.New("chat: window has no peer")
)

// Config is shared by hosts and guests.
type Config struct {
	// Logger is passed to channels as well. Nil uses slog.Default().
	Logger *slog.Logger

	// Channel configures every channel the session opens. Its Logger
	// is replaced by Logger.
	Channel channel.Config

	// OnChange runs after the log or the connected state changes. It
	// may run on any goroutine, including a window's event loop, and
	// must not block.
	OnChange func()
}

// state is what hosts and guests have in common.
type state struct {
	log      Log
	logger   *slog.Logger
	onChange func()

	mu        sync.Mutex
	channel   *channel.Channel
	connected bool
}

func (s *state) init(config Config) {
	s.logger = config.Logger
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.onChange = config.OnChange
}

func (s *state) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Connected reports whether the peer has been seen.
func (s *state) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Messages returns the log in arrival order.
func (s *state) Messages() []Message { return s.log.Messages() }

func (s *state) setConnected(connected bool) {
	s.mu.Lock()
	changed := s.connected != connected
	s.connected = connected
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// Say trims text, appends it to the log as ours, and sends it. The
// returned call completes when the peer acknowledges.
func (s *state) Say(text string) (*channel.Call, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmpty
	}
	s.mu.Lock()
	ch := s.channel
	s.mu.Unlock()
	if ch == nil {
		return nil, ErrDetached
	}

	s.log.Append(text, FromMe)
	s.notify()
	return ch.Go(Payload{Type: TypeMessage, Message: text}), nil
}

// handle is the chat handler on both sides. Only hosts pay attention
// to the connected announcement.
func (s *state) handle(announce bool) channel.Handler {
	return func(ctx context.Context, value channel.Value) (any, error) {
		var payload Payload
		if err := value.Decode(&payload); err != nil {
			return nil, fmt.Errorf("decoding chat payload: %w", err)
		}
		switch payload.Type {
		case TypeConnected:
			if announce {
				s.setConnected(true)
			}
		case TypeMessage:
			if payload.Message != "" {
				s.log.Append(payload.Message, FromPeer)
				s.notify()
			}
		default:
			s.logger.Debug("ignoring chat payload", "type", string(payload.Type))
		}
		return Ack{OK: true}, nil
	}
}

func openChannel(host channel.Host, peer transport.Peer, config Config, logger *slog.Logger) (*channel.Channel, error) {
	channelConfig := config.Channel
	channelConfig.Logger = logger
	return channel.Open(host, peer, channelConfig)
}

// Host is the embedding side of a chat.
type Host struct {
	state
	window channel.Host
	config Config

	// watcher polls the attached peer, if Watch was called.
	watcher *liveness.Watcher
}

// NewHost creates a host on w with no peer attached.
func NewHost(w channel.Host, config Config) *Host {
	host := &Host{window: w, config: config}
	host.init(config)
	return host
}

// Attach opens a channel to peer, replacing any earlier attachment.
// The log is kept; the connected flag starts over.
func (h *Host) Attach(peer transport.Peer) error {
	h.Detach()

	ch, err := openChannel(h.window, peer, h.config, h.logger)
	if err != nil {
		return fmt.Errorf("attaching chat host: %w", err)
	}
	ch.Receive(h.handle(true))

	h.mu.Lock()
	h.channel = ch
	h.mu.Unlock()
	h.logger.Info("chat host attached", "peer", string(peer.ID()))
	h.notify()
	return nil
}

// Attached reports whether a peer is attached.
func (h *Host) Attached() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.channel != nil
}

// Watch polls peer and detaches when it closes. It applies to the
// current attachment only.
func (h *Host) Watch(peer transport.Liveness, config liveness.Config) error {
	h.mu.Lock()
	attached := h.channel
	h.mu.Unlock()
	if attached == nil {
		return ErrDetached
	}

	config.OnClosed = func() {
		h.logger.Info("chat peer closed")
		h.release(attached, false)
	}
	if config.Logger == nil {
		config.Logger = h.logger
	}
	watcher, err := liveness.Watch(peer, config)
	if err != nil {
		return fmt.Errorf("watching chat peer: %w", err)
	}

	h.mu.Lock()
	previous := h.watcher
	h.watcher = watcher
	h.mu.Unlock()
	if previous != nil {
		previous.Stop()
	}
	return nil
}

// Detach closes the channel to the current peer. The log is kept.
func (h *Host) Detach() {
	h.mu.Lock()
	ch := h.channel
	h.mu.Unlock()
	if ch != nil {
		h.release(ch, true)
	}
}

// release drops ch if it is still the attachment. stopWatcher is false
// when called from the watcher itself.
func (h *Host) release(ch *channel.Channel, stopWatcher bool) {
	h.mu.Lock()
	if h.channel != ch {
		h.mu.Unlock()
		return
	}
	h.channel = nil
	h.connected = false
	watcher := h.watcher
	h.watcher = nil
	h.mu.Unlock()

	ch.Close()
	if watcher != nil && stopWatcher {
		watcher.Stop()
	}
	h.notify()
}

// Guest is the embedded side of a chat.
type Guest struct {
	state
	cancel context.CancelFunc
	done   chan struct{}
}

// NewGuest opens a channel from w to peer, installs the handler, and
// announces itself. The guest becomes connected when the announcement
// is acknowledged.
func NewGuest(w channel.Host, peer transport.Peer, config Config) (*Guest, error) {
	guest := &Guest{done: make(chan struct{})}
	guest.init(config)
	ch, err := openChannel(w, peer, config, guest.logger)
	if err != nil {
		return nil, fmt.Errorf("starting chat guest: %w", err)
	}
	ch.Receive(guest.handle(false))
	guest.channel = ch

	ctx, cancel := context.WithCancel(context.Background())
	guest.cancel = cancel
	announcement := ch.Go(Payload{Type: TypeConnected})
	go func() {
		defer close(guest.done)
		if _, err := announcement.Wait(ctx); err != nil {
			if ctx.Err() == nil {
				guest.logger.Warn("chat announcement failed", "error", err)
			}
			return
		}
		guest.setConnected(true)
	}()
	return guest, nil
}

// FrameGuest starts a guest in a frame, talking to its parent.
func FrameGuest(w *window.Window, config Config) (*Guest, error) {
	parent := w.Parent()
	if parent == nil || parent == w {
		return nil, fmt.Errorf("%w: %s is not embedded", ErrNoPeer, w.ID())
	}
	return NewGuest(w, parent, config)
}

// PopupGuest starts a guest in a popup, talking to its opener.
func PopupGuest(w *window.Window, config Config) (*Guest, error) {
	opener := w.Opener()
	if opener == nil {
		return nil, fmt.Errorf("%w: %s has no opener", ErrNoPeer, w.ID())
	}
	return NewGuest(w, opener, config)
}

// Close stops the guest and closes its channel.
func (g *Guest) Close() {
	g.cancel()
	g.mu.Lock()
	ch := g.channel
	g.channel = nil
	g.mu.Unlock()
	if ch != nil {
		ch.Close()
	}
	<-g.done
}
