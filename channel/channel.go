// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/bidc/lib/clock"
	"github.com/bureau-foundation/bidc/lib/codec"
	"github.com/bureau-foundation/bidc/transport"
	"github.com/bureau-foundation/bidc/window"
)

// DefaultBacklog is the number of payloads held while no handler is
// registered, when Config.Backlog is zero.
const DefaultBacklog = 256

// Host is the local window a channel runs on. Handlers and dispatch run
// on its event loop.
type Host interface {
	transport.Host

	// Do schedules fn on the host's event loop.
	Do(fn func()) error
}

var _ Host = (*window.Window)(nil)

// Config tunes a channel. The zero value is the baseline behavior:
// no acknowledgement timeout and the default backlog.
type Config struct {
	// Logger receives per-envelope debug records and lifecycle info.
	// Nil uses slog.Default().
	Logger *slog.Logger

	// Clock drives AckTimeout. Nil uses clock.Real().
	Clock clock.Clock

	// AckTimeout fails a call with ErrTimeout when no acknowledgement
	// arrives in time. Zero waits until Close.
	AckTimeout time.Duration

	// Backlog bounds payloads held while no handler is registered.
	// Zero means DefaultBacklog.
	Backlog int
}

// Channel is one side of a connection between two windows.
type Channel struct {
	host    Host
	adapter *transport.Adapter
	logger  *slog.Logger
	clock   clock.Clock
	timeout time.Duration
	limit   int

	// ctx is handed to handlers and cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc

	// sendMu keeps id allocation and posting in the same order, so the
	// peer sees ids in increasing order and the connect envelope first.
	sendMu sync.Mutex

	mu          sync.Mutex
	nextID      uint64
	pending     map[uint64]*Call
	handler     Handler
	backlog     []Envelope
	announced   bool
	connected   bool
	connectedCh chan struct{}
	closed      bool
}

// Open creates a channel from host to peer and starts listening for the
// peer's envelopes. Nothing is sent. Open fails when the peer handle is
// nil, the host window is closed (window.ErrClosed), or the host
// already has a channel to the same peer (window.ErrAlreadyListening).
func Open(host Host, peer transport.Peer, config Config) (*Channel, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Backlog <= 0 {
		config.Backlog = DefaultBacklog
	}
	logger = logger.With("host", string(host.ID()))

	ctx, cancel := context.WithCancel(context.Background())
	c := &Channel{
		host:        host,
		adapter:     transport.New(host, peer, logger),
		clock:       config.Clock,
		timeout:     config.AckTimeout,
		limit:       config.Backlog,
		ctx:         ctx,
		cancel:      cancel,
		pending:     make(map[uint64]*Call),
		connectedCh: make(chan struct{}),
	}
	c.logger = logger

	if err := c.adapter.Listen(c.dispatch); err != nil {
		cancel()
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	c.logger = logger.With("peer", string(peer.ID()))
	c.logger.Debug("channel opened")
	return c, nil
}

// Peer returns the peer handle the channel is bound to.
func (c *Channel) Peer() transport.Peer { return c.adapter.Peer() }

// Connected reports whether the peer has been seen.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// ConnectedChan is closed when the channel becomes connected.
func (c *Channel) ConnectedChan() <-chan struct{} { return c.connectedCh }

// Pending returns the number of calls awaiting acknowledgement.
func (c *Channel) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Go encodes payload, posts it, and returns the call tracking its
// acknowledgement. Go never blocks on the peer. If the payload cannot
// be posted the returned call has already failed with an error matching
// ErrSendFailed and the transport cause.
func (c *Channel) Go(payload any) *Call {
	data, err := codec.Marshal(payload)
	if err != nil {
		return failedCall(fmt.Errorf("%w: encoding payload: %w", ErrSendFailed, err))
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return failedCall(ErrClosed)
	}
	c.nextID++
	id := c.nextID
	call := newCall(id)
	if c.timeout > 0 {
		call.timer = c.clock.AfterFunc(c.timeout, func() { c.expire(id) })
	}
	c.pending[id] = call
	announce := !c.announced
	c.announced = true
	c.mu.Unlock()

	if announce {
		if err := c.post(Envelope{Kind: KindConnect}); err != nil {
			c.logger.Debug("connect envelope not posted", "error", err)
		}
	}

	if err := c.post(Envelope{ID: id, Kind: KindPayload, Payload: data}); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		call.complete(Value{}, fmt.Errorf("%w: %w", ErrSendFailed, err))
		c.logger.Debug("send failed", "id", id, "error", err)
		return call
	}
	c.logger.Debug("payload sent", "id", id, "bytes", len(data))
	return call
}

// Send posts payload and waits for its acknowledgement or for ctx.
// Do not call Send from a handler on the same window: the
// acknowledgement is dispatched by the loop Send would be blocking.
func (c *Channel) Send(ctx context.Context, payload any) (Value, error) {
	return c.Go(payload).Wait(ctx)
}

// Receive installs handler as the only payload handler, replacing any
// previous one. Payloads held in the backlog are replayed to it in
// arrival order on the host's event loop. A nil handler stops delivery;
// later payloads are held again.
func (c *Channel) Receive(handler Handler) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.handler = handler
	replay := handler != nil && len(c.backlog) > 0
	c.mu.Unlock()

	if replay {
		if err := c.host.Do(c.drainBacklog); err != nil {
			c.logger.Debug("backlog replay not scheduled", "error", err)
		}
	}
}

// Close fails every pending call with ErrClosed, drops held payloads,
// cancels handler contexts, and removes the window subscription.
// Close is idempotent and always returns nil.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	pending := c.pending
	c.pending = make(map[uint64]*Call)
	c.backlog = nil
	c.handler = nil
	c.mu.Unlock()

	c.cancel()
	c.adapter.Close()
	for _, call := range pending {
		call.complete(Value{}, ErrClosed)
	}
	c.logger.Debug("channel closed", "abandoned_calls", len(pending))
	return nil
}

// dispatch runs on the host's event loop for every message from the
// peer.
func (c *Channel) dispatch(data []byte) {
	envelope, err := decodeEnvelope(data)
	if err != nil {
		c.logger.Debug("discarding envelope", "error", err)
		return
	}
	c.markConnected()

	switch envelope.Kind {
	case KindConnect:
	case KindAck:
		c.acknowledge(envelope)
	case KindPayload:
		c.deliver(envelope)
	}
}

func (c *Channel) markConnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected || c.closed {
		return
	}
	c.connected = true
	close(c.connectedCh)
	c.logger.Info("channel connected")
}

func (c *Channel) acknowledge(envelope Envelope) {
	c.mu.Lock()
	call, found := c.pending[envelope.ID]
	delete(c.pending, envelope.ID)
	c.mu.Unlock()

	if !found {
		c.logger.Debug("discarding acknowledgement for unknown id", "id", envelope.ID)
		return
	}
	if envelope.Error != "" {
		call.complete(Value{}, &RemoteError{ID: envelope.ID, Message: envelope.Error})
		return
	}
	call.complete(Value{raw: envelope.Payload}, nil)
}

func (c *Channel) deliver(envelope Envelope) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	// While a backlog exists new payloads queue behind it, even with a
	// handler registered, so replay cannot reorder them.
	if c.handler == nil || len(c.backlog) > 0 {
		if len(c.backlog) >= c.limit {
			c.mu.Unlock()
			c.logger.Warn("backlog full, rejecting payload", "id", envelope.ID)
			c.respond(envelope.ID, nil, errors.New(backlogFullMessage))
			return
		}
		c.backlog = append(c.backlog, envelope)
		c.mu.Unlock()
		return
	}
	handler := c.handler
	c.mu.Unlock()

	c.invoke(handler, envelope)
}

// drainBacklog runs on the host's event loop.
func (c *Channel) drainBacklog() {
	for {
		c.mu.Lock()
		if c.closed || c.handler == nil || len(c.backlog) == 0 {
			c.mu.Unlock()
			return
		}
		envelope := c.backlog[0]
		c.backlog[0] = Envelope{}
		c.backlog = c.backlog[1:]
		handler := c.handler
		c.mu.Unlock()

		c.invoke(handler, envelope)
	}
}

func (c *Channel) invoke(handler Handler, envelope Envelope) {
	value, err := c.call(handler, envelope)
	if deferred, ok := value.(*Deferred); ok && err == nil {
		deferred.then(func(value any, err error) {
			c.respond(envelope.ID, value, err)
		})
		return
	}
	c.respond(envelope.ID, value, err)
}

// call runs the handler, turning a panic into an error so the sender
// still gets an acknowledgement.
func (c *Channel) call(handler Handler, envelope Envelope) (value any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			c.logger.Error("handler panicked", "id", envelope.ID, "panic", fmt.Sprint(recovered))
			value, err = nil, fmt.Errorf("handler panicked: %v", recovered)
		}
	}()
	return handler(c.ctx, Value{raw: envelope.Payload})
}

// respond posts the acknowledgement for id. It may run on any
// goroutine when a Deferred resolves.
func (c *Channel) respond(id uint64, value any, err error) {
	ack := Envelope{ID: id, Kind: KindAck}
	switch {
	case err != nil:
		ack.Error = err.Error()
		if ack.Error == "" {
			ack.Error = "handler failed"
		}
	case value != nil:
		encoded, encodeErr := codec.Marshal(value)
		if encodeErr != nil {
			ack.Error = fmt.Sprintf("encoding reply: %v", encodeErr)
		} else {
			ack.Payload = encoded
		}
	}

	if postErr := c.post(ack); postErr != nil {
		c.logger.Debug("acknowledgement not posted", "id", id, "error", postErr)
	}
}

func (c *Channel) expire(id uint64) {
	c.mu.Lock()
	call, found := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()

	if found {
		c.logger.Warn("acknowledgement timed out", "id", id, "timeout", c.timeout)
		call.complete(Value{}, ErrTimeout)
	}
}

func (c *Channel) post(envelope Envelope) error {
	data, err := codec.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encoding %s envelope: %w", envelope.Kind, err)
	}
	return c.adapter.Post(data)
}
