// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package channel turns a raw transport between two windows into a
// request/acknowledgement channel.
//
// Each side opens its own [Channel] over its notion of the other
// window: a host over the frame it embeds or the popup it opened, a
// frame over its parent, a popup over its opener. Opening sends
// nothing. The first payload a side sends is preceded by a connect
// envelope, and any envelope arriving from the peer flips the channel
// to connected. Connected is terminal; the channel never inspects
// whether its peer is still alive (see package liveness for that).
//
// [Channel.Go] posts a payload and returns a [Call] that completes when
// the peer's acknowledgement arrives; [Channel.Send] does the same and
// waits. Acknowledgements are matched by a per-channel correlation id,
// never by arrival order. The value an acknowledgement carries is
// whatever the peer's handler returned, so a send is also a request:
//
//	reply, err := ch.Send(ctx, chat.Payload{Type: "message", Message: "hi"})
//	var ack chat.Ack
//	err = reply.Decode(&ack)
//
// [Channel.Receive] installs the single handler for inbound payloads,
// replacing any earlier one. Handlers run on the local window's event
// loop in arrival order. A handler that needs to finish its work later
// returns a [Deferred] and resolves it from any goroutine. A handler
// error or panic is sent back as the acknowledgement and surfaces on
// the sender as a [*RemoteError]. Payloads that arrive before any
// handler is registered are held (up to Config.Backlog) and replayed in
// order once one is.
//
// Without Config.AckTimeout a call whose acknowledgement never comes
// stays pending until [Channel.Close], which fails every pending call
// with [ErrClosed] and removes the window subscription.
//
// Wire format: every envelope is a CBOR map {id, kind, payload, error}
// with kind one of "connect", "payload", "ack". Unknown kinds, undecodable
// envelopes, and acknowledgements for unknown ids are dropped without
// error because the peer window may carry traffic this channel did not
// originate.
package channel
