// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

// PayloadType discriminates chat payloads.
type PayloadType string

const (
	// TypeConnected is sent once by a guest when it starts.
	TypeConnected PayloadType = "connected"

	// TypeMessage carries one line of chat text.
	TypeMessage PayloadType = "message"
)

// Payload is what chat sends over a channel.
type Payload struct {
	Type    PayloadType `cbor:"type"`
	Message string      `cbor:"message,omitempty"`
}

// Ack is every chat handler's reply.
type Ack struct {
	OK bool `cbor:"ok"`
}
