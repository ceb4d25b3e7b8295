// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/bidc/lib/codec"
)

// Kind discriminates envelopes.
type Kind string

const (
	// KindConnect announces that the sender's channel is live.
	KindConnect Kind = "connect"

	// KindPayload carries an application payload that must be
	// acknowledged.
	KindPayload Kind = "payload"

	// KindAck acknowledges the payload with the same id.
	KindAck Kind = "ack"
)

// Envelope is the unit a channel places on the transport.
type Envelope struct {
	// ID correlates a payload with its acknowledgement. Zero for
	// connect envelopes.
	ID uint64 `cbor:"id"`

	Kind Kind `cbor:"kind"`

	// Payload is the encoded application payload (KindPayload) or the
	// handler's return value (KindAck).
	Payload codec.RawMessage `cbor:"payload,omitempty"`

	// Error is set on an acknowledgement whose handler failed.
	Error string `cbor:"error,omitempty"`
}

var errMalformed = errors.New("malformed envelope")

// decodeEnvelope decodes and sanity-checks one envelope.
func decodeEnvelope(data []byte) (Envelope, error) {
	var envelope Envelope
	if err := codec.Unmarshal(data, &envelope); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	switch envelope.Kind {
	case KindConnect:
	case KindPayload, KindAck:
		if envelope.ID == 0 {
			return Envelope{}, fmt.Errorf("%w: %s without id", errMalformed, envelope.Kind)
		}
	default:
		return Envelope{}, fmt.Errorf("%w: unknown kind %q", errMalformed, envelope.Kind)
	}
	return envelope, nil
}

// Value is an encoded payload or reply whose type only the receiver
// knows.
type Value struct {
	raw codec.RawMessage
}

// Empty reports whether the value carries nothing, which is what a
// handler returning nil produces.
func (v Value) Empty() bool { return len(v.raw) == 0 }

// Decode unmarshals the value into target. Decoding an empty value
// leaves target untouched.
func (v Value) Decode(target any) error {
	if v.Empty() {
		return nil
	}
	return codec.Unmarshal(v.raw, target)
}

// Raw returns the encoded bytes.
func (v Value) Raw() []byte { return v.raw }

// String renders the value in CBOR diagnostic notation for logs.
func (v Value) String() string {
	if v.Empty() {
		return "<empty>"
	}
	text, err := codec.Diagnose(v.raw)
	if err != nil {
		return fmt.Sprintf("<undecodable %d bytes>", len(v.raw))
	}
	return text
}
