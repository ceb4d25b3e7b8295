// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding used for everything that
// crosses a window boundary.
//
// A browser copies posted values with the structured clone algorithm:
// the receiver never shares memory with the sender, and only plain data
// survives the trip. CBOR gives the same contract in Go. Channel
// envelopes, application payloads, acknowledgement values, and bridge
// frames are all encoded here, so a payload looks the same whether it
// crossed an in-process window or a Unix socket.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the
// same logical value always produces the same bytes. The decoder
// ignores unknown fields and decodes untyped maps as map[string]any.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Types that only travel between windows use `cbor` struct tags. Types
// the CLI may also print as JSON use `json` tags, which fxamacker/cbor
// reads as a fallback. Never put both tags on one field.
package codec
