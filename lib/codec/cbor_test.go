// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

type chatPayload struct {
	Type    string `cbor:"type"`
	Message string `cbor:"message,omitempty"`
}

func TestMarshalDeterministic(t *testing.T) {
	first, err := Marshal(map[string]any{"b": 2, "a": 1, "c": "three"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 20 {
		again, err := Marshal(map[string]any{"c": "three", "a": 1, "b": 2})
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding not deterministic: %x != %x", first, again)
		}
	}
}

func TestUnmarshalAnyProducesStringKeyedMaps(t *testing.T) {
	data, err := Marshal(chatPayload{Type: "message", Message: "hi"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	asMap, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type = %T, want map[string]any", decoded)
	}
	if asMap["type"] != "message" || asMap["message"] != "hi" {
		t.Errorf("decoded = %v", asMap)
	}
}

func TestOmitEmptyDropsMessage(t *testing.T) {
	data, err := Marshal(chatPayload{Type: "connected"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, present := decoded["message"]; present {
		t.Errorf("empty message field was encoded: %v", decoded)
	}
}

func TestRawMessageDefersDecoding(t *testing.T) {
	type envelope struct {
		ID      uint64     `cbor:"id"`
		Payload RawMessage `cbor:"payload"`
	}

	inner, err := Marshal(chatPayload{Type: "message", Message: "deferred"})
	if err != nil {
		t.Fatalf("Marshal inner: %v", err)
	}
	data, err := Marshal(envelope{ID: 7, Payload: inner})
	if err != nil {
		t.Fatalf("Marshal envelope: %v", err)
	}

	var decoded envelope
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal envelope: %v", err)
	}
	if decoded.ID != 7 {
		t.Errorf("ID = %d, want 7", decoded.ID)
	}
	var payload chatPayload
	if err := Unmarshal(decoded.Payload, &payload); err != nil {
		t.Fatalf("Unmarshal payload: %v", err)
	}
	if payload.Message != "deferred" {
		t.Errorf("Message = %q, want %q", payload.Message, "deferred")
	}
}

func TestUnmarshalRejectsTruncatedInput(t *testing.T) {
	data, err := Marshal(chatPayload{Type: "message", Message: "truncate me"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var payload chatPayload
	if err := Unmarshal(data[:len(data)-3], &payload); err == nil {
		t.Fatal("Unmarshal(truncated) = nil, want error")
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(map[string]any{"ok": true})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	text, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if text != `{"ok": true}` {
		t.Errorf("Diagnose = %q", text)
	}
}
