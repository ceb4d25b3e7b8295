// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/bureau-foundation/bidc/lib/codec"
	"github.com/bureau-foundation/bidc/window"
)

// ProtocolVersion is sent in the hello frame. Links between different
// versions are refused.
const ProtocolVersion = 1

// ErrFrameTooLarge is returned when a frame exceeds the configured
// maximum, on either the sending or receiving side.
var ErrFrameTooLarge = errors.New("bridge: frame too large")

// Compression identifies how a frame body is encoded. The values are
// wire constants.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionZstd Compression = 1
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a configuration name.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("bridge: unknown compression %q", name)
	}
}

type frameKind string

const (
	frameHello   frameKind = "hello"
	frameMessage frameKind = "message"
	frameBye     frameKind = "bye"
)

type frame struct {
	Kind frameKind `cbor:"kind"`

	// Version and Window are set on hello frames.
	Version int       `cbor:"version,omitempty"`
	Window  window.ID `cbor:"window,omitempty"`

	// Source and Data are set on message frames.
	Source window.ID `cbor:"source,omitempty"`
	Data   []byte    `cbor:"data,omitempty"`
}

// zstd.Encoder and zstd.Decoder are safe for concurrent use with
// EncodeAll/DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		panic("bridge: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		panic("bridge: zstd decoder initialization failed: " + err.Error())
	}
}

// frameCodec turns frames into wire bytes and back.
type frameCodec struct {
	compression Compression
	threshold   int
	maxSize     int
}

const headerSize = 5

// encode returns the complete wire form of f.
func (fc frameCodec) encode(f frame) ([]byte, error) {
	body, err := codec.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encoding %s frame: %w", f.Kind, err)
	}

	tag := CompressionNone
	if fc.compression == CompressionZstd && len(body) >= fc.threshold {
		compressed := zstdEncoder.EncodeAll(body, nil)
		if len(compressed) < len(body) {
			body, tag = compressed, CompressionZstd
		}
	}
	if len(body) > fc.maxSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFrameTooLarge, len(body), fc.maxSize)
	}

	wire := make([]byte, headerSize+len(body))
	binary.BigEndian.PutUint32(wire[:4], uint32(len(body)))
	wire[4] = byte(tag)
	copy(wire[headerSize:], body)
	return wire, nil
}

// read reads and decodes one frame from r.
func (fc frameCodec) read(r io.Reader) (frame, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return frame{}, err
	}
	length := binary.BigEndian.Uint32(header[:4])
	if int64(length) > int64(fc.maxSize) {
		return frame{}, fmt.Errorf("%w: %d bytes, limit %d", ErrFrameTooLarge, length, fc.maxSize)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return frame{}, fmt.Errorf("reading frame body: %w", err)
	}

	switch Compression(header[4]) {
	case CompressionNone:
	case CompressionZstd:
		decompressed, err := zstdDecoder.DecodeAll(body, nil)
		if err != nil {
			return frame{}, fmt.Errorf("zstd decompress: %w", err)
		}
		body = decompressed
	default:
		return frame{}, fmt.Errorf("unsupported compression tag %d", header[4])
	}

	var f frame
	if err := codec.Unmarshal(body, &f); err != nil {
		return frame{}, fmt.Errorf("decoding frame: %w", err)
	}
	return f, nil
}
