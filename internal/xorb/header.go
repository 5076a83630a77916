// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

// Package xorb parses the chunked container format ("xorb") that
// backs reconstructed files: a flat concatenation of chunks, each an
// 8-byte header followed by a compressed payload, read until EOF with
// no outer length.
package xorb

const (
	// HeaderSize is the fixed size of a chunk header in bytes.
	HeaderSize = 8

	// SchemeNone stores the payload verbatim.
	SchemeNone = 0
	// SchemeLZ4 compresses the payload with a raw LZ4 block.
	SchemeLZ4 = 1
	// SchemeBG4LZ4 BG4-regroups the LZ4-decompressed payload.
	SchemeBG4LZ4 = 2

	// maxLength24 bounds the 24-bit compressed/uncompressed length
	// fields: chunk sizes cannot reach or exceed 16 MiB.
	maxLength24 = 1 << 24
)

// Header describes one chunk's framing: how many compressed bytes
// follow, which decompression scheme applies, and the expected
// decompressed byte count.
type Header struct {
	Version            byte
	CompressedLength   uint32
	Scheme             byte
	UncompressedLength uint32
}

// ParseHeader decodes an 8-byte chunk header. buf must be at least
// HeaderSize bytes; only the first HeaderSize bytes are consulted.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, formatErrorf(ErrInvalidHeaderLength, "need %d bytes, have %d", HeaderSize, len(buf))
	}

	h := Header{
		Version:            buf[0],
		CompressedLength:   uint32(buf[1]) | uint32(buf[2])<<8 | uint32(buf[3])<<16,
		Scheme:             buf[4],
		UncompressedLength: uint32(buf[5]) | uint32(buf[6])<<8 | uint32(buf[7])<<16,
	}
	if h.Version != 0 {
		return Header{}, formatErrorf(ErrUnsupportedVersion, "got version %d", h.Version)
	}
	switch h.Scheme {
	case SchemeNone, SchemeLZ4, SchemeBG4LZ4:
	default:
		return Header{}, formatErrorf(ErrUnsupportedScheme, "got scheme %d", h.Scheme)
	}
	return h, nil
}

// DecodePayload applies the scheme named by h to a chunk's compressed
// payload (exactly h.CompressedLength bytes) and returns the
// uncompressed bytes, which always number h.UncompressedLength on
// success.
func DecodePayload(h Header, payload []byte) ([]byte, error) {
	if uint32(len(payload)) != h.CompressedLength {
		return nil, formatErrorf(ErrInvalidHeaderLength, "payload is %d bytes, header declares %d", len(payload), h.CompressedLength)
	}

	switch h.Scheme {
	case SchemeNone:
		if h.CompressedLength != h.UncompressedLength {
			return nil, formatErrorf(ErrLengthMismatch, "scheme 0 compressed_length=%d uncompressed_length=%d", h.CompressedLength, h.UncompressedLength)
		}
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil

	case SchemeLZ4:
		return decompressLZ4(h, payload)

	case SchemeBG4LZ4:
		decoded, err := decompressLZ4(h, payload)
		if err != nil {
			return nil, err
		}
		return bg4Regroup(decoded), nil

	default:
		return nil, formatErrorf(ErrUnsupportedScheme, "got scheme %d", h.Scheme)
	}
}
