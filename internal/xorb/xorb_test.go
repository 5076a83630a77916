// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

package xorb

import (
	"bytes"
	"errors"
	"testing"
)

func header(version byte, compressedLen uint32, scheme byte, uncompressedLen uint32) []byte {
	return []byte{
		version,
		byte(compressedLen), byte(compressedLen >> 8), byte(compressedLen >> 16),
		scheme,
		byte(uncompressedLen), byte(uncompressedLen >> 8), byte(uncompressedLen >> 16),
	}
}

func TestScheme0SingleChunk(t *testing.T) {
	chunk := append(header(0, 5, 0, 5), []byte("hello")...)

	var got []byte
	err := DecodeStream(bytes.NewReader(chunk), func(index int, decoded []byte) error {
		got = append(got, decoded...)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestScheme1LiteralOnlyLZ4(t *testing.T) {
	payload := []byte{0x50, 0x68, 0x65, 0x6C, 0x6C, 0x6F} // token 0x50, "hello"
	chunk := append(header(0, uint32(len(payload)), 1, 5), payload...)

	var got []byte
	err := DecodeStream(bytes.NewReader(chunk), func(index int, decoded []byte) error {
		got = append(got, decoded...)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestScheme2BG4LZ4(t *testing.T) {
	// Grouped form [0,4,1,5,2,6,3] wrapped as a 7-literal LZ4 block
	// (token 0x70, no match). Regrouping recovers [0..6].
	payload := append([]byte{0x70}, []byte{0, 4, 1, 5, 2, 6, 3}...)
	chunk := append(header(0, uint32(len(payload)), 2, 7), payload...)

	var got []byte
	err := DecodeStream(bytes.NewReader(chunk), func(index int, decoded []byte) error {
		got = append(got, decoded...)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0, 1, 2, 3, 4, 5, 6}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestMultiChunkXorb(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(header(0, 5, 0, 5))
	buf.WriteString("hello")
	buf.Write(header(0, 5, 0, 5))
	buf.WriteString("world")

	var chunks [][]byte
	err := DecodeStream(&buf, func(index int, decoded []byte) error {
		cp := make([]byte, len(decoded))
		copy(cp, decoded)
		chunks = append(chunks, cp)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 || string(chunks[0]) != "hello" || string(chunks[1]) != "world" {
		t.Fatalf("got %v", chunks)
	}
}

func TestDecodeBatchMatchesStream(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(header(0, 5, 0, 5))
	buf.WriteString("hello")
	buf.Write(header(0, 5, 0, 5))
	buf.WriteString("world")
	full := buf.Bytes()

	result, err := DecodeBatch(bytes.NewReader(full), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result.Bytes) != "helloworld" {
		t.Fatalf("got %q", result.Bytes)
	}
	wantIndices := []int{0, 5, 10}
	if len(result.ChunkByteIndices) != len(wantIndices) {
		t.Fatalf("got indices %v, want %v", result.ChunkByteIndices, wantIndices)
	}
	for i, v := range wantIndices {
		if result.ChunkByteIndices[i] != v {
			t.Fatalf("index %d: got %d, want %d", i, result.ChunkByteIndices[i], v)
		}
	}

	var streamed []byte
	err = DecodeStream(bytes.NewReader(full), func(index int, decoded []byte) error {
		streamed = append(streamed, decoded...)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(streamed, result.Bytes) {
		t.Fatalf("stream decode %q != batch decode %q", streamed, result.Bytes)
	}
}

func TestZeroLengthChunkRoundTripsToEmpty(t *testing.T) {
	chunk := header(0, 0, 0, 0)

	var calls int
	err := DecodeStream(bytes.NewReader(chunk), func(index int, decoded []byte) error {
		calls++
		if len(decoded) != 0 {
			t.Fatalf("expected empty decoded chunk, got %d bytes", len(decoded))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one chunk emitted, got %d", calls)
	}
}

func TestTruncatedStreamIsError(t *testing.T) {
	chunk := header(0, 5, 0, 5)
	chunk = append(chunk, []byte("hel")...) // short 2 bytes

	err := DecodeStream(bytes.NewReader(chunk), func(int, []byte) error { return nil })
	if err == nil {
		t.Fatal("expected truncation error")
	}
	var fe *FormatError
	if !errors.As(err, &fe) || fe.Kind != ErrTruncatedStream {
		t.Fatalf("got %v, want ErrTruncatedStream", err)
	}
}

func TestUnsupportedVersionIsError(t *testing.T) {
	chunk := header(1, 0, 0, 0)
	err := DecodeStream(bytes.NewReader(chunk), func(int, []byte) error { return nil })
	var fe *FormatError
	if !errors.As(err, &fe) || fe.Kind != ErrUnsupportedVersion {
		t.Fatalf("got %v, want ErrUnsupportedVersion", err)
	}
}

func TestUnsupportedSchemeIsError(t *testing.T) {
	chunk := header(0, 0, 9, 0)
	err := DecodeStream(bytes.NewReader(chunk), func(int, []byte) error { return nil })
	var fe *FormatError
	if !errors.As(err, &fe) || fe.Kind != ErrUnsupportedScheme {
		t.Fatalf("got %v, want ErrUnsupportedScheme", err)
	}
}

func TestScheme0LengthMismatchIsError(t *testing.T) {
	chunk := append(header(0, 5, 0, 4), []byte("hello")...)
	err := DecodeStream(bytes.NewReader(chunk), func(int, []byte) error { return nil })
	var fe *FormatError
	if !errors.As(err, &fe) || fe.Kind != ErrLengthMismatch {
		t.Fatalf("got %v, want ErrLengthMismatch", err)
	}
}

func TestLargeSingleChunk(t *testing.T) {
	const size = (1 << 24) - 1 // max 24-bit length
	payload := bytes.Repeat([]byte{0x42}, size)
	chunk := append(header(0, size, 0, size), payload...)

	var total int
	err := DecodeStream(bytes.NewReader(chunk), func(index int, decoded []byte) error {
		total += len(decoded)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != size {
		t.Fatalf("got %d bytes, want %d", total, size)
	}
}

func TestCursorFeedInSmallPieces(t *testing.T) {
	chunk := append(header(0, 5, 0, 5), []byte("hello")...)
	c := NewCursor()

	var decoded []byte
	var ok bool
	var err error
	for i := 0; i < len(chunk); i++ {
		c.Feed(chunk[i : i+1])
		decoded, _, ok, err = c.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			break
		}
	}
	if !ok {
		t.Fatal("expected chunk to be ready after feeding all bytes")
	}
	if string(decoded) != "hello" {
		t.Fatalf("got %q", decoded)
	}
}
