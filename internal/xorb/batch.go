// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

package xorb

import "io"

// BatchResult holds a preallocated-batch decode's output: the
// concatenated decompressed bytes of every chunk, and a
// chunk-index-to-byte-offset map whose sentinel final entry is the
// total number of bytes decoded. Bytes has the length passed to
// DecodeBatch, so the sentinel equals len(Bytes) only when the chunks
// fill it exactly.
type BatchResult struct {
	Bytes            []byte
	ChunkByteIndices []int
}

// DecodeBatch reads a complete xorb byte stream from src into a
// single preallocated buffer sized to total (the sum of
// uncompressed_length across every chunk expected), avoiding
// per-chunk allocation and enabling zero-copy splicing by callers.
func DecodeBatch(src io.Reader, total int) (*BatchResult, error) {
	result := &BatchResult{
		Bytes:            make([]byte, total),
		ChunkByteIndices: []int{0},
	}
	writeOffset := 0

	err := DecodeStream(src, func(index int, decoded []byte) error {
		if writeOffset+len(decoded) > total {
			return formatErrorf(ErrDecompressionFailed, "chunk %d overruns preallocated output by %d bytes", index, writeOffset+len(decoded)-total)
		}
		copy(result.Bytes[writeOffset:], decoded)
		writeOffset += len(decoded)
		result.ChunkByteIndices = append(result.ChunkByteIndices, writeOffset)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
