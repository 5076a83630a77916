// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

package xorb

import (
	"github.com/yutthanaiam/swift-xet/internal/bg4"
	"github.com/yutthanaiam/swift-xet/internal/lz4"
)

func decompressLZ4(h Header, payload []byte) ([]byte, error) {
	dst := make([]byte, h.UncompressedLength)
	n, err := lz4.DecompressBlock(payload, dst)
	if err != nil {
		return nil, wrapFormatError(ErrDecompressionFailed, err, "lz4 block for %d-byte target", h.UncompressedLength)
	}
	if uint32(n) != h.UncompressedLength {
		return nil, formatErrorf(ErrDecompressionFailed, "lz4 produced %d bytes, want %d", n, h.UncompressedLength)
	}
	return dst, nil
}

func bg4Regroup(grouped []byte) []byte {
	return bg4.Regroup(grouped)
}
