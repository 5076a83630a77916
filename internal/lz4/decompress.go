// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

package lz4

import (
	pierrec "github.com/pierrec/lz4/v4"
)

// DecompressBlock decodes a raw LZ4 block into dst, whose length bounds
// the output. Returns the number of bytes written. A result equal to
// len(dst) is not guaranteed: when the fallback path decodes a block
// that ends early, it returns the smaller count without error, so
// callers needing an exact size compare n with len(dst) themselves.
//
// A platform-optimized routine (pierrec/lz4's block decoder) is tried
// first. It is only trusted when it reports writing exactly len(dst)
// bytes. Any other outcome, including a reported success that
// undershoots len(dst), falls back to the portable decoder, which
// implements the wire format directly.
func DecompressBlock(src []byte, dst []byte) (int, error) {
	if n, err := pierrec.UncompressBlock(src, dst); err == nil && n == len(dst) {
		return n, nil
	}
	return decompressBlockPortable(src, dst)
}
