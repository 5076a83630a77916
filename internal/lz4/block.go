// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

package lz4

// decompressBlockPortable decodes a raw LZ4 block (no frame header, no
// checksums — token/literal/match sequences only) into dst, which
// bounds the output: writing past len(dst) is an overflow error.
// Returns the number of bytes written; a block that ends before filling
// dst returns a smaller count without error.
//
// The block ends only when the input is exhausted right after a
// sequence's literals. Input that runs out where a token should start,
// including right after a match and for an empty block, is reported as
// truncated.
//
// This is the byte-level reference implementation: every sequence is a
// one-byte token (high nibble = literal length, low nibble = match
// length), an optional literal-length extension, the literal bytes
// themselves, an optional match (two-byte little-endian offset plus an
// optional match-length extension), copied byte-by-byte so that
// overlapping copies — including offset 1, which fills a run with a
// single repeated byte — are well defined.
func decompressBlockPortable(src []byte, dst []byte) (int, error) {
	si := 0
	di := 0

	for {
		if si >= len(src) {
			return di, truncatedf("missing token at sequence start")
		}
		token := src[si]
		si++

		litLen := int(token >> 4)
		if litLen == 15 {
			n, err := readLengthExtension(src, &si)
			if err != nil {
				return di, err
			}
			litLen += n
		}

		if litLen > 0 {
			if si+litLen > len(src) {
				return di, truncatedf("truncated literals: need %d bytes, have %d", litLen, len(src)-si)
			}
			if di+litLen > len(dst) {
				return di, overflowf("literal copy overruns output by %d bytes", di+litLen-len(dst))
			}
			copy(dst[di:di+litLen], src[si:si+litLen])
			si += litLen
			di += litLen
		}

		// Source exhausted immediately after the literals: this is
		// the final sequence, no match follows.
		if si >= len(src) {
			return di, nil
		}

		if si+2 > len(src) {
			return di, truncatedf("truncated match offset")
		}
		offset := int(src[si]) | int(src[si+1])<<8
		si += 2

		if offset == 0 {
			return di, invalidOffsetf("zero match offset")
		}
		if offset > di {
			return di, invalidOffsetf("match offset %d exceeds %d bytes written so far", offset, di)
		}

		matchLen := int(token & 0x0F)
		if matchLen == 15 {
			n, err := readLengthExtension(src, &si)
			if err != nil {
				return di, err
			}
			matchLen += n
		}
		matchLen += 4

		if di+matchLen > len(dst) {
			return di, overflowf("match copy overruns output by %d bytes", di+matchLen-len(dst))
		}

		copyPos := di - offset
		for i := 0; i < matchLen; i++ {
			dst[di] = dst[copyPos]
			di++
			copyPos++
		}
	}
}

// readLengthExtension reads additional length bytes starting at
// src[*si], each in [0,255], adding them to the running total and
// terminating on the first byte less than 255. Advances *si past the
// bytes consumed.
func readLengthExtension(src []byte, si *int) (int, error) {
	total := 0
	for {
		if *si >= len(src) {
			return 0, truncatedf("truncated length extension")
		}
		b := src[*si]
		*si++
		total += int(b)
		if b < 255 {
			return total, nil
		}
	}
}
