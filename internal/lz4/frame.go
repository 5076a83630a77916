// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

package lz4

import (
	"encoding/binary"
	"fmt"
)

// frameMagic is the 4-byte standard LZ4 frame signature.
var frameMagic = [4]byte{0x04, 0x22, 0x4D, 0x18}

// Block size codes from the BD byte (bits 6-4), mapping to the
// maximum size of any block in the frame.
const (
	blockSize64KB  = 4
	blockSize256KB = 5
	blockSize1MB   = 6
	blockSize4MB   = 7
)

// IsFrame reports whether data begins with the standard LZ4 frame
// magic number. Xorbs never carry framed LZ4 — this exists only for
// interoperability tests against reference encoders.
func IsFrame(data []byte) bool {
	return len(data) >= 4 &&
		data[0] == frameMagic[0] && data[1] == frameMagic[1] &&
		data[2] == frameMagic[2] && data[3] == frameMagic[3]
}

// DecompressFrame decodes a standard LZ4 frame (magic + FLG/BD header,
// optional content size and dictID, a sequence of length-prefixed
// blocks terminated by a zero-length block) and returns the
// concatenated uncompressed bytes. Block and content checksums, when
// present, are read and discarded without validation.
func DecompressFrame(src []byte) ([]byte, error) {
	if !IsFrame(src) {
		return nil, truncatedf("missing LZ4 frame magic")
	}
	pos := 4

	if pos+2 > len(src) {
		return nil, truncatedf("truncated frame descriptor")
	}
	flg := src[pos]
	bd := src[pos+1]
	pos += 2

	version := (flg >> 6) & 0x03
	if version != 1 {
		return nil, truncatedf("unsupported frame version bits %02b", version)
	}
	hasContentSize := flg&(1<<3) != 0
	hasDictID := flg&(1<<0) != 0
	hasContentChecksum := flg&(1<<2) != 0
	hasBlockChecksum := flg&(1<<4) != 0

	maxBlockSize, err := maxBlockSizeForCode((bd >> 4) & 0x07)
	if err != nil {
		return nil, err
	}

	if hasContentSize {
		if pos+8 > len(src) {
			return nil, truncatedf("truncated content size field")
		}
		pos += 8
	}
	if hasDictID {
		if pos+4 > len(src) {
			return nil, truncatedf("truncated dictID field")
		}
		pos += 4
	}
	// Header checksum byte: present, not validated.
	if pos+1 > len(src) {
		return nil, truncatedf("truncated header checksum")
	}
	pos++

	var output []byte
	for {
		if pos+4 > len(src) {
			return nil, truncatedf("truncated block size field")
		}
		rawSize := binary.LittleEndian.Uint32(src[pos : pos+4])
		pos += 4
		if rawSize == 0 {
			break
		}

		uncompressedFlag := rawSize&0x80000000 != 0
		blockSize := int(rawSize &^ 0x80000000)
		if pos+blockSize > len(src) {
			return nil, truncatedf("truncated block data (need %d bytes)", blockSize)
		}
		blockData := src[pos : pos+blockSize]
		pos += blockSize

		if hasBlockChecksum {
			if pos+4 > len(src) {
				return nil, truncatedf("truncated block checksum")
			}
			pos += 4
		}

		if uncompressedFlag {
			output = append(output, blockData...)
			continue
		}

		dst := make([]byte, maxBlockSize)
		n, err := DecompressBlock(blockData, dst)
		if err != nil {
			return nil, fmt.Errorf("decoding frame block at offset %d: %w", pos-blockSize, err)
		}
		output = append(output, dst[:n]...)
	}

	if hasContentChecksum {
		if pos+4 > len(src) {
			return nil, truncatedf("truncated content checksum")
		}
		pos += 4
	}

	return output, nil
}

func maxBlockSizeForCode(code byte) (int, error) {
	switch code {
	case blockSize64KB:
		return 64 << 10, nil
	case blockSize256KB:
		return 256 << 10, nil
	case blockSize1MB:
		return 1 << 20, nil
	case blockSize4MB:
		return 4 << 20, nil
	default:
		return 0, truncatedf("unsupported block size descriptor %d", code)
	}
}
