// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

package xorb

import "io"

// readBufferSize is the size of the scratch buffer used to pull bytes
// from the underlying source between cursor feeds.
const readBufferSize = 32 * 1024

// DecodeStream reads a xorb byte stream from src and invokes emit
// once per chunk, in order, with the chunk's zero-based index and its
// decoded payload. EOF with buffered bytes left over that do not form
// a complete chunk is reported as a truncation error.
func DecodeStream(src io.Reader, emit func(index int, decoded []byte) error) error {
	cursor := NewCursor()
	buf := make([]byte, readBufferSize)
	index := 0

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			cursor.Feed(buf[:n])
			for {
				decoded, _, ok, err := cursor.Next()
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				if err := emit(index, decoded); err != nil {
					return err
				}
				index++
			}
		}
		if readErr == io.EOF {
			if cursor.Pending() > 0 {
				return formatErrorf(ErrTruncatedStream, "%d residual bytes at EOF", cursor.Pending())
			}
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}
