// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

package xorb

// compactionThreshold is the minimum consumed prefix, in bytes,
// before Cursor considers compacting its buffer.
const compactionThreshold = 4096

// Cursor is a growable byte buffer that accumulates bytes from a
// stream and yields complete chunks (header plus payload) as soon as
// enough bytes have arrived. It compacts its consumed prefix
// periodically so memory use tracks the largest single chunk rather
// than the total stream length.
type Cursor struct {
	buf   []byte
	start int
}

// NewCursor returns an empty Cursor.
func NewCursor() *Cursor {
	return &Cursor{}
}

// Feed appends newly received bytes to the cursor's buffer.
func (c *Cursor) Feed(p []byte) {
	c.buf = append(c.buf, p...)
}

// Pending reports the number of unconsumed bytes currently buffered.
func (c *Cursor) Pending() int {
	return len(c.buf) - c.start
}

// Next attempts to parse and decode one complete chunk from the
// buffered bytes. ok is false when fewer bytes than the chunk needs
// have arrived yet, in which case err is always nil and the caller
// should feed more data. A non-nil err indicates a malformed header
// or a decompression failure and is terminal for the stream.
func (c *Cursor) Next() (decoded []byte, header Header, ok bool, err error) {
	if c.Pending() < HeaderSize {
		return nil, Header{}, false, nil
	}

	h, err := ParseHeader(c.buf[c.start : c.start+HeaderSize])
	if err != nil {
		return nil, Header{}, false, err
	}

	total := HeaderSize + int(h.CompressedLength)
	if c.Pending() < total {
		return nil, Header{}, false, nil
	}

	payload := c.buf[c.start+HeaderSize : c.start+total]
	decoded, err = DecodePayload(h, payload)
	if err != nil {
		return nil, Header{}, false, err
	}

	c.start += total
	c.compact()
	return decoded, h, true, nil
}

func (c *Cursor) compact() {
	if c.start < compactionThreshold || c.start*2 < len(c.buf) {
		return
	}
	remaining := copy(c.buf, c.buf[c.start:])
	c.buf = c.buf[:remaining]
	c.start = 0
}
