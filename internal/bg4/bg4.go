// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

// Package bg4 implements the byte-grouping-of-4 transform used as an
// optional preprocessing step before LZ4 compression. Grouping
// rearranges bytes from four interleaved logical streams into four
// contiguous segments, which tends to expose more redundancy to the
// compressor for structured, fixed-stride data; Regroup reverses it.
package bg4

// segmentSizes returns the length of each of the four BG4 segments
// for a total of n bytes. Segment 0 absorbs the first leftover byte,
// segment 1 the second, segment 2 the third; segment 3 never grows.
func segmentSizes(n int) [4]int {
	split := n / 4
	rem := n % 4
	var sizes [4]int
	sizes[0] = split
	sizes[1] = split
	sizes[2] = split
	sizes[3] = split
	if rem >= 1 {
		sizes[0]++
	}
	if rem >= 2 {
		sizes[1]++
	}
	if rem == 3 {
		sizes[2]++
	}
	return sizes
}

// segmentStarts returns the starting offset of each of the four BG4
// segments within a grouped buffer of the given sizes.
func segmentStarts(sizes [4]int) [4]int {
	var starts [4]int
	starts[0] = 0
	starts[1] = starts[0] + sizes[0]
	starts[2] = starts[1] + sizes[1]
	starts[3] = starts[2] + sizes[2]
	return starts
}

// Regroup reverses the 4-way byte deinterleave: given n grouped bytes
// (four contiguous segments, one per logical stream), it reconstructs
// the original n bytes in stream order. It returns a newly allocated
// slice of length len(grouped).
func Regroup(grouped []byte) []byte {
	n := len(grouped)
	dst := make([]byte, n)
	sizes := segmentSizes(n)
	starts := segmentStarts(sizes)
	for i := 0; i < n; i++ {
		seg := i % 4
		idx := i / 4
		dst[i] = grouped[starts[seg]+idx]
	}
	return dst
}

// Split performs the forward 4-way byte interleave, the inverse of
// Regroup: Regroup(Split(d)) == d for every length, including 0..3.
func Split(d []byte) []byte {
	n := len(d)
	grouped := make([]byte, n)
	sizes := segmentSizes(n)
	starts := segmentStarts(sizes)
	for i := 0; i < n; i++ {
		seg := i % 4
		idx := i / 4
		grouped[starts[seg]+idx] = d[i]
	}
	return grouped
}
