// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

package download

import (
	"context"
	"io"

	"golang.org/x/sync/semaphore"
)

// gatedReader wraps an HTTP response body and acquires one slot from
// a shared decoded-buffer semaphore for the duration of each Read
// call, releasing it once the call returns. This is the second of the
// two bounded resources in the concurrency model: it throttles how
// many response-body reads across all in-flight xorb fetches can be
// in progress at once, independent of the fetch concurrency bound.
type gatedReader struct {
	ctx context.Context
	r   io.Reader
	sem *semaphore.Weighted
}

func (g *gatedReader) Read(p []byte) (int, error) {
	if err := g.sem.Acquire(g.ctx, 1); err != nil {
		return 0, err
	}
	defer g.sem.Release(1)
	return g.r.Read(p)
}
