// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

package download

import (
	"context"

	"github.com/yutthanaiam/swift-xet/internal/xorb"
)

// xorbFuture is the result of one in-flight or completed xorb fetch,
// shared between the goroutine performing the fetch and whichever
// terms are waiting on it.
type xorbFuture struct {
	done   chan struct{}
	result *xorb.BatchResult
	err    error
}

func newXorbFuture() *xorbFuture {
	return &xorbFuture{done: make(chan struct{})}
}

func (f *xorbFuture) complete(result *xorb.BatchResult, err error) {
	f.result = result
	f.err = err
	close(f.done)
}

func (f *xorbFuture) wait(ctx context.Context) (*xorb.BatchResult, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
