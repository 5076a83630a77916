// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

package download

import (
	"log/slog"
	"time"
)

// Config holds the tunables governing concurrency, timeouts, and
// transport security for a Downloader.
type Config struct {
	// MaxConcurrentFetches bounds how many xorb fetches the scheduler
	// keeps in flight at once, both for ordinary scheduling and for
	// the prefetch-ahead window.
	MaxConcurrentFetches int

	// DecodeBufferSlots bounds how many response-body Read calls
	// across all xorb fetches in this download run at once. A slot is
	// held only for the duration of one Read; it is released before
	// the bytes read are decoded.
	DecodeBufferSlots int

	// RequestTimeout bounds each individual xorb fetch and plan
	// request issued by the downloader, applied as a context
	// deadline independent of whatever timeout the supplied
	// *http.Client carries. Connect-phase timeouts belong to the
	// http.Client's Transport/Dialer, which the downloader does not
	// construct itself and so cannot re-bound per request.
	RequestTimeout time.Duration

	// InsecureAllowHTTP permits non-HTTPS CAS and fetch URLs. Off by
	// default; only meant for local testing.
	InsecureAllowHTTP bool

	// CasURLOverride, when non-empty, replaces the cas_url returned by
	// the token refresh. Lets callers pin a specific CAS endpoint
	// without needing a refresh service that already points at it.
	CasURLOverride string

	// Logger receives diagnostic messages (cancellation, best-effort
	// cleanup failures). If nil, messages at error level are written
	// to stderr.
	Logger *slog.Logger
}

// DefaultConfig returns the tunables recommended by the protocol
// description: 128 concurrent fetches, 16 decode buffer slots, and a
// 120s per-request timeout.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentFetches: 128,
		DecodeBufferSlots:    16,
		RequestTimeout:       120 * time.Second,
	}
}
