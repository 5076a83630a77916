// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides small HTTP response helpers shared by the
// token provider and the CAS client. Response bodies for JSON API
// calls (token refresh, reconstruction plans) are bounded reads; xorb
// bodies are streamed directly into the decoder and never touch these
// helpers.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxResponseSize bounds JSON API response body reads. Token and
// reconstruction responses are small; this exists to cap a
// misbehaving or malicious server, not to accommodate legitimate
// payloads anywhere near this size.
const MaxResponseSize int64 = 64 << 20

// DecodeResponse reads a JSON API response body, up to
// MaxResponseSize bytes, and unmarshals it into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody reads an HTTP error response body for inclusion in a
// diagnostic error message. Read errors are ignored; a partial or
// empty body is still useful.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	return string(data)
}
