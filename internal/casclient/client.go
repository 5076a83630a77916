// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

// Package casclient builds and decodes reconstruction-plan requests
// against a CAS server.
package casclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/yutthanaiam/swift-xet/internal/netutil"
	"github.com/yutthanaiam/swift-xet/internal/reconstruction"
)

// ByteRange is a half-open byte range requested by a caller:
// [Start, End), including Start and excluding End.
type ByteRange struct {
	Start uint64
	End   uint64
}

// Len returns the number of bytes the range covers.
func (r ByteRange) Len() uint64 { return r.End - r.Start }

// ResponseError reports a non-2xx response from the reconstruction
// endpoint.
type ResponseError struct {
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("casclient: reconstruction request returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Client issues reconstruction-plan requests against a CAS server.
type Client struct {
	httpClient *http.Client
}

// New returns a Client that issues requests with httpClient.
func New(httpClient *http.Client) *Client {
	return &Client{httpClient: httpClient}
}

// Reconstruct fetches the reconstruction plan for fileID, optionally
// scoped to byteRange via an inclusive HTTP Range header.
func (c *Client) Reconstruct(ctx context.Context, casURL, accessToken, fileID string, byteRange *ByteRange) (*reconstruction.Plan, error) {
	url := fmt.Sprintf("%s/v1/reconstructions/%s", casURL, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("casclient: building reconstruction request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if byteRange != nil {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", byteRange.Start, byteRange.End-1))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("casclient: reconstruction request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ResponseError{StatusCode: resp.StatusCode, Body: netutil.ErrorBody(resp.Body)}
	}

	var plan reconstruction.Plan
	if err := netutil.DecodeResponse(resp.Body, &plan); err != nil {
		return nil, fmt.Errorf("casclient: decoding reconstruction response: %w", err)
	}
	return &plan, nil
}
