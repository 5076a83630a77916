// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

// Package token caches CAS access credentials obtained from a
// refresh endpoint, coalescing concurrent refreshes for the same
// (refresh URL, hub token) pair behind a single HTTP call.
package token

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/yutthanaiam/swift-xet/internal/clock"
	"github.com/yutthanaiam/swift-xet/internal/netutil"
)

// DefaultSafetyWindow is how far before expiry a cached token is
// treated as stale and eagerly refreshed.
const DefaultSafetyWindow = 60 * time.Second

// ConnectionInfo is the cached credential bundle returned by a
// refresh: the CAS base URL to issue plan and xorb requests against,
// a bearer token for those requests, and its expiry.
type ConnectionInfo struct {
	CasURL      string
	AccessToken string
	ExpiresAt   time.Time
}

// RefreshError reports a non-2xx response from the refresh endpoint.
type RefreshError struct {
	StatusCode int
	Body       string
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("token: refresh returned HTTP %d: %s", e.StatusCode, e.Body)
}

// key identifies one cached credential: a hub token is scoped to the
// refresh URL that minted it.
type key struct {
	refreshURL string
	hubToken   string
}

// entry holds one cached credential plus the coarse lock that
// coalesces concurrent refreshes for it: every caller blocks on mu,
// so only the first one through actually issues the HTTP request and,
// when it succeeds, the rest find the fresh credential once it
// releases the lock. A failed refresh is returned only to the caller
// that issued it; each waiting caller then issues its own refresh.
type entry struct {
	mu   sync.Mutex
	info ConnectionInfo
}

// Provider caches connection info per (refresh_url, hub_token) pair.
type Provider struct {
	httpClient    *http.Client
	clock         clock.Clock
	safetyWindow  time.Duration

	mu      sync.Mutex
	entries map[key]*entry
}

// NewProvider returns a Provider that issues refresh requests with
// httpClient and judges staleness using clk.
func NewProvider(httpClient *http.Client, clk clock.Clock) *Provider {
	return &Provider{
		httpClient:   httpClient,
		clock:        clk,
		safetyWindow: DefaultSafetyWindow,
	}
}

// WithSafetyWindow overrides the default staleness margin.
func (p *Provider) WithSafetyWindow(d time.Duration) *Provider {
	p.safetyWindow = d
	return p
}

// ConnectionInfo returns cached connection info for (refreshURL,
// hubToken), refreshing it first if it is missing or stale. Every
// concurrent caller for the same pair observes the result of at most
// one in-flight refresh.
func (p *Provider) ConnectionInfo(ctx context.Context, refreshURL, hubToken string) (ConnectionInfo, error) {
	e := p.entryFor(refreshURL, hubToken)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.info.AccessToken != "" && p.clock.Now().Before(e.info.ExpiresAt.Add(-p.safetyWindow)) {
		return e.info, nil
	}

	info, err := p.refresh(ctx, refreshURL, hubToken)
	if err != nil {
		return ConnectionInfo{}, err
	}
	e.info = info
	return info, nil
}

func (p *Provider) entryFor(refreshURL, hubToken string) *entry {
	k := key{refreshURL: refreshURL, hubToken: hubToken}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.entries == nil {
		p.entries = make(map[key]*entry)
	}
	e, ok := p.entries[k]
	if !ok {
		e = &entry{}
		p.entries[k] = e
	}
	return e
}

func (p *Provider) refresh(ctx context.Context, refreshURL, hubToken string) (ConnectionInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, refreshURL, nil)
	if err != nil {
		return ConnectionInfo{}, fmt.Errorf("token: building refresh request: %w", err)
	}
	if hubToken != "" {
		req.Header.Set("Authorization", "Bearer "+hubToken)
	}
	req.Header.Set("Cache-Control", "reload")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return ConnectionInfo{}, fmt.Errorf("token: refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ConnectionInfo{}, &RefreshError{StatusCode: resp.StatusCode, Body: netutil.ErrorBody(resp.Body)}
	}

	var body struct {
		AccessToken string `json:"accessToken"`
		Exp         int64  `json:"exp"`
		CasURL      string `json:"casUrl"`
	}
	if err := netutil.DecodeResponse(resp.Body, &body); err != nil {
		return ConnectionInfo{}, fmt.Errorf("token: decoding refresh response: %w", err)
	}

	return ConnectionInfo{
		CasURL:      body.CasURL,
		AccessToken: body.AccessToken,
		ExpiresAt:   time.Unix(body.Exp, 0),
	}, nil
}
