// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yutthanaiam/swift-xet/internal/clock"
)

func TestConnectionInfoCachesFreshToken(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprintf(w, `{"accessToken":"tok","exp":%d,"casUrl":"https://cas.example"}`, time.Now().Add(time.Hour).Unix())
	}))
	defer srv.Close()

	p := NewProvider(srv.Client(), clock.Real())
	for i := 0; i < 3; i++ {
		info, err := p.ConnectionInfo(context.Background(), srv.URL, "hub")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info.AccessToken != "tok" {
			t.Fatalf("got %q", info.AccessToken)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected 1 refresh call, got %d", got)
	}
}

func TestConnectionInfoRefreshesWhenStale(t *testing.T) {
	fc := clock.Fake(time.Unix(0, 0))
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		exp := fc.Now().Add(30 * time.Second)
		fmt.Fprintf(w, `{"accessToken":"tok%d","exp":%d,"casUrl":"https://cas.example"}`, n, exp.Unix())
	}))
	defer srv.Close()

	p := NewProvider(srv.Client(), fc).WithSafetyWindow(60 * time.Second)

	info1, err := p.ConnectionInfo(context.Background(), srv.URL, "hub")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info1.AccessToken != "tok1" {
		t.Fatalf("got %q", info1.AccessToken)
	}

	// Token expires in 30s but safety window is 60s: immediately stale.
	info2, err := p.ConnectionInfo(context.Background(), srv.URL, "hub")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info2.AccessToken != "tok2" {
		t.Fatalf("expected a fresh refresh, got %q", info2.AccessToken)
	}
}

func TestConnectionInfoCoalescesConcurrentRefresh(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		fmt.Fprintf(w, `{"accessToken":"tok","exp":%d,"casUrl":"https://cas.example"}`, time.Now().Add(time.Hour).Unix())
	}))
	defer srv.Close()

	p := NewProvider(srv.Client(), clock.Real())

	const n = 10
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			info, err := p.ConnectionInfo(context.Background(), srv.URL, "hub")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if info.AccessToken != "tok" {
				t.Errorf("got %q", info.AccessToken)
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected exactly 1 refresh call, got %d", got)
	}
}

func TestConnectionInfoPropagatesRefreshFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "boom")
	}))
	defer srv.Close()

	p := NewProvider(srv.Client(), clock.Real())
	_, err := p.ConnectionInfo(context.Background(), srv.URL, "hub")
	if err == nil {
		t.Fatal("expected refresh error")
	}
	var re *RefreshError
	if !asRefreshError(err, &re) {
		t.Fatalf("got %v, want *RefreshError", err)
	}
	if re.StatusCode != http.StatusInternalServerError {
		t.Fatalf("got status %d", re.StatusCode)
	}
}

func asRefreshError(err error, target **RefreshError) bool {
	if re, ok := err.(*RefreshError); ok {
		*target = re
		return true
	}
	return false
}
