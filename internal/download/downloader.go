// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

// Package download implements the scheduler that turns a
// reconstruction plan into a single sequential byte stream: it
// obtains credentials, fetches the plan, fetches xorb byte ranges
// with bounded concurrency and prefetch, decodes them, and splices
// the decoded bytes into an output at the correct absolute offsets.
package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/yutthanaiam/swift-xet/internal/casclient"
	"github.com/yutthanaiam/swift-xet/internal/reconstruction"
	"github.com/yutthanaiam/swift-xet/internal/token"
	"github.com/yutthanaiam/swift-xet/internal/xorb"
)

var fileIDPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Downloader orchestrates a single file reconstruction: credential
// lookup, plan fetch, and the xorb-fetch-and-splice scheduler.
type Downloader struct {
	tokens      *token.Provider
	cas         *casclient.Client
	httpClients []*http.Client
	clientIdx   atomic.Uint64
	cfg         Config
}

// New returns a Downloader backed by tokens for credentials and
// httpClients for HTTP requests: plan requests always go through the
// first client, and xorb fetches rotate round-robin across all of
// them. At least one client must be supplied.
func New(tokens *token.Provider, httpClients []*http.Client, cfg Config) *Downloader {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}
	return &Downloader{
		tokens:      tokens,
		cas:         casclient.New(httpClients[0]),
		httpClients: httpClients,
		cfg:         cfg,
	}
}

func (d *Downloader) nextClient() *http.Client {
	i := d.clientIdx.Add(1) - 1
	return d.httpClients[i%uint64(len(d.httpClients))]
}

// Download reconstructs fileID (optionally sliced to byteRange) into
// dest and returns the number of bytes written.
func (d *Downloader) Download(ctx context.Context, fileID string, byteRange *casclient.ByteRange, refreshURL, hubToken string, dest Output) (int64, error) {
	if !fileIDPattern.MatchString(fileID) {
		return 0, &InputError{Message: fmt.Sprintf("invalid file id %q", truncateFileID(fileID))}
	}
	if byteRange != nil && byteRange.Len() == 0 {
		return 0, nil
	}

	conn, err := d.tokens.ConnectionInfo(ctx, refreshURL, hubToken)
	if err != nil {
		var refreshErr *token.RefreshError
		if errors.As(err, &refreshErr) {
			return 0, &TransportError{Message: "token refresh failed", StatusCode: refreshErr.StatusCode, URL: refreshURL, Wrapped: err}
		}
		return 0, &ProtocolError{Message: "token refresh failed", Wrapped: err}
	}
	if d.cfg.CasURLOverride != "" {
		conn.CasURL = d.cfg.CasURLOverride
	}
	if !d.cfg.InsecureAllowHTTP && !strings.HasPrefix(conn.CasURL, "https://") {
		return 0, &InputError{Message: fmt.Sprintf("cas url %q is not https", conn.CasURL)}
	}

	planCtx := ctx
	if d.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		planCtx, cancel = context.WithTimeout(ctx, d.cfg.RequestTimeout)
		defer cancel()
	}
	plan, err := d.cas.Reconstruct(planCtx, conn.CasURL, conn.AccessToken, fileID, byteRange)
	if err != nil {
		var respErr *casclient.ResponseError
		if errors.As(err, &respErr) {
			return 0, &TransportError{Message: "fetching reconstruction plan failed", StatusCode: respErr.StatusCode, URL: conn.CasURL, Wrapped: err}
		}
		return 0, &ProtocolError{Message: "fetching reconstruction plan failed", Wrapped: err}
	}

	return d.run(ctx, plan, byteRange, dest)
}

// run executes the planning and scheduling phases against an
// already-fetched plan. Split out from Download so tests can drive
// the scheduler directly against a synthetic plan and a fake xorb
// server.
func (d *Downloader) run(ctx context.Context, plan *reconstruction.Plan, byteRange *casclient.ByteRange, dest Output) (int64, error) {
	usage := plan.XorbUsageCounts()

	type planned struct {
		term reconstruction.Term
		fi   reconstruction.FetchInfo
		key  reconstruction.FetchRangeKey
	}
	plannedTerms := make([]planned, len(plan.Terms))
	keyTotals := make(map[reconstruction.FetchRangeKey]uint32)
	for i, term := range plan.Terms {
		if term.Range.Len() == 0 {
			continue
		}
		fi, key, err := plan.FindFetchInfo(term)
		if err != nil {
			return 0, &ProtocolError{Message: "malformed reconstruction plan", Wrapped: err}
		}
		if !d.cfg.InsecureAllowHTTP && !strings.HasPrefix(fi.URL, "https://") {
			return 0, &InputError{Message: fmt.Sprintf("fetch url %q is not https", fi.URL)}
		}
		plannedTerms[i] = planned{term: term, fi: fi, key: key}
		keyTotals[key] += term.UnpackedLength
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(d.cfg.MaxConcurrentFetches)
	defer eg.Wait() //nolint:errcheck // best-effort drain; real errors are surfaced via futures below

	bufSem := semaphore.NewWeighted(int64(d.cfg.DecodeBufferSlots))

	var mu sync.Mutex
	inflight := make(map[reconstruction.FetchRangeKey]*xorbFuture)
	cache := make(map[reconstruction.FetchRangeKey]*xorb.BatchResult)

	ensureFetch := func(key reconstruction.FetchRangeKey, fi reconstruction.FetchInfo, total uint32) {
		mu.Lock()
		if _, ok := inflight[key]; ok {
			mu.Unlock()
			return
		}
		if _, ok := cache[key]; ok {
			mu.Unlock()
			return
		}
		fut := newXorbFuture()
		inflight[key] = fut
		mu.Unlock()

		eg.Go(func() error {
			result, err := d.fetchXorb(egCtx, fi, int(total), bufSem)
			fut.complete(result, err)
			return nil
		})
	}

	var (
		remaining  int64 = -1 // -1 means unbounded (full download)
		skip             = int64(plan.OffsetIntoFirstRange)
		writeOffset int64
	)
	if byteRange != nil {
		remaining = int64(byteRange.Len())
	}

	for i := range plannedTerms {
		if remaining == 0 {
			break
		}
		p := plannedTerms[i]
		if p.term.Range.Len() == 0 {
			continue
		}

		mu.Lock()
		cached, isCached := cache[p.key]
		mu.Unlock()

		var result *xorb.BatchResult
		if isCached {
			result = cached
		} else {
			for j := i; j < len(plannedTerms) && j < i+d.cfg.MaxConcurrentFetches; j++ {
				if plannedTerms[j].term.Range.Len() == 0 {
					continue
				}
				ensureFetch(plannedTerms[j].key, plannedTerms[j].fi, keyTotals[plannedTerms[j].key])
			}

			mu.Lock()
			fut := inflight[p.key]
			mu.Unlock()

			var err error
			result, err = fut.wait(egCtx)
			if err != nil {
				d.cfg.Logger.Error("xorb fetch failed, cancelling in-flight fetches", "hash", p.term.Hash, "error", err)
				cancel()
				return writeOffset, err
			}

			mu.Lock()
			delete(inflight, p.key)
			if usage[p.term.Hash] > 1 {
				cache[p.key] = result
			}
			mu.Unlock()
		}

		if _, err := splice(p.term, p.fi, result, &skip, &remaining, &writeOffset, dest); err != nil {
			d.cfg.Logger.Error("splicing term into output failed, cancelling in-flight fetches", "hash", p.term.Hash, "error", err)
			cancel()
			return writeOffset, err
		}
	}

	return writeOffset, nil
}

func (d *Downloader) fetchXorb(ctx context.Context, fi reconstruction.FetchInfo, totalUnpacked int, bufSem *semaphore.Weighted) (*xorb.BatchResult, error) {
	if d.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.RequestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fi.URL, nil)
	if err != nil {
		return nil, &TransportError{Message: "building xorb fetch request", URL: fi.URL, Wrapped: err}
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", fi.URLRange.Start, fi.URLRange.End))

	client := d.nextClient()
	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{Message: "xorb fetch request failed", URL: fi.URL, Wrapped: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, &TransportError{Message: "unexpected xorb fetch status", StatusCode: resp.StatusCode, URL: fi.URL}
	}

	gated := &gatedReader{ctx: ctx, r: resp.Body, sem: bufSem}
	result, err := xorb.DecodeBatch(gated, totalUnpacked)
	if err != nil {
		var xorbErr *xorb.FormatError
		if !errors.As(err, &xorbErr) {
			return nil, &TransportError{Message: "reading xorb response body", StatusCode: resp.StatusCode, URL: fi.URL, Wrapped: err}
		}
		if xorbErr.Kind == xorb.ErrDecompressionFailed {
			return nil, &DecompressionError{Message: "decompressing xorb chunk", Wrapped: err}
		}
		return nil, &FormatError{Message: "decoding xorb response", Wrapped: err}
	}
	return result, nil
}

// splice copies the bytes a term contributes from a fetched xorb into
// dest at writeOffset, honoring the leading-skip and remaining-byte
// budget. It returns the number of bytes written.
func splice(term reconstruction.Term, fi reconstruction.FetchInfo, result *xorb.BatchResult, skip *int64, remaining *int64, writeOffset *int64, dest Output) (int64, error) {
	lo := term.Range.Start - fi.Range.Start
	hi := term.Range.End - fi.Range.Start
	if lo < 0 || hi >= len(result.ChunkByteIndices) || lo > hi {
		return 0, &ProtocolError{Message: fmt.Sprintf("term range [%d,%d) outside fetched xorb chunk indices", term.Range.Start, term.Range.End)}
	}

	s := result.ChunkByteIndices[lo]
	e := result.ChunkByteIndices[hi]
	slice := result.Bytes[s:e]

	if uint32(len(slice)) != term.UnpackedLength {
		return 0, &ProtocolError{Message: fmt.Sprintf("term declares unpacked_length=%d but chunks produced %d bytes", term.UnpackedLength, len(slice))}
	}

	if *skip > 0 {
		n := *skip
		if n > int64(len(slice)) {
			n = int64(len(slice))
		}
		slice = slice[n:]
		*skip -= n
		if len(slice) == 0 {
			return 0, nil
		}
	}

	if *remaining >= 0 && int64(len(slice)) > *remaining {
		slice = slice[:*remaining]
	}
	if len(slice) == 0 {
		return 0, nil
	}

	n, err := dest.WriteAt(slice, *writeOffset)
	if err != nil {
		return 0, err
	}
	*writeOffset += int64(n)
	if *remaining >= 0 {
		*remaining -= int64(n)
	}
	return int64(n), nil
}
