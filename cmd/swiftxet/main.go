// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

// Command swiftxet is a thin CLI front end over the download engine:
// "get" reconstructs a file to disk, "cat" reconstructs it to stdout.
// All engine logic lives in internal/download; this package only
// parses flags and wires the pieces together.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/yutthanaiam/swift-xet/internal/casclient"
	"github.com/yutthanaiam/swift-xet/internal/clock"
	"github.com/yutthanaiam/swift-xet/internal/config"
	"github.com/yutthanaiam/swift-xet/internal/download"
	"github.com/yutthanaiam/swift-xet/internal/token"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "get":
		err = runGet(os.Args[2:])
	case "cat":
		err = runCat(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "swiftxet:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: swiftxet <get|cat> <file-id> [flags]")
}

type commonFlags struct {
	rangeFlag  string
	casURL     string
	refreshURL string
	hubToken   string
	configPath string
}

func bindCommon(fs *pflag.FlagSet) *commonFlags {
	f := &commonFlags{}
	fs.StringVar(&f.rangeFlag, "range", "", "byte range lo-hi (half-open) to fetch instead of the whole file")
	fs.StringVar(&f.casURL, "cas-url", "", "override the CAS base URL returned by the token refresh")
	fs.StringVar(&f.refreshURL, "refresh-url", "", "token refresh endpoint URL")
	fs.StringVar(&f.hubToken, "hub-token", "", "bearer token presented to the refresh endpoint")
	fs.StringVar(&f.configPath, "config", "", "path to a swiftxet config file (overrides SWIFT_XET_CONFIG)")
	return f
}

func (f *commonFlags) byteRange() (*casclient.ByteRange, error) {
	if f.rangeFlag == "" {
		return nil, nil
	}
	parts := strings.SplitN(f.rangeFlag, "-", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid --range %q, expected lo-hi", f.rangeFlag)
	}
	lo, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid --range %q: %w", f.rangeFlag, err)
	}
	hi, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid --range %q: %w", f.rangeFlag, err)
	}
	return &casclient.ByteRange{Start: lo, End: hi}, nil
}

func (f *commonFlags) loadConfig() (*config.Config, error) {
	if f.configPath != "" {
		return config.LoadFile(f.configPath)
	}
	return config.Load()
}

func buildDownloader(cfg *config.Config, casURLOverride string) *download.Downloader {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	baseTransport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: cfg.ConnectTimeout.Duration()}).DialContext,
	}
	clients := make([]*http.Client, cfg.HTTPClientPoolSize)
	for i := range clients {
		clients[i] = &http.Client{
			Transport: baseTransport,
			Timeout:   cfg.ReadTimeout.Duration(),
		}
	}

	prov := token.NewProvider(clients[0], clock.Real()).WithSafetyWindow(cfg.TokenSafetyWindow.Duration())

	dcfg := download.DefaultConfig()
	dcfg.MaxConcurrentFetches = cfg.MaxConcurrentFetches
	dcfg.DecodeBufferSlots = cfg.DecodeBufferSlots
	dcfg.RequestTimeout = cfg.ReadTimeout.Duration()
	dcfg.InsecureAllowHTTP = cfg.InsecureAllowHTTP
	dcfg.CasURLOverride = casURLOverride
	dcfg.Logger = logger

	return download.New(prov, clients, dcfg)
}

func runGet(args []string) error {
	fs := pflag.NewFlagSet("get", pflag.ExitOnError)
	f := bindCommon(fs)
	var outPath string
	fs.StringVarP(&outPath, "output", "o", "", "output file path (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || outPath == "" {
		return fmt.Errorf("usage: swiftxet get <file-id> -o <path> [flags]")
	}
	fileID := fs.Arg(0)

	cfg, err := f.loadConfig()
	if err != nil {
		return err
	}
	byteRange, err := f.byteRange()
	if err != nil {
		return err
	}

	d := buildDownloader(cfg, f.casURL)
	out, err := download.CreateFileOutput(outPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			fmt.Fprintln(os.Stderr, "swiftxet: closing output file:", closeErr)
		}
	}()

	n, err := d.Download(context.Background(), fileID, byteRange, f.refreshURL, f.hubToken, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "swiftxet: wrote %d bytes to %s\n", n, outPath)
	return nil
}

func runCat(args []string) error {
	fs := pflag.NewFlagSet("cat", pflag.ExitOnError)
	f := bindCommon(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: swiftxet cat <file-id> [flags]")
	}
	fileID := fs.Arg(0)

	cfg, err := f.loadConfig()
	if err != nil {
		return err
	}
	byteRange, err := f.byteRange()
	if err != nil {
		return err
	}

	d := buildDownloader(cfg, f.casURL)
	out := download.NewMemoryOutput()
	if _, err := d.Download(context.Background(), fileID, byteRange, f.refreshURL, f.hubToken, out); err != nil {
		return err
	}
	_, err = os.Stdout.Write(out.Bytes())
	return err
}
