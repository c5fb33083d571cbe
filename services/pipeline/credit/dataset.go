// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package credit

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	datasetFileName = "german.data"
	expectedRows    = 1000
	numColumns      = 21 // 20 features + class label
)

// HTTPClient allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads and caches the raw dataset file.
type Fetcher struct {
	URL        string
	CacheDir   string
	HTTPClient HTTPClient
	limiter    *rate.Limiter
}

// NewFetcher builds a Fetcher caching under cacheDir. Requests against
// the upstream archive are rate limited to stay polite on retries.
func NewFetcher(url, cacheDir string) *Fetcher {
	return &Fetcher{
		URL:        url,
		CacheDir:   cacheDir,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// Fetch returns the local path of the dataset file, downloading it if
// the cache is cold. The download is atomic: a partial fetch never
// replaces a good cached copy.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	cached := filepath.Join(f.CacheDir, datasetFileName)
	if info, err := os.Stat(cached); err == nil && info.Size() > 0 {
		slog.Debug("Using cached dataset", "path", cached, "bytes", info.Size())
		return cached, nil
	}

	if err := os.MkdirAll(f.CacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	slog.Info("Downloading dataset", "url", f.URL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return "", fmt.Errorf("build dataset request: %w", err)
	}
	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download dataset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download dataset: unexpected status %d from %s", resp.StatusCode, f.URL)
	}

	tmp, err := os.CreateTemp(f.CacheDir, datasetFileName+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write dataset: %w", err)
	}
	if err := os.Rename(tmp.Name(), cached); err != nil {
		return "", fmt.Errorf("move dataset into cache: %w", err)
	}
	slog.Info("Dataset downloaded", "path", cached, "bytes", n)
	return cached, nil
}

// Dataset is the parsed and encoded German Credit data.
type Dataset struct {
	Features []FeatureSpec
	Raw      [][]string  // original attribute codes / numbers, row-major
	X        [][]float64 // encoded feature matrix, row-major
	Y        []int       // 1 = bad credit risk (reject), 0 = good (approve)
}

// Rows returns the number of examples.
func (d *Dataset) Rows() int { return len(d.X) }

// Load fetches (if needed) and parses the dataset.
func Load(ctx context.Context, f *Fetcher) (*Dataset, error) {
	path, err := f.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads the space-separated german.data format. The upstream file
// labels rows 1 (good risk) or 2 (bad risk); we store bad risk as the
// positive class so the model's score reads as probability of rejection.
func Parse(r io.Reader) (*Dataset, error) {
	ds := &Dataset{Features: Features}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != numColumns {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, numColumns, len(fields))
		}

		raw := fields[:numColumns-1]
		row := make([]float64, len(Features))
		for i, spec := range Features {
			v, err := spec.Encode(raw[i])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			row[i] = v
		}

		var label int
		switch fields[numColumns-1] {
		case "1":
			label = 0
		case "2":
			label = 1
		default:
			return nil, fmt.Errorf("line %d: unknown class label %q", line, fields[numColumns-1])
		}

		ds.Raw = append(ds.Raw, append([]string(nil), raw...))
		ds.X = append(ds.X, row)
		ds.Y = append(ds.Y, label)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if len(ds.X) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	if len(ds.X) != expectedRows {
		slog.Warn("Unexpected dataset size", "rows", len(ds.X), "expected", expectedRows)
	}
	return ds, nil
}
