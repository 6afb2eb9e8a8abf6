package model

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"

	"cardiopredict/internal/common"
)

// fetcher downloads remote artifacts into a local cache directory so the
// format dispatch and validation below always work on a real file.
type fetcher struct {
	client   *resty.Client
	cacheDir string
}

func newFetcher(cacheDir string, timeout time.Duration) *fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &fetcher{client: client, cacheDir: cacheDir}
}

// Fetch downloads rawURL into the cache and returns the local path. The
// cached file keeps the URL's base name so extension dispatch still applies.
func (f *fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse artifact URL: %w", err)
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" || path.Ext(name) == "" {
		return "", fmt.Errorf("cannot determine artifact format from URL %q", rawURL)
	}

	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	dest := filepath.Join(f.cacheDir, name)

	resp, err := f.client.R().
		SetContext(ctx).
		SetOutput(dest).
		Get(rawURL)
	if err != nil {
		return "", fmt.Errorf("download artifact: %w", err)
	}
	if resp.StatusCode() != 200 {
		os.Remove(dest)
		return "", fmt.Errorf("download artifact: status %d", resp.StatusCode())
	}

	stat, err := os.Stat(dest)
	if err != nil {
		return "", fmt.Errorf("stat downloaded artifact: %w", err)
	}
	if stat.Size() > common.MaxArtifactBytes {
		os.Remove(dest)
		return "", fmt.Errorf("artifact size %d exceeds limit %d", stat.Size(), int64(common.MaxArtifactBytes))
	}
	return dest, nil
}
