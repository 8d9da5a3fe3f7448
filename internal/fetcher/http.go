// Package fetcher downloads source files and parses CSV and XLSX tables.
package fetcher

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	RatePerSec float64
}

// HTTPFetcher downloads files over HTTP with retry and rate limiting.
type HTTPFetcher struct {
	client  *http.Client
	opts    HTTPOptions
	limiter *rate.Limiter
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Minute
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "hospcap-cli/1.0"
	}
	if opts.RatePerSec == 0 {
		opts.RatePerSec = 2
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
	}
}

// DownloadToFile downloads a URL to a local file, returning bytes written.
// The destination directory is created if needed.
func (f *HTTPFetcher) DownloadToFile(ctx context.Context, url, dest string) (int64, error) {
	log := zap.L().With(zap.String("component", "fetcher"))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, eris.Wrapf(err, "fetcher: create dir for %s", dest)
	}

	var lastErr error
	for attempt := 0; attempt <= f.opts.MaxRetries; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return 0, eris.Wrap(err, "fetcher: rate limit wait")
		}

		n, err := f.downloadOnce(ctx, url, dest)
		if err == nil {
			return n, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return 0, eris.Wrap(ctx.Err(), "fetcher: cancelled")
		}

		log.Warn("download failed, retrying",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		select {
		case <-time.After(time.Duration(attempt+1) * time.Second):
		case <-ctx.Done():
			return 0, eris.Wrap(ctx.Err(), "fetcher: cancelled")
		}
	}

	return 0, eris.Wrapf(lastErr, "fetcher: download %s", url)
}

func (f *HTTPFetcher) downloadOnce(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, eris.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, eris.Wrap(err, "request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return 0, eris.Errorf("status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return 0, eris.Wrapf(err, "create %s", dest)
	}
	defer out.Close() //nolint:errcheck

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return 0, eris.Wrap(err, "write body")
	}

	return n, nil
}
