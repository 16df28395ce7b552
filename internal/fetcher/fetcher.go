// Package fetcher downloads remote crop tolerance files over HTTP.
package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/crop-advisor/internal/resilience"
)

// Options configures the HTTP fetcher.
type Options struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int

	// Limiter paces requests. Default: 5 requests/s, burst 5.
	Limiter *rate.Limiter

	// Retry overrides the backoff policy; MaxAttempts comes from MaxRetries.
	Retry resilience.RetryConfig
}

// Fetcher downloads files with retry on 429, 5xx and transport failures.
type Fetcher struct {
	client *http.Client
	opts   Options
}

// New creates a Fetcher with the given options.
func New(opts Options) *Fetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "crop-advisor/1.0"
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(5, 5)
	}
	opts.Retry.MaxAttempts = opts.MaxRetries
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("fetcher: download")
	}
	return &Fetcher{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
	}
}

// Download fetches rawURL and returns the response body. The caller closes it.
func (f *Fetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	var body io.ReadCloser
	err = resilience.Do(ctx, f.opts.Retry, func(ctx context.Context) error {
		if err := f.opts.Limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "fetcher: rate limiter wait")
		}

		resp, err := f.client.Do(req.Clone(ctx))
		if err != nil {
			return resilience.Transient(eris.Wrap(err, "fetcher: request"))
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			body = resp.Body
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			_ = resp.Body.Close()
			return resilience.Transient(eris.Errorf("fetcher: http %d from %s", resp.StatusCode, rawURL))
		default:
			_ = resp.Body.Close()
			return eris.Errorf("fetcher: unexpected status %d from %s", resp.StatusCode, rawURL)
		}
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// DownloadToFile fetches rawURL into path and returns the bytes written.
func (f *Fetcher) DownloadToFile(ctx context.Context, rawURL, path string) (int64, error) {
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create file")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, body)
	if err != nil {
		return n, eris.Wrap(err, "fetcher: write file")
	}

	zap.L().Debug("fetcher: downloaded",
		zap.String("url", rawURL),
		zap.Int64("bytes", n),
	)
	return n, nil
}

// DownloadDataset fetches rawURL into dir, keeping the URL's file extension
// so the dataset loader can pick a format. It returns the local path.
func (f *Fetcher) DownloadDataset(ctx context.Context, rawURL, dir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: parse url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || strings.TrimSpace(name) == "" {
		name = "dataset"
	}
	local := filepath.Join(dir, filepath.Base(name))
	if _, err := f.DownloadToFile(ctx, rawURL, local); err != nil {
		return "", err
	}
	return local, nil
}
