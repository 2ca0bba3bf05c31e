package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fwojciec/citydir"
)

// DefaultFetchTimeout is the default timeout for fetching import sources.
const DefaultFetchTimeout = 10 * time.Second

// DefaultRetryDelays returns the backoff delays for fetch retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// Ensure Fetcher implements citydir.Fetcher at compile time.
var _ citydir.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML documents with plain HTTP GET requests.
type Fetcher struct {
	client *http.Client

	// RetryDelays are the waits before each retry of an unavailable
	// source. Empty disables retries.
	RetryDelays []time.Duration

	// Logger receives one line per retry. Nil disables logging.
	Logger *slog.Logger
}

// NewFetcher creates a new Fetcher with DefaultRetryDelays. A zero timeout
// selects DefaultFetchTimeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{
		client:      &http.Client{Timeout: timeout},
		RetryDelays: DefaultRetryDelays(),
	}
}

// Fetch retrieves the body of the document at url. Network failures and
// server errors are retried with backoff and finally reported as
// EUNAVAILABLE; a missing document is ENOTFOUND.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	maxAttempts := len(f.RetryDelays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		html, err := f.fetch(ctx, url)
		if err == nil {
			return html, nil
		}
		lastErr = err

		if citydir.ErrorCode(err) != citydir.EUNAVAILABLE || attempt >= maxAttempts-1 {
			break
		}

		if f.Logger != nil {
			f.Logger.Warn("retrying fetch", "url", url, "attempt", attempt+2, "err", err)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.RetryDelays[attempt]):
		}
	}

	return "", lastErr
}

func (f *Fetcher) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", citydir.Errorf(citydir.EINVALID, "invalid URL %q: %v", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", citydir.Errorf(citydir.EUNAVAILABLE, "fetch %s: %v", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return "", citydir.Errorf(citydir.ENOTFOUND, "HTTP %d for %s", resp.StatusCode, url)
	case resp.StatusCode != http.StatusOK:
		return "", citydir.Errorf(citydir.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", citydir.Errorf(citydir.EUNAVAILABLE, "read %s: %v", url, err)
	}

	return string(body), nil
}
