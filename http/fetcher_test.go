package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/citydir"
	cityhttp "github.com/fwojciec/citydir/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFetcher returns a fetcher that retries without waiting.
func newFetcher(timeout time.Duration) *cityhttp.Fetcher {
	f := cityhttp.NewFetcher(timeout)
	f.RetryDelays = []time.Duration{0, 0}
	return f
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns HTML body from server", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<table><tr><th>Category</th></tr></table>"))
		}))
		defer server.Close()

		html, err := newFetcher(0).Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "<table><tr><th>Category</th></tr></table>", html)
	})

	t.Run("retries server errors", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		html, err := newFetcher(0).Fetch(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, "ok", html)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after last retry", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := newFetcher(0).Fetch(context.Background(), server.URL)

		assert.Equal(t, citydir.EUNAVAILABLE, citydir.ErrorCode(err))
		assert.Contains(t, citydir.ErrorMessage(err), "503")
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("does not retry missing documents", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := newFetcher(0).Fetch(context.Background(), server.URL)

		assert.Equal(t, citydir.ENOTFOUND, citydir.ErrorCode(err))
		assert.Contains(t, citydir.ErrorMessage(err), "404")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("respects timeout", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("response"))
		}))
		defer server.Close()

		f := cityhttp.NewFetcher(10 * time.Millisecond)
		f.RetryDelays = nil
		_, err := f.Fetch(context.Background(), server.URL)
		assert.Equal(t, citydir.EUNAVAILABLE, citydir.ErrorCode(err))
	})

	t.Run("rejects malformed URL", func(t *testing.T) {
		t.Parallel()

		_, err := newFetcher(0).Fetch(context.Background(), "http://[::1")
		assert.Equal(t, citydir.EINVALID, citydir.ErrorCode(err))
	})
}
