// Package fetcher issues the GET request for a built query URL and
// classifies failures so the plugin layer can render the right
// diagnostic row.
package fetcher

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"time"

	"github.com/flowhttp/forwarder/pkg/caching"
)

// ErrTimeout marks requests that exceeded the configured timeout.
var ErrTimeout = errors.New("request timed out")

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d", e.Code)
}

type Fetcher struct {
	client *http.Client
	cache  *caching.Cache
}

// NewFetcher builds a fetcher with a per-request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// WithCache enables the response cache. A nil cache disables it.
func (f *Fetcher) WithCache(c *caching.Cache) *Fetcher {
	f.cache = c
	return f
}

// Get fetches the URL body, serving fresh cache entries when enabled.
func (f *Fetcher) Get(url string) ([]byte, error) {
	if f.cache != nil {
		if body, ok := f.cache.Get(url); ok {
			return body, nil
		}
	}

	resp, err := f.client.Get(url)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if f.cache != nil {
		// A failed cache write is not a failed fetch.
		_ = f.cache.Set(url, body)
	}
	return body, nil
}

func isTimeout(err error) bool {
	var uerr *neturl.Error
	if errors.As(err, &uerr) {
		return uerr.Timeout()
	}
	return false
}
