// Package fetch retrieves product-page markup over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ashureev/pricewatch/internal/domain"
)

const maxBodyBytes = 4 << 20 // product pages past 4 MiB are truncated

// Fetcher downloads product pages with a bounded timeout so a single
// slow page cannot hold a polling slot indefinitely.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New creates a page fetcher. timeout bounds the whole request.
func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: "pricewatch/1.0",
	}
}

// Page fetches the markup at url. Failures wrap domain.ErrFetch.
func (f *Fetcher) Page(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", url, domain.ErrFetch)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %v: %w", url, err, domain.ErrFetch)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("get %s: http status %d: %w", url, resp.StatusCode, domain.ErrFetch)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %v: %w", url, err, domain.ErrFetch)
	}
	return string(body), nil
}
