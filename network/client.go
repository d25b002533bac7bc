// Package network provides the HTTP clients used for upstream media, manifest and subtitle requests.
package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anisan-cli/anistream/constant"
)

// Doer executes HTTP requests. *http.Client and *Fingerprinted satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the shared plain HTTP client, tuned for many concurrent segment requests.
// It has no overall timeout since proxied streams are long-lived; callers bound requests with a context.
var Client = &http.Client{
	Transport: newTransport(),
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 100
	t.MaxConnsPerHost = 200
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = 30 * time.Second
	return t
}

// NewRequest builds a GET request carrying browser-like defaults overridden by headers.
func NewRequest(ctx context.Context, method, rawURL string, headers map[string]string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", constant.UserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// StatusError is returned by Fetch for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// Fetch performs a GET and reads the whole body. Non-2xx statuses are a *StatusError.
func Fetch(ctx context.Context, doer Doer, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := NewRequest(ctx, http.MethodGet, rawURL, headers, nil)
	if err != nil {
		return nil, err
	}

	resp, err := doer.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
