// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/circuitshare/pkg/types"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// retryable object-store responses. Tests override this to avoid real
// sleeps.
var RetryBaseDelay = 500 * time.Millisecond

const maxStoreRetries = 4

// HTTP talks to the remote object-store service: PUT/GET/HEAD per key,
// plus a listing endpoint that returns newline-separated keys for a
// prefix. Requests hitting 429 or a 5xx are retried with exponential
// backoff up to a fixed bound before the failure is surfaced.
type HTTP struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTP returns an HTTP store for the configured endpoint.
func NewHTTP(cfg types.ObjectStoreConfig) *HTTP {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTP{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.AccessToken,
		client:  &http.Client{Timeout: timeout},
	}
}

func (h *HTTP) do(ctx context.Context, method, rawurl string, body []byte) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawurl, reader)
		if err != nil {
			return nil, err
		}
		if h.token != "" {
			req.Header.Set("Authorization", "Bearer "+h.token)
		}

		resp, err := h.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			return resp, nil
		}
		if attempt >= maxStoreRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func (h *HTTP) objectURL(key string) string {
	return h.baseURL + "/" + key
}

func (h *HTTP) Put(ctx context.Context, key string, data []byte) error {
	resp, err := h.do(ctx, http.MethodPut, h.objectURL(key), data)
	if err != nil {
		return fmt.Errorf("putting %s: %w", key, err)
	}
	defer drain(resp)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("putting %s: status %d", key, resp.StatusCode)
	}
	return nil
}

func (h *HTTP) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := h.do(ctx, http.MethodGet, h.objectURL(key), nil)
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", key, err)
	}
	defer drain(resp)
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("getting %s: status %d", key, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

func (h *HTTP) List(ctx context.Context, prefix string) ([]string, error) {
	listURL := h.baseURL + "/?prefix=" + url.QueryEscape(prefix)
	resp, err := h.do(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", prefix, err)
	}
	defer drain(resp)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("listing %s: status %d", prefix, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading listing: %w", err)
	}

	var keys []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			keys = append(keys, line)
		}
	}
	return keys, nil
}

func (h *HTTP) Head(ctx context.Context, key string) (int64, error) {
	resp, err := h.do(ctx, http.MethodHead, h.objectURL(key), nil)
	if err != nil {
		return 0, fmt.Errorf("heading %s: %w", key, err)
	}
	defer drain(resp)
	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if resp.StatusCode/100 != 2 {
		return 0, fmt.Errorf("heading %s: status %d", key, resp.StatusCode)
	}
	return resp.ContentLength, nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
