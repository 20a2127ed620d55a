// Package pinecone is the wire-level client for the remote vector index
// service: JSON POST endpoints on per-index hosts, authenticated with a
// static API key header.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kailas-cloud/ragstore/internal/domain"
)

const apiVersion = "2025-10"

// Client posts JSON payloads to index and inference hosts.
type Client struct {
	apiKey string
	httpc  *http.Client
}

// NewClient creates a client with the given API key and per-call timeout.
func NewClient(apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiKey: apiKey,
		httpc:  &http.Client{Timeout: timeout},
	}
}

// Post sends payload to host+path and decodes the JSON response into out
// (skipped when out is nil). Transport failures map to domain.ErrUnavailable
// so callers can tell retryable failures from protocol errors.
func (c *Client) Post(ctx context.Context, host, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	url := strings.TrimRight(host, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Pinecone-Api-Version", apiVersion)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %v: %w", path, err, domain.ErrUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp, path); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %v: %w", path, err, domain.ErrStoreFailure)
	}
	return nil
}

func checkStatus(resp *http.Response, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Keep a slice of the body for diagnosis; index errors are JSON but the
	// message shape varies by endpoint.
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %s: %w", path, detail, domain.ErrRateLimited)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s: status %d: %s: %w", path, resp.StatusCode, detail, domain.ErrUnavailable)
	default:
		return fmt.Errorf("%s: status %d: %s: %w", path, resp.StatusCode, detail, domain.ErrStoreFailure)
	}
}
