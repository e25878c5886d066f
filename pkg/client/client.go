// Package client is a small HTTP client for the notification API. It is
// what agent-side code uses to talk to the subscription registry.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/community-notify/internal/domain"
)

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VAPIDPublicKey fetches the server's application public key, which the
// platform needs to create a push subscription bound to this server.
func (c *Client) VAPIDPublicKey(ctx context.Context) (string, error) {
	var out struct {
		PublicKey string `json:"public_key"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/vapid-public-key", nil, &out); err != nil {
		return "", err
	}
	return out.PublicKey, nil
}

// Register stores a push subscription in the registry. Registering the
// same endpoint again is an update, not an error.
func (c *Client) Register(ctx context.Context, req domain.RegisterSubscriptionRequest) error {
	return c.do(ctx, http.MethodPost, "/v1/subscriptions", req, nil)
}

// Unregister removes a subscription by endpoint. Unknown endpoints are
// not an error.
func (c *Client) Unregister(ctx context.Context, endpoint string) error {
	body := domain.UnregisterSubscriptionRequest{Endpoint: endpoint}
	return c.do(ctx, http.MethodDelete, "/v1/subscriptions", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &HTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
