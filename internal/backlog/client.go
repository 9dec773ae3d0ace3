// Package backlog fetches the unread hangouts accumulated while the user was
// away, over the server's HTTP API.
package backlog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matheus3301/hangouts/internal/hangout"
)

// Fetcher is implemented by *Client and replaced by fakes in engine tests.
type Fetcher interface {
	Fetch(ctx context.Context, username string) ([]hangout.Hangout, error)
}

var _ Fetcher = (*Client)(nil)

const (
	defaultUserAgent = "hangouts/0.1"
	requestTimeout   = 10 * time.Second
)

// Response is the body of a backlog request.
type Response struct {
	Hangouts []hangout.Hangout `json:"hangouts"`
}

// Client talks to the backlog endpoint.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

// NewClient builds a Client for an absolute http(s) URL. Query parameters in
// rawURL are kept; username is added per request.
func NewClient(rawURL string) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse backlog url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backlog url %q: scheme must be http or https", rawURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("backlog url %q: missing host", rawURL)
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// Fetch returns the unread hangouts queued on the server for username.
func (c *Client) Fetch(ctx context.Context, username string) ([]hangout.Hangout, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if username == "" {
		return nil, fmt.Errorf("username required")
	}
	reqURL := *c.baseURL
	values := reqURL.Query()
	values.Set("username", username)
	reqURL.RawQuery = values.Encode()

	var payload Response
	if err := c.do(ctx, http.MethodGet, &reqURL, &payload); err != nil {
		return nil, err
	}
	if payload.Hangouts == nil {
		payload.Hangouts = []hangout.Hangout{}
	}
	return payload.Hangouts, nil
}

func (c *Client) do(ctx context.Context, method string, reqURL *url.URL, dest any) error {
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("backlog returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
