package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/catxpapa/catxframeup/pkg/buildinfo"
	"github.com/catxpapa/catxframeup/pkg/errors"
	"github.com/catxpapa/catxframeup/pkg/observability"
)

// Defaults for NewClient.
const (
	DefaultTimeout  = 30 * time.Second
	DefaultAttempts = 3
	DefaultDelay    = time.Second

	// MaxBodySize caps a response body.
	MaxBodySize = 64 << 20
)

// Client performs GET requests with retries.
type Client struct {
	HTTP     *http.Client
	Attempts int
	Delay    time.Duration
}

// NewClient returns a Client with the given per-request timeout
// (DefaultTimeout when <= 0).
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTP:     &http.Client{Timeout: timeout},
		Attempts: DefaultAttempts,
		Delay:    DefaultDelay,
	}
}

// Get fetches rawURL and returns the body of a 2xx response.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid url %q", rawURL)
	}

	var body []byte
	err = Retry(ctx, c.Attempts, c.Delay, func() error {
		b, err := c.do(ctx, u)
		body = b
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// GetJSON fetches rawURL and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, v any) error {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "decode response from %s", rawURL)
	}
	return nil
}

func (c *Client) do(ctx context.Context, u *url.URL) ([]byte, error) {
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, u.Host, u.Path)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "frameup/"+buildinfo.Version)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, u.Host, u.Path, err)
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "GET %s", u)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: errors.Wrap(errors.NetworkCode(err), err, "GET %s", u)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, http.MethodGet, u.Host, u.Path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.New(errors.ErrCodeNotFound, "GET %s: not found", u)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &RetryableError{Err: errors.New(errors.ErrCodeNetwork, "GET %s: %s", u, resp.Status)}
	case resp.StatusCode >= 400:
		return nil, errors.New(errors.ErrCodeInvalidInput, "GET %s: %s", u, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, &RetryableError{Err: errors.Wrap(errors.NetworkCode(err), err, "read body of %s", u)}
	}
	return body, nil
}

// JoinURL appends slash-separated path elements to base.
func JoinURL(base string, elem ...string) (string, error) {
	u, err := url.JoinPath(base, elem...)
	if err != nil {
		return "", fmt.Errorf("join %q: %w", base, err)
	}
	return u, nil
}
