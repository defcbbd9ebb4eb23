package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// maxErrorBody bounds how much of an error answer is kept for the error message.
const maxErrorBody = 4096

// Authorizer decorates an outgoing request with credentials. body is the encoded
// request payload (nil for GET), for signing schemes that hash it.
type Authorizer func(req *http.Request, body []byte) error

// HTTPClient is the JSON-over-HTTP transport shared by the REST adapters.
// It applies the integration rate limit, a per-request timeout and maps answers
// onto the provider error kinds.
type HTTPClient struct {
	Provider  string
	BaseURL   string
	HTTP      *http.Client
	Limiter   *rate.Limiter
	Timeout   time.Duration
	Authorize Authorizer
	UserAgent string
}

// NewHTTPClient builds a client for providerName rooted at baseURL.
// limiter may be nil for an unlimited client.
func NewHTTPClient(providerName, baseURL string, cfg Config, limiter *rate.Limiter) *HTTPClient {
	return &HTTPClient{
		Provider:  providerName,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		HTTP:      &http.Client{},
		Limiter:   limiter,
		Timeout:   cfg.Timeout(),
		UserAgent: "fleet-sync/1.0",
	}
}

// NewLimiter returns the token bucket for one integration.
func NewLimiter(cfg Config) *rate.Limiter {
	if cfg.RateLimitPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), burst)
}

// Do sends a request and decodes a JSON answer into out (when non-nil).
// It returns the response headers so callers can read paging tokens.
func (c *HTTPClient) Do(ctx context.Context, op, method, path string, in, out any) (http.Header, error) {
	return c.DoWithHeader(ctx, op, method, path, nil, in, out)
}

// DoWithHeader is Do with extra request headers, set before authorization.
func (c *HTTPClient) DoWithHeader(ctx context.Context, op, method, path string, header http.Header, in, out any) (http.Header, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode request: %w", c.Provider, op, err)
		}
	}

	reqCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: build request: %w", c.Provider, op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if c.Authorize != nil {
		if err := c.Authorize(req, payload); err != nil {
			return nil, &Error{Provider: c.Provider, Op: op, Err: ErrUnauthorized, Message: err.Error()}
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Provider: c.Provider, Op: op, Err: ErrUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.Header, FromHTTPStatus(c.Provider, op, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return resp.Header, &Error{Provider: c.Provider, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return resp.Header, nil
}
