// Package gateway provides the single configured request client used
// for every call to the banking backend. It attaches the bearer token
// to outgoing requests and turns 401 responses into a forced logout,
// so feature call sites carry no authentication bookkeeping.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// TokenSource supplies the current bearer token, if any. The gateway
// never owns the credential; it only reads it at send time.
type TokenSource interface {
	Token() (string, bool)
}

// Client is the HTTP client wrapper around the banking REST backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource

	mu            sync.Mutex
	logoutHandler func()
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// New creates the request client for the backend at baseURL. tokens is
// required: the credential accessor is an explicit dependency, not
// ambient state.
func New(baseURL string, tokens TokenSource, options ...Option) *Client {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	c := &Client{
		baseURL: baseURL,
		tokens:  tokens,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// SetLogoutHandler registers the callback invoked when a 401 response
// invalidates the session. Last registration wins.
func (c *Client) SetLogoutHandler(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logoutHandler = fn
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type requestOptions struct {
	skipLogoutOn401 bool
}

type RequestOption func(*requestOptions)

// WithoutLogoutOn401 marks a request whose 401 must not tear down the
// session. The login call uses it: a rejected credential is not a
// dead session.
func WithoutLogoutOn401() RequestOption {
	return func(o *requestOptions) {
		o.skipLogoutOn401 = true
	}
}

// Get performs a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any, options ...RequestOption) error {
	return c.do(ctx, http.MethodGet, path, nil, out, options...)
}

// Post performs a POST request with an optional JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any, options ...RequestOption) error {
	return c.do(ctx, http.MethodPost, path, body, out, options...)
}

// Patch performs a PATCH request and decodes the JSON response into out.
func (c *Client) Patch(ctx context.Context, path string, out any, options ...RequestOption) error {
	return c.do(ctx, http.MethodPatch, path, nil, out, options...)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, options ...RequestOption) error {
	var opts requestOptions
	for _, opt := range options {
		opt(&opts)
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "[Client.do] marshal body")
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return errors.Wrap(err, "[Client.do] create request")
	}

	token, hasToken := c.tokens.Token()
	if hasToken {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestFailure{Err: err}
	}
	defer resp.Body.Close()

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode == http.StatusUnauthorized && hasToken && !opts.skipLogoutOn401 {
		c.triggerLogout()
	}

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(err, "[Client.do] decode response")
		}
	}
	return nil
}

// triggerLogout invokes the registered logout handler. The rejected
// response is still returned to the caller afterwards.
func (c *Client) triggerLogout() {
	c.mu.Lock()
	handler := c.logoutHandler
	c.mu.Unlock()

	if handler == nil {
		return
	}
	log.Debug().Msg("401 with credential present, forcing logout")
	handler()
}

func statusError(resp *http.Response) error {
	se := &StatusError{StatusCode: resp.StatusCode}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		se.Message = payload.Message
	}
	return se
}
