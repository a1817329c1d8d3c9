// Package api is the HTTP client for the Mercury fleet backend. Every request
// carries the current access token as a bearer credential, read fresh from the
// session store at send time, and a 401 response triggers exactly one retry
// after a coalesced token refresh.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/mercfleet/fleet-client-go/session"
)

// DefaultTimeout bounds every API request. A hung refresh or resource call
// surfaces as a transient failure rather than blocking callers forever.
const DefaultTimeout = 30 * time.Second

// TokenRefresher mints a new access token when the current one is rejected.
// Implemented by session.Manager.
type TokenRefresher interface {
	RefreshAccessToken(ctx context.Context) (string, error)
}

// Client is a constructed API client instance. Interceptors are attached to
// this instance's transport, never to a shared global client.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	log        zerolog.Logger

	Drivers   *DriversService
	Companies *CompaniesService
}

// ClientOption modifies a Client instance.
type ClientOption func(*Client)

// WithTimeout overrides the request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithClientLogger sets the client logger.
func WithClientLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient builds a client whose transport injects the bearer credential from
// the store and retries once on 401 via the refresher.
func NewClient(baseURL string, store session.Store, refresher TokenRefresher, options ...ClientOption) (*Client, error) {
	if store == nil {
		return nil, errors.New("[NewClient] store is required")
	}
	if refresher == nil {
		return nil, errors.New("[NewClient] refresher is required")
	}
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, errors.Wrap(err, "[NewClient] url.Parse")
	}

	transport := &retryTransport{
		next:      &bearerTransport{next: http.DefaultTransport, store: store},
		refresher: refresher,
	}

	c := &Client{
		httpClient: &http.Client{Transport: transport, Timeout: DefaultTimeout},
		baseURL:    parsed,
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}

	c.Drivers = &DriversService{client: c}
	c.Companies = &CompaniesService{client: c}
	return c, nil
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (HTTP %d): %s", e.StatusCode, e.Body)
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "[Client.newRequest] url.Parse")
	}
	target := c.baseURL.ResolveReference(ref)

	var buf io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "[Client.newRequest] json.Marshal")
		}
		buf = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), buf)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.newRequest] NewRequestWithContext")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends the request and decodes a JSON response into v when v is non-nil.
func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "[Client.do] httpClient.Do")
	}
	defer resp.Body.Close()
	c.log.Debug().Str("method", req.Method).Str("url", req.URL.Path).Int("status", resp.StatusCode).Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(err, "[Client.do] json.Decode")
	}
	return nil
}
