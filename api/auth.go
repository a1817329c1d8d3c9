package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mercfleet/fleet-client-go/session"
)

// AuthService talks to the token endpoints. It deliberately uses a plain HTTP
// client: the token endpoints authenticate by credential or refresh token, not
// by bearer header, and must never trigger the 401 retry interceptor.
type AuthService struct {
	httpClient *http.Client
	baseURL    *url.URL
}

var _ session.Refresher = (*AuthService)(nil)

// NewAuthService creates the auth endpoint client.
func NewAuthService(baseURL string, options ...AuthOption) (*AuthService, error) {
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, errors.Wrap(err, "[NewAuthService] url.Parse")
	}
	as := &AuthService{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    parsed,
	}
	for _, opt := range options {
		opt(as)
	}
	return as, nil
}

// AuthOption modifies an AuthService instance.
type AuthOption func(*AuthService)

// WithAuthTimeout overrides the auth request timeout.
func WithAuthTimeout(timeout time.Duration) AuthOption {
	return func(as *AuthService) {
		as.httpClient.Timeout = timeout
	}
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Token exchanges a username and password for an access/refresh token pair.
func (as *AuthService) Token(ctx context.Context, username, password string) (session.Session, error) {
	var resp tokenResponse
	if err := as.post(ctx, "api/token/", tokenRequest{Username: username, Password: password}, &resp); err != nil {
		return session.Session{}, errors.Wrap(err, "[AuthService.Token]")
	}
	return session.Session{AccessToken: resp.Access, RefreshToken: resp.Refresh}, nil
}

// Refresh exchanges a refresh token for a new access token. A 401 from the
// issuer means the refresh token itself was rejected and is reported as
// session.ErrRefreshRejected so the manager destroys the session.
func (as *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var resp tokenResponse
	err := as.post(ctx, "api/token/refresh/", refreshRequest{Refresh: refreshToken}, &resp)
	if err != nil {
		if IsUnauthorized(err) {
			return "", errors.WithMessage(session.ErrRefreshRejected, err.Error())
		}
		return "", errors.Wrap(err, "[AuthService.Refresh]")
	}
	return resp.Access, nil
}

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates a user account. The caller still logs in afterwards to
// obtain a token pair.
func (as *AuthService) Register(ctx context.Context, req RegisterRequest) error {
	if err := as.post(ctx, "api/register/", req, nil); err != nil {
		return errors.Wrap(err, "[AuthService.Register]")
	}
	return nil
}

func (as *AuthService) post(ctx context.Context, path string, body, v any) error {
	ref, err := url.Parse(path)
	if err != nil {
		return errors.Wrap(err, "url.Parse")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "json.Marshal")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, as.baseURL.ResolveReference(ref).String(), bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "NewRequestWithContext")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := as.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "httpClient.Do")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(err, "json.Decode")
	}
	return nil
}
