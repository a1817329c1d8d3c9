package api

import (
	"bytes"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/mercfleet/fleet-client-go/session"
)

// bearerTransport attaches the current access token to every outgoing request.
// The token is read fresh from the store at send time, not captured in a
// closure: proactive and idle-prompt refreshes replace it out of band.
type bearerTransport struct {
	next  http.RoundTripper
	store session.Store
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if out.Header.Get("X-Request-ID") == "" {
		out.Header.Set("X-Request-ID", uuid.New().String())
	}
	if record, err := t.store.Get(); err == nil && record != nil && record.AccessToken != "" {
		out.Header.Set("Authorization", "Bearer "+record.AccessToken)
	}
	return t.next.RoundTrip(out)
}

// retryTransport retries a request exactly once after a 401, provided the
// refresher yields a new token. The retried request flows through the bearer
// transport again and so picks up the refreshed credential. If the refresh
// fails the original 401 is returned to the caller unretried.
type retryTransport struct {
	next      http.RoundTripper
	refresher TokenRefresher
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// A request body can only be resent when it is rewindable.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	if _, err := t.refresher.RefreshAccessToken(req.Context()); err != nil {
		return resp, nil
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return resp, nil
		}
		retry.Body = body
	}

	drain(resp)
	return t.next.RoundTrip(retry)
}

// drain consumes and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(nil))
}
