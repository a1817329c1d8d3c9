package session

import "errors"

var (
	// ErrNoRefreshToken indicates a refresh was attempted with no refresh
	// token stored. Treated as an authentication failure: the session is
	// destroyed.
	ErrNoRefreshToken = errors.New("no refresh token")

	// ErrRefreshRejected indicates the issuer rejected the refresh token
	// (HTTP 401). Fatal to the session.
	ErrRefreshRejected = errors.New("token refresh rejected")

	// ErrRefreshUnavailable indicates a transient failure (network error,
	// non-401 HTTP error) during refresh. The session is preserved and the
	// caller may retry.
	ErrRefreshUnavailable = errors.New("token refresh unavailable")
)
