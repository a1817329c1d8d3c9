// Package session owns the authentication session for a Mercury fleet client:
// token storage, claims decoding, proactive renewal and idle detection.
package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Session is the persisted authentication state. Empty token strings represent
// a logged-out session. UserInfo is always re-derived from AccessToken and is
// never settable on its own.
type Session struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	UserInfo     *UserInfo `json:"userInfo,omitempty"`
}

// LoggedIn reports whether the session holds an access token.
func (s Session) LoggedIn() bool {
	return s.AccessToken != ""
}

// UserInfo holds the claims the client reads from the access token for UI
// convenience. The token is treated as an opaque bearer credential otherwise.
type UserInfo struct {
	UserID         string   `json:"user_id"`
	Username       string   `json:"username"`
	TenantID       string   `json:"tenant_id"`
	TenantName     string   `json:"tenant_name"`
	TenantDomain   string   `json:"tenant_domain"`
	Companies      []string `json:"companies"`
	IsCompanyAdmin bool     `json:"is_company_admin"`
	Exp            int64    `json:"exp"`
}

// DecodeUserInfo extracts claims from an access token. This is claims
// extraction only - no signature verification is performed on the client, the
// issuer is responsible for that. Missing companies default to an empty list
// and a missing admin flag defaults to false.
func DecodeUserInfo(accessToken string) (*UserInfo, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return nil, errors.Wrap(err, "[DecodeUserInfo] ParseUnverified")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("[DecodeUserInfo] unexpected claims type")
	}

	return &UserInfo{
		UserID:         claimString(claims, "user_id"),
		Username:       claimString(claims, "username"),
		TenantID:       claimString(claims, "tenant_id"),
		TenantName:     claimString(claims, "tenant_name"),
		TenantDomain:   claimString(claims, "tenant_domain"),
		Companies:      claimStringSlice(claims, "companies"),
		IsCompanyAdmin: claimBool(claims, "is_company_admin"),
		Exp:            claimInt64(claims, "exp"),
	}, nil
}

// claimString tolerates numeric identifiers; the issuer emits user_id as a
// number and tenant_id as a string.
func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

func claimStringSlice(claims jwt.MapClaims, key string) []string {
	values := make([]string, 0)
	raw, ok := claims[key].([]any)
	if !ok {
		return values
	}
	for _, v := range raw {
		switch item := v.(type) {
		case string:
			values = append(values, item)
		case float64:
			values = append(values, fmt.Sprintf("%.0f", item))
		}
	}
	return values
}

func claimBool(claims jwt.MapClaims, key string) bool {
	v, ok := claims[key].(bool)
	return ok && v
}

func claimInt64(claims jwt.MapClaims, key string) int64 {
	switch v := claims[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}
