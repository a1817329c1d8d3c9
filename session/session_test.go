package session_test

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercfleet/fleet-client-go/session"
)

const (
	testUserID       = "42"
	testUsername     = "dispatch.jane"
	testTenantID     = "tenant-1"
	testTenantName   = "Mercury Logistics"
	testTenantDomain = "mercury.example.com"
	testExp          = int64(1767225600)
)

func makeAccessToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return signed
}

func fullClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"user_id":          float64(42),
		"username":         testUsername,
		"tenant_id":        testTenantID,
		"tenant_name":      testTenantName,
		"tenant_domain":    testTenantDomain,
		"companies":        []any{"Mercury Logistics", "Hermes Freight"},
		"is_company_admin": true,
		"exp":              float64(testExp),
	}
}

func TestDecodeUserInfo(t *testing.T) {
	info, err := session.DecodeUserInfo(makeAccessToken(t, fullClaims()))
	require.NoError(t, err)

	assert.Equal(t, testUserID, info.UserID)
	assert.Equal(t, testUsername, info.Username)
	assert.Equal(t, testTenantID, info.TenantID)
	assert.Equal(t, testTenantName, info.TenantName)
	assert.Equal(t, testTenantDomain, info.TenantDomain)
	assert.Equal(t, []string{"Mercury Logistics", "Hermes Freight"}, info.Companies)
	assert.True(t, info.IsCompanyAdmin)
	assert.Equal(t, testExp, info.Exp)
}

func TestDecodeUserInfoDefaults(t *testing.T) {
	info, err := session.DecodeUserInfo(makeAccessToken(t, jwt.MapClaims{
		"user_id":  "7",
		"username": "solo",
		"exp":      float64(testExp),
	}))
	require.NoError(t, err)

	assert.Equal(t, "7", info.UserID)
	assert.Empty(t, info.Companies)
	assert.NotNil(t, info.Companies)
	assert.False(t, info.IsCompanyAdmin)
}

func TestDecodeUserInfoMalformed(t *testing.T) {
	_, err := session.DecodeUserInfo("not-a-jwt")
	require.Error(t, err)
}

func TestSessionLoggedIn(t *testing.T) {
	assert.False(t, session.Session{}.LoggedIn())
	assert.True(t, session.Session{AccessToken: "a"}.LoggedIn())
}
