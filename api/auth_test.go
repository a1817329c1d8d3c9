package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercfleet/fleet-client-go/api"
	"github.com/mercfleet/fleet-client-go/session"
)

func TestTokenExchangesCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/token/", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "dispatch.jane", body["username"])
		require.Equal(t, "hunter2", body["password"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access": "access-1", "refresh": "refresh-1"})
	}))
	defer server.Close()

	auth, err := api.NewAuthService(server.URL)
	require.NoError(t, err)

	s, err := auth.Token(context.Background(), "dispatch.jane", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "access-1", s.AccessToken)
	assert.Equal(t, "refresh-1", s.RefreshToken)
}

func TestTokenBadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"No active account found"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	auth, err := api.NewAuthService(server.URL)
	require.NoError(t, err)

	_, err = auth.Token(context.Background(), "dispatch.jane", "wrong")
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
}

func TestRefreshReturnsNewAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/token/refresh/", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "refresh-1", body["refresh"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access": "access-2"})
	}))
	defer server.Close()

	auth, err := api.NewAuthService(server.URL)
	require.NoError(t, err)

	access, err := auth.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", access)
}

func TestRefreshRejectedOn401(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Token is invalid or expired"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	auth, err := api.NewAuthService(server.URL)
	require.NoError(t, err)

	_, err = auth.Refresh(context.Background(), "stale")
	assert.ErrorIs(t, err, session.ErrRefreshRejected)
}

func TestRefreshServerErrorIsNotRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	auth, err := api.NewAuthService(server.URL)
	require.NoError(t, err)

	_, err = auth.Refresh(context.Background(), "refresh-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, session.ErrRefreshRejected)
}

func TestRegister(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/register/", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	auth, err := api.NewAuthService(server.URL)
	require.NoError(t, err)

	err = auth.Register(context.Background(), api.RegisterRequest{
		Username: "new.user",
		Password: "hunter2",
		Email:    "new.user@example.com",
	})
	require.NoError(t, err)
}
