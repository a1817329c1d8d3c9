package securestore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercfleet/fleet-client-go/session"
	"github.com/mercfleet/fleet-client-go/session/securestore"
)

func TestRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.enc")
	store, err := securestore.New(path, []byte("correct horse battery staple"))
	require.NoError(t, err)

	record, err := store.Get()
	require.NoError(t, err)
	assert.Nil(t, record)

	want := &session.Session{AccessToken: "access-1", RefreshToken: "refresh-1"}
	require.NoError(t, store.Set(want))

	got, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTokensNotStoredInTheClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.enc")
	store, err := securestore.New(path, []byte("passphrase"))
	require.NoError(t, err)

	require.NoError(t, store.Set(&session.Session{AccessToken: "super-secret-access-token", RefreshToken: "r"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "super-secret-access-token")
}

func TestWrongPassphraseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.enc")
	store, err := securestore.New(path, []byte("passphrase"))
	require.NoError(t, err)
	require.NoError(t, store.Set(&session.Session{AccessToken: "a", RefreshToken: "r"}))

	other, err := securestore.New(path, []byte("wrong"))
	require.NoError(t, err)
	_, err = other.Get()
	require.Error(t, err)
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.enc")
	store, err := securestore.New(path, []byte("passphrase"))
	require.NoError(t, err)

	require.NoError(t, store.Set(&session.Session{AccessToken: "a", RefreshToken: "r"}))
	require.NoError(t, store.Remove())

	record, err := store.Get()
	require.NoError(t, err)
	assert.Nil(t, record)

	require.NoError(t, store.Remove())
}

func TestEmptyPassphraseRejected(t *testing.T) {
	_, err := securestore.New(filepath.Join(t.TempDir(), "session.enc"), nil)
	require.Error(t, err)
}
