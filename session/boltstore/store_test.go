package boltstore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercfleet/fleet-client-go/session"
	"github.com/mercfleet/fleet-client-go/session/boltstore"
)

func openTestStore(t *testing.T) *boltstore.Store {
	t.Helper()
	store, err := boltstore.Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGetMissingRecord(t *testing.T) {
	store := openTestStore(t)

	record, err := store.Get()
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestSetGetRoundtrip(t *testing.T) {
	store := openTestStore(t)

	want := &session.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		UserInfo: &session.UserInfo{
			UserID:    "42",
			Username:  "dispatch.jane",
			Companies: []string{"Mercury Logistics"},
			Exp:       1767225600,
		},
	}
	require.NoError(t, store.Set(want))

	got, err := store.Get()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, got)
}

func TestSetOverwrites(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Set(&session.Session{AccessToken: "first", RefreshToken: "r"}))
	require.NoError(t, store.Set(&session.Session{AccessToken: "second", RefreshToken: "r"}))

	got, err := store.Get()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.AccessToken)
}

func TestRemove(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Set(&session.Session{AccessToken: "a", RefreshToken: "r"}))
	require.NoError(t, store.Remove())

	record, err := store.Get()
	require.NoError(t, err)
	assert.Nil(t, record)

	// Removing an absent record is not an error.
	require.NoError(t, store.Remove())
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	store, err := boltstore.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(&session.Session{AccessToken: "a", RefreshToken: "r"}))
	require.NoError(t, store.Close())

	reopened, err := boltstore.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.AccessToken)
}
