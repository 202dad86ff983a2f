package memrepo_test

import (
	"testing"

	"github.com/jrsteele09/farm-admin/sessions"
	"github.com/jrsteele09/farm-admin/sessions/memrepo"
	"github.com/stretchr/testify/require"
)

func TestRepo(t *testing.T) {
	repo := memrepo.New()
	store := sessions.New(repo)
	require.NoError(t, store.Init())
	require.False(t, store.IsAuthenticated())

	require.NoError(t, store.Save(sessions.Tokens{AccessToken: "a", RefreshToken: "r"}, "admin"))
	values, err := repo.Load()
	require.NoError(t, err)
	require.Equal(t, "a", values[sessions.AccessTokenKey])

	values["tampered"] = "x"
	again, err := repo.Load()
	require.NoError(t, err)
	require.NotContains(t, again, "tampered", "callers get a copy")

	require.NoError(t, store.Clear())
	values, err = repo.Load()
	require.NoError(t, err)
	require.Empty(t, values)
}
