package store

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveenspark/taskboard/pkg/domain"
)

func TestAuthSessionStorage(t *testing.T) {
	fs := afero.NewMemMapFs()
	a := NewAuthSessionStorage(NewPersister(fs, "/data", nil))

	s, err := a.LoadSession()
	require.NoError(t, err)
	assert.Nil(t, s)

	exp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, a.SaveSession(&domain.Session{UserID: "u1", AccessToken: "tok", ExpiresAt: exp}))

	info, err := fs.Stat("/data/auth-session.json")
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", info.Mode().Perm().String())

	s, err = a.LoadSession()
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "tok", s.AccessToken)
	assert.True(t, s.ExpiresAt.Equal(exp))

	require.NoError(t, a.ClearSession())
	s, err = a.LoadSession()
	require.NoError(t, err)
	assert.Nil(t, s)
}
