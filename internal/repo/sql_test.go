package repo

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *SQLRepository {
	t.Helper()
	r, err := Open(context.Background(), "sqlite:"+filepath.Join(t.TempDir(), "data", "feedspeed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	r := openTest(t)

	id, err := r.CreateUser(ctx, "machinist", "m@example.com", "hash")
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = r.CreateUser(ctx, "machinist", "other@example.com", "hash2")
	assert.ErrorIs(t, err, ErrConflict)

	gotID, hash, err := r.GetByLogin(ctx, "machinist")
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.Equal(t, "hash", hash)

	_, _, err = r.GetByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetups(t *testing.T) {
	ctx := context.Background()
	r := openTest(t)
	alice, err := r.CreateUser(ctx, "alice", "a@example.com", "x")
	require.NoError(t, err)
	bob, err := r.CreateUser(ctx, "bob", "b@example.com", "x")
	require.NoError(t, err)

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	form := json.RawMessage(`{"material":"Brass 360","diameter":"1/4","flutes":2}`)
	first, err := r.CreateSetup(ctx, Setup{UserID: alice, Name: "brass spot", Kind: "drill", Form: form, CreatedAt: created})
	require.NoError(t, err)
	second, err := r.CreateSetup(ctx, Setup{UserID: alice, Name: "face", Kind: "endmill", Form: json.RawMessage(`{}`)})
	require.NoError(t, err)

	list, err := r.ListSetups(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, first, list[1].ID)

	got, err := r.GetSetup(ctx, alice, first)
	require.NoError(t, err)
	assert.Equal(t, "brass spot", got.Name)
	assert.Equal(t, "drill", got.Kind)
	assert.JSONEq(t, string(form), string(got.Form))
	assert.Equal(t, created, got.CreatedAt)

	_, err = r.GetSetup(ctx, bob, first)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.DeleteSetup(ctx, bob, first), ErrNotFound)

	none, err := r.ListSetups(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, r.DeleteSetup(ctx, alice, first))
	_, err = r.GetSetup(ctx, alice, first)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := "sqlite:" + filepath.Join(t.TempDir(), "feedspeed.db")
	r, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = r.CreateUser(ctx, "carol", "c@example.com", "x")
	require.NoError(t, err)
	require.NoError(t, r.Close())

	r, err = Open(ctx, path)
	require.NoError(t, err)
	defer r.Close()
	_, _, err = r.GetByLogin(ctx, "carol")
	assert.NoError(t, err)
}

func TestRebind(t *testing.T) {
	pg := &SQLRepository{dialect: postgres}
	assert.Equal(t, "SELECT * FROM setups WHERE id=$1 AND user_id=$2", pg.rebind("SELECT * FROM setups WHERE id=? AND user_id=?"))
	lite := &SQLRepository{dialect: sqlite}
	assert.Equal(t, "id=?", lite.rebind("id=?"))
}

func TestSQLitePath(t *testing.T) {
	cases := map[string]string{
		"sqlite:feedspeed.db": "feedspeed.db",
		"sqlite:///tmp/fs.db": "/tmp/fs.db",
		"data/feedspeed.db":   "data/feedspeed.db",
	}
	for url, want := range cases {
		got, ok := sqlitePath(url)
		assert.True(t, ok, url)
		assert.Equal(t, want, got, url)
	}
	_, ok := sqlitePath("postgres://user@localhost/feedspeed")
	assert.False(t, ok)
}
