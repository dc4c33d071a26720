package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/devices-agents/agentboard/internal/prefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetSetDelete(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	_, err = store.Get(ctx, prefs.KeyBranch)
	assert.ErrorIs(t, err, prefs.ErrNotFound)

	require.NoError(t, store.Set(ctx, prefs.KeyBranch, "develop"))
	require.NoError(t, store.Set(ctx, prefs.KeyBranch, "feature/x"))

	value, err := store.Get(ctx, prefs.KeyBranch)
	require.NoError(t, err)
	assert.Equal(t, "feature/x", value)

	require.NoError(t, store.Delete(ctx, prefs.KeyBranch))
	_, err = store.Get(ctx, prefs.KeyBranch)
	assert.ErrorIs(t, err, prefs.ErrNotFound)
}

func TestStore_Closed(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	ctx := context.Background()
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, prefs.ErrStoreClosed)
	assert.ErrorIs(t, store.Set(ctx, "k", "v"), prefs.ErrStoreClosed)
	assert.ErrorIs(t, store.Delete(ctx, "k"), prefs.ErrStoreClosed)
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentboard.db")
	ctx := context.Background()

	store, err := NewWithDB(openFile(t, path))
	require.NoError(t, err)
	require.NoError(t, prefs.Theme(store, nil).Save(ctx, prefs.ThemeLight))
	require.NoError(t, store.Close())

	reopened, err := NewWithDB(openFile(t, path))
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, prefs.ThemeLight, prefs.Theme(reopened, func() bool { return true }).Load(ctx))
}

func TestStore_SharedConnection(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	store, err := NewWithDB(db)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), "k", "v"))
	require.NoError(t, store.Close())

	assert.NoError(t, db.Ping())
}

func openFile(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}
