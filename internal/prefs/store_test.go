package prefs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ MemoryStore }

func (failingStore) Get(context.Context, string) (string, error) { return "", errors.New("disk on fire") }
func (failingStore) Set(context.Context, string, string) error   { return errors.New("disk on fire") }

func TestBranch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	pref := Branch(store)

	assert.Equal(t, "main", pref.Load(ctx))

	require.NoError(t, pref.Save(ctx, "release/1.2"))
	assert.Equal(t, "release/1.2", pref.Load(ctx))
	assert.Equal(t, "release/1.2", Branch(store).Load(ctx))
}

func TestTheme(t *testing.T) {
	ctx := context.Background()

	t.Run("follows terminal until saved", func(t *testing.T) {
		store := NewMemoryStore()
		assert.Equal(t, ThemeLight, Theme(store, func() bool { return false }).Load(ctx))
		assert.Equal(t, ThemeDark, Theme(store, func() bool { return true }).Load(ctx))
		assert.Equal(t, ThemeDark, Theme(store, nil).Load(ctx))

		require.NoError(t, Theme(store, nil).Save(ctx, ThemeLight))
		assert.Equal(t, ThemeLight, Theme(store, func() bool { return true }).Load(ctx))
	})

	t.Run("toggle", func(t *testing.T) {
		assert.Equal(t, ThemeLight, ToggleTheme(ThemeDark))
		assert.Equal(t, ThemeDark, ToggleTheme(ThemeLight))
		assert.Equal(t, ThemeLight, ToggleTheme(""))
	})
}

func TestPreference_StoreFailures(t *testing.T) {
	ctx := context.Background()
	pref := Branch(&failingStore{})

	assert.Equal(t, DefaultBranch, pref.Load(ctx))
	assert.Error(t, pref.Save(ctx, "x"))
}

func TestPreference_NilStore(t *testing.T) {
	ctx := context.Background()
	pref := Branch(nil)

	assert.Equal(t, DefaultBranch, pref.Load(ctx))
	assert.NoError(t, pref.Save(ctx, "x"))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "k", "v"))
	v, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"))

	require.NoError(t, store.Close())
	assert.ErrorIs(t, store.Set(ctx, "k", "v"), ErrStoreClosed)
}
