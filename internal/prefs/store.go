// Package prefs persists small user preferences such as the selected branch
// and the color theme.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Common errors.
var (
	ErrStoreClosed = errors.New("preference store is closed")
	ErrNotFound    = errors.New("preference not found")
)

// Keys.
const (
	KeyBranch = "branch"
	KeyTheme  = "theme"
)

// Themes.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// DefaultBranch is used until the user picks one.
const DefaultBranch = "main"

// Store is a string key/value preference store.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close closes the store.
	Close() error
}

// Preference is one key bound to a store with a fallback value.
type Preference struct {
	store    Store
	key      string
	fallback func() string
}

// New binds key in store. fallback supplies the value when none is stored.
func New(store Store, key string, fallback func() string) *Preference {
	return &Preference{store: store, key: key, fallback: fallback}
}

// Load returns the stored value, or the fallback when nothing is stored or
// the store fails.
func (p *Preference) Load(ctx context.Context) string {
	if p.store != nil {
		v, err := p.store.Get(ctx, p.key)
		if err == nil && v != "" {
			return v
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			slog.Warn("failed to load preference", "key", p.key, "error", err)
		}
	}
	if p.fallback == nil {
		return ""
	}
	return p.fallback()
}

// Save stores value.
func (p *Preference) Save(ctx context.Context, value string) error {
	if p.store == nil {
		return nil
	}
	if err := p.store.Set(ctx, p.key, value); err != nil {
		return fmt.Errorf("failed to save preference %q: %w", p.key, err)
	}
	return nil
}

// Branch is the last selected branch, defaulting to DefaultBranch.
func Branch(store Store) *Preference {
	return New(store, KeyBranch, func() string { return DefaultBranch })
}

// Theme is the color theme. Without a stored value, dark reports whether the
// terminal has a dark background.
func Theme(store Store, dark func() bool) *Preference {
	return New(store, KeyTheme, func() string {
		if dark == nil || dark() {
			return ThemeDark
		}
		return ThemeLight
	})
}

// ToggleTheme returns the other theme.
func ToggleTheme(theme string) string {
	if theme == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// MemoryStore is a Store backed by a map, for tests and for running without
// a database.
type MemoryStore struct {
	values map[string]string
	closed bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	if m.closed {
		return "", ErrStoreClosed
	}
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	if m.closed {
		return ErrStoreClosed
	}
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	if m.closed {
		return ErrStoreClosed
	}
	delete(m.values, key)
	return nil
}

func (m *MemoryStore) Close() error {
	m.closed = true
	return nil
}
