package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreTests runs the standard store test suite against any Store implementation.
func RunStoreTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("Add", func(t *testing.T) {
		runAddTests(t, newStore)
	})
	t.Run("Get", func(t *testing.T) {
		runGetTests(t, newStore)
	})
	t.Run("List", func(t *testing.T) {
		runListTests(t, newStore)
	})
	t.Run("Clear", func(t *testing.T) {
		runClearTests(t, newStore)
	})
	t.Run("Closed", func(t *testing.T) {
		runClosedTests(t, newStore)
	})
}

func sampleEntry(agentID, branch string, at time.Time) Entry {
	return Entry{
		Timestamp:   at,
		AgentID:     agentID,
		Pipeline:    "voyager-" + agentID + "-agent",
		Branch:      branch,
		Message:     "Unity Agent UI - 2 files",
		Targets:     []string{"lib/a.dart", "lib/b/c.dart"},
		BuildNumber: 7,
		WebURL:      "https://buildkite.com/highspot/p/builds/7",
	}
}

func runAddTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("assigns id", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		id, err := store.Add(context.Background(), sampleEntry("unity", "main", time.Now()))
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	})

	t.Run("keeps provided id", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		entry := sampleEntry("unity", "main", time.Now())
		entry.ID = "fixed-id"
		id, err := store.Add(context.Background(), entry)
		require.NoError(t, err)
		assert.Equal(t, "fixed-id", id)
	})

	t.Run("fills zero timestamp", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		id, err := store.Add(context.Background(), sampleEntry("unity", "main", time.Time{}))
		require.NoError(t, err)

		got, err := store.Get(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, got.Timestamp.IsZero())
	})
}

func runGetTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("round trips fields", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
		entry := sampleEntry("sentry", "develop", at)
		entry.Error = "Cursor API Key required"
		entry.BuildNumber = 0
		entry.WebURL = ""

		id, err := store.Add(context.Background(), entry)
		require.NoError(t, err)

		got, err := store.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.True(t, at.Equal(got.Timestamp))
		assert.Equal(t, "sentry", got.AgentID)
		assert.Equal(t, "voyager-sentry-agent", got.Pipeline)
		assert.Equal(t, "develop", got.Branch)
		assert.Equal(t, entry.Targets, got.Targets)
		assert.Equal(t, "Cursor API Key required", got.Error)
		assert.False(t, got.Succeeded())
	})

	t.Run("not found", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		_, err := store.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		_, err := store.Get(context.Background(), "")
		assert.ErrorIs(t, err, ErrInvalidID)
	})
}

func runListTests(t *testing.T, newStore func() (Store, func())) {
	store, cleanup := newStore()
	defer cleanup()

	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		agentID := "unity"
		if i%2 == 1 {
			agentID = "sentry"
		}
		entry := sampleEntry(agentID, fmt.Sprintf("branch-%d", i%3), base.Add(time.Duration(i)*time.Minute))
		if i == 4 {
			entry.Error = "BuildKite API error: 500"
		}
		_, err := store.Add(ctx, entry)
		require.NoError(t, err)
	}

	t.Run("newest first", func(t *testing.T) {
		entries, err := store.List(ctx, QueryOptions{})
		require.NoError(t, err)
		require.Len(t, entries, 5)
		assert.True(t, entries[0].Timestamp.After(entries[4].Timestamp))
	})

	t.Run("by agent", func(t *testing.T) {
		entries, err := store.List(ctx, QueryOptions{AgentID: "sentry"})
		require.NoError(t, err)
		assert.Len(t, entries, 2)

		count, err := store.Count(ctx, QueryOptions{AgentID: "unity"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("by branch", func(t *testing.T) {
		count, err := store.Count(ctx, QueryOptions{Branch: "branch-0"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("failed only", func(t *testing.T) {
		entries, err := store.List(ctx, QueryOptions{FailedOnly: true})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "BuildKite API error: 500", entries[0].Error)
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := store.List(ctx, QueryOptions{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 2)

		all, err := store.List(ctx, QueryOptions{})
		require.NoError(t, err)
		assert.Equal(t, all[1].ID, page[0].ID)
		assert.Equal(t, all[2].ID, page[1].ID)

		count, err := store.Count(ctx, QueryOptions{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)
	})
}

func runClearTests(t *testing.T, newStore func() (Store, func())) {
	store, cleanup := newStore()
	defer cleanup()

	ctx := context.Background()
	_, err := store.Add(ctx, sampleEntry("unity", "main", time.Now()))
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx))

	count, err := store.Count(ctx, QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func runClosedTests(t *testing.T, newStore func() (Store, func())) {
	store, cleanup := newStore()
	defer cleanup()

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	ctx := context.Background()
	_, err := store.Add(ctx, sampleEntry("unity", "main", time.Now()))
	assert.ErrorIs(t, err, ErrStoreClosed)
	_, err = store.List(ctx, QueryOptions{})
	assert.ErrorIs(t, err, ErrStoreClosed)
}
