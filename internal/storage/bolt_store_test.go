package storage

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/samvad-hq/apiprobe/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltStoreListsNewestFirst(t *testing.T) {
	storeRaw, err := openBolt(filepath.Join(t.TempDir(), "inbox.db"), normalizeOptions(Options{}))
	require.NoError(t, err)
	store := storeRaw.(*boltStore)
	defer store.Close()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.SaveCallback(domain.Callback{
			ID:         fmt.Sprintf("cb-%d", i),
			Method:     "POST",
			Path:       "/webhook",
			Body:       map[string]any{"n": float64(i)},
			ReceivedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	got, err := store.RecentCallbacks(3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "cb-4", got[0].ID)
	assert.Equal(t, "cb-3", got[1].ID)
	assert.Equal(t, "cb-2", got[2].ID)
	assert.Equal(t, map[string]any{"n": 4.0}, got[0].Body)
}

func TestBoltStoreExpiresCallbacks(t *testing.T) {
	opts := Options{
		CallbackTTL:     1 * time.Second,
		CleanupInterval: 1 * time.Second,
	}
	storeRaw, err := openBolt(filepath.Join(t.TempDir(), "inbox.db"), opts)
	require.NoError(t, err)
	store := storeRaw.(*boltStore)
	defer store.Close()

	require.NoError(t, store.SaveCallback(domain.Callback{ID: "old", Path: "/webhook"}))

	got, err := store.RecentCallbacks(10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].ReceivedAt.IsZero())

	// Fast-forward cleanup cadence and trigger expiry.
	store.lastCleanup.Store(time.Now().Add(-2 * time.Second).Unix())
	time.Sleep(1100 * time.Millisecond)

	got, err = store.RecentCallbacks(10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	require.NoError(t, err)
	require.NoError(t, store.SaveCallback(domain.Callback{ID: "x"}))
	got, err := store.RecentCallbacks(5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	_, err := NewStore("redis", "", Options{})
	assert.Error(t, err)

	_, err = NewStore("bbolt", " ", Options{})
	assert.Error(t, err)
}
