package storage

import (
	"context"
	"testing"

	"github.com/edibridge/backend/internal/domain/audit"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	t.Run("fetch missing key", func(t *testing.T) {
		_, err := store.Fetch(ctx, "inbox/missing.xml")
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})

	t.Run("put and fetch", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "inbox/msg-1.xml", []byte("<Order/>"), "application/xml"))

		data, err := store.Fetch(ctx, "inbox/msg-1.xml")
		require.NoError(t, err)
		assert.Equal(t, []byte("<Order/>"), data)

		ok, err := store.Exists(ctx, "inbox/msg-1.xml")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("fetched data is a copy", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "inbox/msg-2.xml", []byte("abc"), "application/xml"))
		data, err := store.Fetch(ctx, "inbox/msg-2.xml")
		require.NoError(t, err)
		data[0] = 'z'

		again, err := store.Fetch(ctx, "inbox/msg-2.xml")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), again)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		_, err := store.Fetch(ctx, "")
		assert.Error(t, err)
		assert.Error(t, store.Put(ctx, "", nil, ""))
	})
}

func TestSnapshotSink(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sink := NewSnapshotSink(store)

	tenantID := uuid.New()
	rec, err := audit.NewRecord(tenantID, "Order", uuid.New(), "GTN-PO-1", 100,
		"ingest-worker", "msg-1", map[string]string{"status": "OPEN"})
	require.NoError(t, err)

	require.NoError(t, sink.Emit(ctx, rec))

	key := SnapshotKey(rec)
	assert.Contains(t, key, "GTN-PO-1")
	assert.Contains(t, key, "100.json")

	data, err := store.Fetch(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"OPEN"}`, string(data))

	t.Run("re-emission overwrites the same object", func(t *testing.T) {
		require.NoError(t, sink.Emit(ctx, rec))
		assert.Equal(t, 1, store.Len())
	})

	t.Run("nil record is a no-op", func(t *testing.T) {
		assert.NoError(t, sink.Emit(ctx, nil))
	})
}
