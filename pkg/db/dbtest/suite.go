// Package dbtest exercises the db.KVStore contract. Every engine adapter
// runs the same suite so the typed layer can treat engines interchangeably.
package dbtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablekv/tablekv/pkg/db"
)

// Run runs the conformance suite against the engine produced by open. The
// returned store is closed by the suite.
func Run(t *testing.T, open func(t *testing.T) db.KVStore) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store db.KVStore)
	}{
		{
			name: "basic_put_get",
			fn:   testBasicPutGet,
		},
		{
			name: "delete_operations",
			fn:   testDelete,
		},
		{
			name: "iterator_order_and_bounds",
			fn:   testIteratorOrderAndBounds,
		},
		{
			name: "iterator_snapshot",
			fn:   testIteratorSnapshot,
		},
		{
			name: "batch_last_write_wins",
			fn:   testBatchLastWriteWins,
		},
		{
			name: "batch_done_after_commit",
			fn:   testBatchDone,
		},
		{
			name: "merge_unsupported_without_registry",
			fn:   testMergeUnsupported,
		},
		{
			name: "store_closure",
			fn:   testStoreClosure,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := open(t)
			defer store.Close()

			tc.fn(t, store)
		})
	}
}

func testBasicPutGet(t *testing.T, store db.KVStore) {
	key := []byte("test-key")
	value := []byte("test-value")

	err := store.Put(key, value)
	require.NoError(t, err)

	retrieved, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, value, retrieved)

	_, err = store.Get([]byte("non-existent"))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func testDelete(t *testing.T, store db.KVStore) {
	key := []byte("delete-test")

	err := store.Put(key, []byte("to-be-deleted"))
	require.NoError(t, err)

	err = store.Delete(key)
	require.NoError(t, err)

	_, err = store.Get(key)
	assert.ErrorIs(t, err, db.ErrNotFound)

	// Delete non-existent key should not error
	err = store.Delete([]byte("non-existent"))
	assert.NoError(t, err)
}

func testIteratorOrderAndBounds(t *testing.T, store db.KVStore) {
	// Inserted out of order on purpose
	for _, k := range []string{"c", "a", "e", "b", "d"} {
		require.NoError(t, store.Put([]byte(k), []byte("v-"+k)))
	}

	iter, err := store.NewIterator([]byte("b"), []byte("e"))
	require.NoError(t, err)
	defer iter.Close()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))

		value, err := iter.Value()
		require.NoError(t, err)
		assert.Equal(t, "v-"+string(iter.Key()), string(value))
	}

	// Half-open range: "b" included, "e" excluded, ascending order
	assert.Equal(t, []string{"b", "c", "d"}, keys)
}

func testIteratorSnapshot(t *testing.T, store db.KVStore) {
	require.NoError(t, store.Put([]byte("k1"), []byte("v1")))

	iter, err := store.NewIterator(nil, nil)
	require.NoError(t, err)
	defer iter.Close()

	// A write after iterator creation must not surface mid-scan.
	require.NoError(t, store.Put([]byte("k2"), []byte("v2")))

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	assert.Equal(t, []string{"k1"}, keys)
}

func testBatchLastWriteWins(t *testing.T, store db.KVStore) {
	batch := store.NewBatch()
	defer batch.Close()

	key := []byte("k")
	require.NoError(t, batch.Put(key, []byte("first")))
	require.NoError(t, batch.Put(key, []byte("second")))
	require.NoError(t, batch.Commit())

	value, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), value)
}

func testBatchDone(t *testing.T, store db.KVStore) {
	batch := store.NewBatch()
	require.NoError(t, batch.Put([]byte("k"), []byte("v")))
	require.NoError(t, batch.Commit())

	assert.ErrorIs(t, batch.Put([]byte("k2"), []byte("v2")), db.ErrBatchDone)
	assert.ErrorIs(t, batch.Delete([]byte("k")), db.ErrBatchDone)
	assert.ErrorIs(t, batch.Commit(), db.ErrBatchDone)
	assert.NoError(t, batch.Close())
}

func testMergeUnsupported(t *testing.T, store db.KVStore) {
	err := store.Merge([]byte("k"), []byte("v"))
	assert.ErrorIs(t, err, db.ErrMergeUnsupported)
}

func testStoreClosure(t *testing.T, store db.KVStore) {
	err := store.Close()
	require.NoError(t, err)

	_, err = store.Get([]byte("key"))
	assert.ErrorIs(t, err, db.ErrClosed)

	err = store.Put([]byte("key"), []byte("value"))
	assert.ErrorIs(t, err, db.ErrClosed)

	err = store.Delete([]byte("key"))
	assert.ErrorIs(t, err, db.ErrClosed)

	_, err = store.NewIterator(nil, nil)
	assert.ErrorIs(t, err, db.ErrClosed)

	// Double close should not error
	err = store.Close()
	assert.NoError(t, err)
}
