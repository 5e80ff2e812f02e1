package table_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablekv/tablekv/pkg/codec"
	"github.com/tablekv/tablekv/pkg/db"
	"github.com/tablekv/tablekv/pkg/db/pebble"
	"github.com/tablekv/tablekv/pkg/table"
)

type profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func TestTypedLayerOverPebble(t *testing.T) {
	kv, err := pebble.NewMem()
	require.NoError(t, err)

	d := table.New(kv)
	defer d.Close()

	users, err := table.Open(d, "users", codec.Uint64Key(), codec.JSONValue[profile]())
	require.NoError(t, err)

	for _, id := range []uint64{30, 10, 20} {
		require.NoError(t, users.Put(id, profile{Name: "u", Email: "u@example.com"}))
	}

	got, err := users.Get(10)
	require.NoError(t, err)
	assert.Equal(t, "u", got.Name)

	cur, err := users.Scan(table.FullRange[uint64]())
	require.NoError(t, err)
	defer cur.Close()

	var ids []uint64
	for cur.Next() {
		ids = append(ids, cur.Key())
	}
	require.NoError(t, cur.Err())
	assert.Equal(t, []uint64{10, 20, 30}, ids)

	b := d.NewBatch()
	require.NoError(t, users.BatchDelete(b, 10))
	require.NoError(t, users.BatchPut(b, 40, profile{Name: "new"}))
	require.NoError(t, b.Commit())

	_, err = users.Get(10)
	assert.ErrorIs(t, err, table.ErrNotFound)
}

func TestPersistentSchemaSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	kv, err := pebble.New(dir)
	require.NoError(t, err)
	d := table.New(kv, table.WithPersistentSchema())

	_, err = table.Open(d, "users", codec.Uint64Key(), codec.StringValue())
	require.NoError(t, err)
	require.NoError(t, d.Close())

	// Reopen the same directory with a conflicting value type
	kv, err = pebble.New(dir)
	require.NoError(t, err)
	d = table.New(kv, table.WithPersistentSchema())
	defer d.Close()

	_, err = table.Open(d, "users", codec.Uint64Key(), codec.BytesValue())
	var conflict *table.SchemaConflictError
	require.ErrorAs(t, err, &conflict)

	_, err = table.Open(d, "users", codec.Uint64Key(), codec.StringValue())
	assert.NoError(t, err)
}

func TestMergeTableOverPebble(t *testing.T) {
	reg := db.NewMergeRegistry()
	kv, err := pebble.NewMem(pebble.WithMerge(reg))
	require.NoError(t, err)

	d := table.New(kv, table.WithMergeRegistry(reg))
	defer d.Close()

	counters, err := table.OpenMerge(d, "counters", codec.StringKey(), codec.Uint64Value(), addCounters)
	require.NoError(t, err)

	require.NoError(t, counters.Merge("hits", 1))
	require.NoError(t, counters.Merge("hits", 2))
	require.NoError(t, counters.Merge("hits", 3))

	got, err := counters.Get("hits")
	require.NoError(t, err)
	assert.Equal(t, uint64(6), got)
}
