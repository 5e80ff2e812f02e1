package table_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablekv/tablekv/pkg/codec"
	"github.com/tablekv/tablekv/pkg/db"
	"github.com/tablekv/tablekv/pkg/db/memory"
	"github.com/tablekv/tablekv/pkg/table"
)

func addCounters(existing, operand uint64) (uint64, error) {
	return existing + operand, nil
}

func TestMergeTable(t *testing.T) {
	reg := db.NewMergeRegistry()
	d := table.New(memory.New(memory.WithMerge(reg)), table.WithMergeRegistry(reg))
	defer d.Close()

	counters, err := table.OpenMerge(d, "counters", codec.StringKey(), codec.Uint64Value(), addCounters)
	require.NoError(t, err)

	require.NoError(t, counters.Merge("hits", 5))
	require.NoError(t, counters.Merge("hits", 7))

	got, err := counters.Get("hits")
	require.NoError(t, err)
	assert.Equal(t, uint64(12), got)

	// Merging into an absent key stores the operand itself
	require.NoError(t, counters.Merge("misses", 3))
	got, err = counters.Get("misses")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got)

	// Plain table operations still work on a merge table
	require.NoError(t, counters.Put("hits", 0))
	got, err = counters.Get("hits")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)
}

func TestMergeSets(t *testing.T) {
	reg := db.NewMergeRegistry()
	d := table.New(memory.New(memory.WithMerge(reg)), table.WithMergeRegistry(reg))
	defer d.Close()

	union := func(existing, operand []string) ([]string, error) {
		seen := make(map[string]bool, len(existing))
		merged := append([]string(nil), existing...)
		for _, s := range existing {
			seen[s] = true
		}
		for _, s := range operand {
			if !seen[s] {
				merged = append(merged, s)
				seen[s] = true
			}
		}
		return merged, nil
	}

	words, err := table.OpenMerge(d, "words", codec.StringKey(), codec.JSONValue[[]string](), union)
	require.NoError(t, err)

	require.NoError(t, words.Merge("fruit", []string{"apple"}))
	require.NoError(t, words.Merge("fruit", []string{"pear", "apple"}))

	got, err := words.Get("fruit")
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "pear"}, got)
}

func TestOpenMergeRequiresRegistry(t *testing.T) {
	d := newDB(t) // no merge registry

	_, err := table.OpenMerge(d, "counters", codec.StringKey(), codec.Uint64Value(), addCounters)
	assert.ErrorIs(t, err, db.ErrMergeUnsupported)
}

func TestMergeTableSchemaStillChecked(t *testing.T) {
	reg := db.NewMergeRegistry()
	d := table.New(memory.New(memory.WithMerge(reg)), table.WithMergeRegistry(reg))
	defer d.Close()

	_, err := table.OpenMerge(d, "counters", codec.StringKey(), codec.Uint64Value(), addCounters)
	require.NoError(t, err)

	_, err = table.Open(d, "counters", codec.StringKey(), codec.StringValue())
	var conflict *table.SchemaConflictError
	assert.ErrorAs(t, err, &conflict)
}
