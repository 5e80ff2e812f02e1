package table_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablekv/tablekv/pkg/codec"
	"github.com/tablekv/tablekv/pkg/db"
	"github.com/tablekv/tablekv/pkg/table"
)

// flakyUint64Key encodes like a big-endian uint64 key but fails for a chosen
// key, to exercise batch poisoning.
type flakyUint64Key struct {
	failOn uint64
}

func (flakyUint64Key) Name() string { return "flaky-uint64" }

func (c flakyUint64Key) EncodeKey(k uint64) ([]byte, error) {
	if k == c.failOn {
		return nil, errors.New("engineered encode failure")
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, k)
	return buf, nil
}

func (flakyUint64Key) DecodeKey(data []byte) (uint64, error) {
	return binary.BigEndian.Uint64(data), nil
}

func TestBatchCommitAppliesAll(t *testing.T) {
	d := newDB(t)
	users, err := table.Open(d, "users", codec.Uint64Key(), codec.StringValue())
	require.NoError(t, err)
	orders, err := table.Open(d, "orders", codec.Uint64Key(), codec.StringValue())
	require.NoError(t, err)

	b := d.NewBatch()
	require.NoError(t, users.BatchPut(b, 1, "alice"))
	require.NoError(t, orders.BatchPut(b, 100, "book"))
	require.NoError(t, users.BatchDelete(b, 2))

	// Nothing applied before commit
	_, err = users.Get(1)
	assert.ErrorIs(t, err, table.ErrNotFound)

	require.NoError(t, b.Commit())

	got, err := users.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "alice", got)

	got, err = orders.Get(100)
	require.NoError(t, err)
	assert.Equal(t, "book", got)
}

func TestBatchLastWriteWins(t *testing.T) {
	d := newDB(t)
	tbl, err := table.Open(d, "kv", codec.Uint64Key(), codec.StringValue())
	require.NoError(t, err)

	b := d.NewBatch()
	require.NoError(t, tbl.BatchPut(b, 1, "x"))
	require.NoError(t, tbl.BatchPut(b, 1, "y"))
	require.NoError(t, b.Commit())

	got, err := tbl.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "y", got)
}

func TestBatchPoisonedByEncodeFailure(t *testing.T) {
	d := newDB(t)
	tbl, err := table.Open(d, "kv", flakyUint64Key{failOn: 2}, codec.StringValue())
	require.NoError(t, err)

	b := d.NewBatch()
	require.NoError(t, tbl.BatchPut(b, 1, "x"))
	require.Error(t, tbl.BatchPut(b, 2, "y"))

	// Commit must refuse to apply anything, including the first entry
	err = b.Commit()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engineered encode failure")

	_, err = tbl.Get(1)
	assert.ErrorIs(t, err, table.ErrNotFound)
}

func TestBatchDiscard(t *testing.T) {
	d := newDB(t)
	tbl, err := table.Open(d, "kv", codec.Uint64Key(), codec.StringValue())
	require.NoError(t, err)

	b := d.NewBatch()
	require.NoError(t, tbl.BatchPut(b, 1, "x"))
	require.NoError(t, b.Discard())
	require.NoError(t, b.Discard()) // idempotent

	_, err = tbl.Get(1)
	assert.ErrorIs(t, err, table.ErrNotFound)

	// Adds and commit after discard are programming errors
	assert.ErrorIs(t, tbl.BatchPut(b, 2, "y"), db.ErrBatchDone)
	assert.ErrorIs(t, b.Commit(), db.ErrBatchDone)
}

func TestBatchAcrossDatabasesRejected(t *testing.T) {
	d1 := newDB(t)
	d2 := newDB(t)

	t1, err := table.Open(d1, "kv", codec.Uint64Key(), codec.StringValue())
	require.NoError(t, err)

	b := d2.NewBatch()
	defer b.Discard()
	assert.ErrorIs(t, t1.BatchPut(b, 1, "x"), table.ErrCrossEngineBatch)
	assert.ErrorIs(t, t1.BatchDelete(b, 1), table.ErrCrossEngineBatch)
}
