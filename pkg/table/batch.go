package table

import (
	"fmt"
	"sync"

	"github.com/tablekv/tablekv/pkg/db"
)

// Batch collects mutations across one or more tables of the same DB and
// applies them atomically on Commit: either every entry applies or none does.
// Entries keep insertion order, so within one batch a later write to a key
// overrides an earlier one.
//
// An encoding failure during BatchPut/BatchDelete poisons the batch: the
// failing call returns the error and a later Commit refuses to apply
// anything, returning the same error.
type Batch struct {
	db   *DB
	b    db.Batch
	mu   sync.Mutex
	err  error
	done bool
}

// NewBatch starts an empty batch. It must be finished with Commit or Discard.
func (d *DB) NewBatch() *Batch {
	return &Batch{db: d, b: d.kv.NewBatch()}
}

// BatchPut encodes k and v immediately and appends the write to b. No engine
// state changes until b.Commit.
func (t *Table[K, V]) BatchPut(b *Batch, k K, v V) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.done {
		return db.ErrBatchDone
	}
	if t.db != b.db {
		return ErrCrossEngineBatch
	}

	key, err := t.physicalKey(k)
	if err != nil {
		b.err = err
		return err
	}
	data, err := t.value.Encode(v)
	if err != nil {
		b.err = err
		return err
	}
	if err := b.b.Put(key, data); err != nil {
		b.err = engineErr("batch put", err)
		return b.err
	}
	return nil
}

// BatchDelete encodes k immediately and appends the delete to b.
func (t *Table[K, V]) BatchDelete(b *Batch, k K) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.done {
		return db.ErrBatchDone
	}
	if t.db != b.db {
		return ErrCrossEngineBatch
	}

	key, err := t.physicalKey(k)
	if err != nil {
		b.err = err
		return err
	}
	if err := b.b.Delete(key); err != nil {
		b.err = engineErr("batch delete", err)
		return b.err
	}
	return nil
}

// Commit applies the batch atomically through the engine's batch write.
// On failure no entries are applied. The batch is finished either way.
func (b *Batch) Commit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.done {
		return db.ErrBatchDone
	}
	b.done = true

	if b.err != nil {
		// Never apply a partially-encoded batch.
		if closeErr := b.b.Close(); closeErr != nil {
			return fmt.Errorf("tablekv: close poisoned batch: %w (original error: %w)", closeErr, b.err)
		}
		return b.err
	}

	if err := b.b.Commit(); err != nil {
		return engineErr("batch commit", err)
	}
	return b.b.Close()
}

// Discard releases the batch without applying any entry. Further use of the
// batch fails with db.ErrBatchDone. Discarding twice is a no-op.
func (b *Batch) Discard() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.done {
		return nil
	}
	b.done = true
	return b.b.Close()
}
