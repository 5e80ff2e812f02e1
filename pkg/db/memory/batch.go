package memory

import (
	"sync/atomic"

	"github.com/tablekv/tablekv/pkg/db"
)

type opKind uint8

const (
	opPut opKind = iota
	opDelete
)

type op struct {
	kind  opKind
	key   []byte
	value []byte
}

// Batch buffers mutations in insertion order and applies them under a single
// lock acquisition on Commit, so other readers and writers see either none or
// all of the batch.
type Batch struct {
	store *Store
	ops   []op
	done  atomic.Bool
}

func (s *Store) NewBatch() db.Batch {
	return &Batch{store: s}
}

func (b *Batch) Put(key, value []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	b.ops = append(b.ops, op{
		kind:  opPut,
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
	return nil
}

func (b *Batch) Delete(key []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	b.ops = append(b.ops, op{
		kind: opDelete,
		key:  append([]byte(nil), key...),
	})
	return nil
}

func (b *Batch) Commit() error {
	if b.done.Load() {
		return db.ErrBatchDone
	}

	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	if b.store.closed {
		return db.ErrClosed
	}

	for _, o := range b.ops {
		switch o.kind {
		case opPut:
			b.store.putLocked(o.key, o.value)
		case opDelete:
			b.store.tree.Delete(&item{key: o.key})
		}
	}

	b.done.Store(true)
	return nil
}

func (b *Batch) Close() error {
	b.done.Store(true)
	b.ops = nil
	return nil
}
