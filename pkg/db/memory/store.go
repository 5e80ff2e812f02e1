// Package memory provides a btree-backed, in-process implementation of
// db.KVStore. It exists for tests and ephemeral workloads; nothing is
// persisted. Semantics match the pebble adapter: ascending iteration over
// half-open ranges, atomic batches, idempotent deletes.
package memory

import (
	"bytes"
	"sync"

	"github.com/google/btree"

	"github.com/tablekv/tablekv/pkg/db"
)

type item struct {
	key   []byte
	value []byte
}

func (i *item) Less(than btree.Item) bool {
	return bytes.Compare(i.key, than.(*item).key) < 0
}

// Store is an ordered in-memory key-value store. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	tree   *btree.BTree
	merge  *db.MergeRegistry
	closed bool
}

// Option configures a store before use.
type Option func(*Store)

// WithMerge installs a merge registry, enabling Merge.
func WithMerge(reg *db.MergeRegistry) Option {
	return func(s *Store) { s.merge = reg }
}

func New(opts ...Option) *Store {
	s := &Store{tree: btree.New(32)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, db.ErrClosed
	}

	got := s.tree.Get(&item{key: key})
	if got == nil {
		return nil, db.ErrNotFound
	}
	value := got.(*item).value
	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func (s *Store) Put(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return db.ErrClosed
	}

	s.putLocked(key, value)
	return nil
}

func (s *Store) putLocked(key, value []byte) {
	s.tree.ReplaceOrInsert(&item{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
}

func (s *Store) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return db.ErrClosed
	}

	s.tree.Delete(&item{key: key})
	return nil
}

// Merge applies the registered merge function eagerly. Unlike pebble, which
// defers merging to read/compaction time, the result is materialized at once;
// the observable contract is the same.
func (s *Store) Merge(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return db.ErrClosed
	}
	if s.merge == nil {
		return db.ErrMergeUnsupported
	}

	return s.mergeLocked(key, value)
}

func (s *Store) mergeLocked(key, value []byte) error {
	fn, ok := s.merge.Resolve(key)
	if !ok {
		return db.ErrMergeUnsupported
	}

	var existing []byte
	if got := s.tree.Get(&item{key: key}); got != nil {
		existing = got.(*item).value
	}
	merged, err := fn(existing, value)
	if err != nil {
		return err
	}
	s.putLocked(key, merged)
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.tree.Clear(false)
	return nil
}
