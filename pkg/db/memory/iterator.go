package memory

import (
	"github.com/google/btree"

	"github.com/tablekv/tablekv/pkg/db"
)

// Iterator walks a half-open key range in ascending order. The range is
// materialized under the store's read lock at creation time, so an iterator
// observes a consistent snapshot and concurrent writes are not visible.
type Iterator struct {
	items []*item
	pos   int
}

func (s *Store) NewIterator(start, end []byte) (db.Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, db.ErrClosed
	}

	it := &Iterator{pos: -1}
	visit := func(i btree.Item) bool {
		it.items = append(it.items, i.(*item))
		return true
	}

	switch {
	case start == nil && end == nil:
		s.tree.Ascend(visit)
	case start == nil:
		s.tree.AscendLessThan(&item{key: end}, visit)
	case end == nil:
		s.tree.AscendGreaterOrEqual(&item{key: start}, visit)
	default:
		s.tree.AscendRange(&item{key: start}, &item{key: end}, visit)
	}

	return it, nil
}

func (it *Iterator) Next() bool {
	if it.pos+1 >= len(it.items) {
		it.pos = len(it.items)
		return false
	}
	it.pos++
	return true
}

func (it *Iterator) Valid() bool {
	return it.pos >= 0 && it.pos < len(it.items)
}

func (it *Iterator) Key() []byte {
	if !it.Valid() {
		return nil
	}
	key := it.items[it.pos].key
	result := make([]byte, len(key))
	copy(result, key)
	return result
}

func (it *Iterator) Value() ([]byte, error) {
	if !it.Valid() {
		return nil, db.ErrNotFound
	}
	value := it.items[it.pos].value
	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func (it *Iterator) Close() error {
	it.items = nil
	it.pos = 0
	return nil
}
