package table

import (
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached wraps a table with an LRU of decoded values, serving repeated Gets
// without touching the engine or the codec. Writes go to the engine first and
// update the cache only on success.
//
// Coherence is per-wrapper and per-process: writes made through the plain
// table handle, through batches, or by other processes are not seen until the
// entry is evicted or overwritten. Scans always bypass the cache.
type Cached[K comparable, V any] struct {
	table *Table[K, V]
	cache *lru.Cache[K, V]
}

// NewCached wraps t with an LRU holding up to size decoded values.
func NewCached[K comparable, V any](t *Table[K, V], size int) (*Cached[K, V], error) {
	cache, err := lru.New[K, V](size)
	if err != nil {
		return nil, err
	}
	return &Cached[K, V]{table: t, cache: cache}, nil
}

// Table returns the wrapped table, for scans and batch operations.
func (c *Cached[K, V]) Table() *Table[K, V] {
	return c.table
}

func (c *Cached[K, V]) Get(k K) (V, error) {
	if v, ok := c.cache.Get(k); ok {
		return v, nil
	}
	v, err := c.table.Get(k)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.cache.Remove(k)
		}
		return v, err
	}
	c.cache.Add(k, v)
	return v, nil
}

func (c *Cached[K, V]) Put(k K, v V) error {
	if err := c.table.Put(k, v); err != nil {
		return err
	}
	c.cache.Add(k, v)
	return nil
}

func (c *Cached[K, V]) Delete(k K) error {
	if err := c.table.Delete(k); err != nil {
		return err
	}
	c.cache.Remove(k)
	return nil
}

// Len reports the number of cached entries.
func (c *Cached[K, V]) Len() int {
	return c.cache.Len()
}
