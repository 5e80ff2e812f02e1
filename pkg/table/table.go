package table

import (
	"errors"

	"github.com/tablekv/tablekv/pkg/codec"
	"github.com/tablekv/tablekv/pkg/db"
)

// Table is a typed view of one namespace within the engine. All operations
// encode through the table's codecs; physical keys (tag ++ encoded key) never
// leave this package. Handles are cheap, shared, and safe for concurrent use.
type Table[K, V any] struct {
	db    *DB
	tag   []byte
	key   codec.Key[K]
	value codec.Value[V]
}

// Open registers tag with the given codecs and returns the table handle.
// The first open of a tag records the binding; later opens with matching
// codec names return the same handle, and mismatched names fail with
// *SchemaConflictError. Tags in a prefix relation with an already-registered
// tag fail with *NamespaceCollisionError.
func Open[K, V any](d *DB, tag string, kc codec.Key[K], vc codec.Value[V]) (*Table[K, V], error) {
	handle, err := d.register(tag, kc.Name(), vc.Name(), func() any {
		return &Table[K, V]{
			db:    d,
			tag:   []byte(tag),
			key:   kc,
			value: vc,
		}
	})
	if err != nil {
		return nil, err
	}
	t, ok := handle.(*Table[K, V])
	if !ok {
		// Codec names matched but the Go instantiation differs. Two codecs
		// sharing a Name for different types is a bug in the codec, reported
		// the same way as any schema conflict.
		haveKey, haveVal := d.bindingNames(tag)
		return nil, &SchemaConflictError{
			Tag:     tag,
			WantKey: kc.Name(), WantVal: vc.Name(),
			HaveKey: haveKey, HaveVal: haveVal,
		}
	}
	return t, nil
}

// Tag returns the table's namespace tag.
func (t *Table[K, V]) Tag() string {
	return string(t.tag)
}

func (t *Table[K, V]) physicalKey(k K) ([]byte, error) {
	enc, err := t.key.EncodeKey(k)
	if err != nil {
		return nil, err
	}
	key := make([]byte, 0, len(t.tag)+len(enc))
	key = append(key, t.tag...)
	return append(key, enc...), nil
}

// Get returns the value stored under k, or ErrNotFound. Stored bytes that no
// longer decode as V surface as *codec.DecodeError: that signals corruption
// or schema drift and is never silently defaulted.
func (t *Table[K, V]) Get(k K) (V, error) {
	var zero V

	key, err := t.physicalKey(k)
	if err != nil {
		return zero, err
	}

	data, err := t.db.kv.Get(key)
	if errors.Is(err, db.ErrNotFound) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, engineErr("get", err)
	}

	return t.value.Decode(data)
}

// Put stores v under k, overwriting any existing value. Atomic at the
// single-key level, inherited from the engine.
func (t *Table[K, V]) Put(k K, v V) error {
	key, err := t.physicalKey(k)
	if err != nil {
		return err
	}
	data, err := t.value.Encode(v)
	if err != nil {
		return err
	}
	if err := t.db.kv.Put(key, data); err != nil {
		return engineErr("put", err)
	}
	return nil
}

// Delete removes k. Deleting an absent key is not an error.
func (t *Table[K, V]) Delete(k K) error {
	key, err := t.physicalKey(k)
	if err != nil {
		return err
	}
	if err := t.db.kv.Delete(key); err != nil {
		return engineErr("delete", err)
	}
	return nil
}

// Range bounds a scan. From is inclusive, To exclusive; a nil bound leaves
// that side open. The scan window is always clipped to the table's namespace.
type Range[K any] struct {
	From *K
	To   *K
}

// FullRange scans the whole table.
func FullRange[K any]() Range[K] {
	return Range[K]{}
}

// Scan returns a cursor over the requested range in ascending key order.
// The cursor must be closed; it is not restartable, and whether it observes
// concurrent writes depends on the engine (pebble and the memory store both
// iterate a snapshot taken at cursor creation).
func (t *Table[K, V]) Scan(r Range[K]) (*Cursor[K, V], error) {
	start := t.tag
	if r.From != nil {
		var err error
		if start, err = t.physicalKey(*r.From); err != nil {
			return nil, err
		}
	}

	end := prefixUpperBound(t.tag)
	if r.To != nil {
		var err error
		if end, err = t.physicalKey(*r.To); err != nil {
			return nil, err
		}
	}

	iter, err := t.db.kv.NewIterator(start, end)
	if err != nil {
		return nil, engineErr("scan", err)
	}
	return &Cursor[K, V]{table: t, iter: iter}, nil
}

// prefixUpperBound returns the smallest key greater than every key starting
// with prefix, or nil if no such key exists (prefix is all 0xFF).
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// Cursor lazily decodes the pairs produced by a scan. A decode failure stops
// iteration and is reported by Err; pairs yielded before the failure remain
// valid.
type Cursor[K, V any] struct {
	table     *Table[K, V]
	iter      db.Iterator
	k         K
	v         V
	err       error
	exhausted bool
	closed    bool
}

// Next advances to the next pair, returning false at the end of the range or
// on the first error.
func (c *Cursor[K, V]) Next() bool {
	if c.closed || c.exhausted || c.err != nil {
		return false
	}
	if !c.iter.Next() {
		c.exhausted = true
		return false
	}

	raw := c.iter.Key()
	k, err := c.table.key.DecodeKey(raw[len(c.table.tag):])
	if err != nil {
		c.err = err
		return false
	}

	data, err := c.iter.Value()
	if err != nil {
		c.err = engineErr("scan value", err)
		return false
	}
	v, err := c.table.value.Decode(data)
	if err != nil {
		c.err = err
		return false
	}

	c.k, c.v = k, v
	return true
}

// Key returns the key of the current pair. Valid after Next returned true.
func (c *Cursor[K, V]) Key() K {
	return c.k
}

// Value returns the value of the current pair. Valid after Next returned true.
func (c *Cursor[K, V]) Value() V {
	return c.v
}

// Err reports the error that stopped iteration, if any.
func (c *Cursor[K, V]) Err() error {
	return c.err
}

// Close releases the underlying engine iterator. Idempotent.
func (c *Cursor[K, V]) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.iter.Close()
}
