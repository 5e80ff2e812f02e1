package table

import (
	"github.com/tablekv/tablekv/pkg/codec"
	"github.com/tablekv/tablekv/pkg/db"
)

// MergeTable is a Table whose values can also be updated with an associative
// merge function, pushed down to the engine's merge operator so concurrent
// merges never lose updates to read-modify-write races.
type MergeTable[K, V any] struct {
	*Table[K, V]
}

// OpenMerge opens a merge table. merge must be associative; its byte-level
// form (decode, merge, re-encode) is registered under the table's namespace
// in the DB's merge registry.
//
// Engines resolve merge functions lazily, so a database holding unapplied
// merge operands must have its merge tables reopened with the same function
// before those keys are read; reading them earlier fails inside the engine.
func OpenMerge[K, V any](d *DB, tag string, kc codec.Key[K], vc codec.Value[V], merge func(existing, operand V) (V, error)) (*MergeTable[K, V], error) {
	if d.merge == nil {
		return nil, db.ErrMergeUnsupported
	}

	t, err := Open(d, tag, kc, vc)
	if err != nil {
		return nil, err
	}

	d.merge.Register(t.tag, func(existing, operand []byte) ([]byte, error) {
		op, err := vc.Decode(operand)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return append([]byte(nil), operand...), nil
		}
		ex, err := vc.Decode(existing)
		if err != nil {
			return nil, err
		}
		merged, err := merge(ex, op)
		if err != nil {
			return nil, err
		}
		return vc.Encode(merged)
	})

	return &MergeTable[K, V]{Table: t}, nil
}

// Merge folds v into the value stored under k using the table's merge
// function. Merging into an absent key stores v itself.
func (t *MergeTable[K, V]) Merge(k K, v V) error {
	key, err := t.physicalKey(k)
	if err != nil {
		return err
	}
	data, err := t.value.Encode(v)
	if err != nil {
		return err
	}
	if err := t.db.kv.Merge(key, data); err != nil {
		return engineErr("merge", err)
	}
	return nil
}
