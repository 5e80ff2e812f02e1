package pebble

import (
	"fmt"
	"io"

	"github.com/cockroachdb/pebble"

	"github.com/tablekv/tablekv/pkg/db"
)

// mergerName is persisted in the pebble manifest; changing it makes existing
// databases unopenable, so it must stay stable.
const mergerName = "tablekv.merge"

func newMerger(reg *db.MergeRegistry) *pebble.Merger {
	return &pebble.Merger{
		Name: mergerName,
		Merge: func(key, value []byte) (pebble.ValueMerger, error) {
			m := &valueMerger{
				key: append([]byte(nil), key...),
				reg: reg,
			}
			m.buf = append([]byte(nil), value...)
			return m, nil
		},
	}
}

// valueMerger folds merge operands for one key through the registered
// MergeFunc. Pebble feeds operands either newest-to-oldest or
// oldest-to-newest; associativity of the function makes both foldings agree.
type valueMerger struct {
	key []byte
	reg *db.MergeRegistry
	buf []byte
}

func (m *valueMerger) fn() (db.MergeFunc, error) {
	fn, ok := m.reg.Resolve(m.key)
	if !ok {
		return nil, fmt.Errorf("pebble: no merge function registered for key prefix of %x", m.key)
	}
	return fn, nil
}

func (m *valueMerger) MergeNewer(value []byte) error {
	fn, err := m.fn()
	if err != nil {
		return err
	}
	out, err := fn(m.buf, value)
	if err != nil {
		return err
	}
	m.buf = out
	return nil
}

func (m *valueMerger) MergeOlder(value []byte) error {
	fn, err := m.fn()
	if err != nil {
		return err
	}
	out, err := fn(append([]byte(nil), value...), m.buf)
	if err != nil {
		return err
	}
	m.buf = out
	return nil
}

func (m *valueMerger) Finish(includesBase bool) ([]byte, io.Closer, error) {
	return m.buf, nil, nil
}
