// Package table is a typed access layer over an ordered key-value engine.
// Callers open strongly-typed tables (logical key/value namespaces) backed by
// one engine instance; the layer owns key encoding, value serialization, and
// schema-conflict detection so call sites never touch raw bytes.
package table

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tablekv/tablekv/pkg/db"
)

// metaPrefix starts every reserved metadata key. Caller tags must not start
// with it, which keeps the metadata region outside every table's scan range
// (it sorts below all permitted tags).
const metaPrefix byte = 0x00

// DB owns the schema registry for one engine instance. All tables opened
// through the same DB share the engine connection; the registry state lives
// exactly as long as the DB.
type DB struct {
	kv      db.KVStore
	merge   *db.MergeRegistry
	persist bool
	log     zerolog.Logger

	mu     sync.Mutex
	tables map[string]*binding
	closed bool
}

type binding struct {
	keyName string
	valName string
	handle  any
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger for lifecycle events (open, register, close).
// Operational errors are never logged, only returned.
func WithLogger(log zerolog.Logger) Option {
	return func(d *DB) { d.log = log }
}

// WithPersistentSchema stores each table's type binding in a reserved
// metadata namespace and verifies it on every open, so schema conflicts are
// detected across process restarts, not only within one process.
func WithPersistentSchema() Option {
	return func(d *DB) { d.persist = true }
}

// WithMergeRegistry enables merge tables. The registry must be the same
// instance the engine was opened with.
func WithMergeRegistry(reg *db.MergeRegistry) Option {
	return func(d *DB) { d.merge = reg }
}

// New wraps an open engine. The DB takes ownership: Close closes the engine.
func New(kv db.KVStore, opts ...Option) *DB {
	d := &DB{
		kv:     kv,
		log:    zerolog.Nop(),
		tables: make(map[string]*binding),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Close tears down the registry and closes the underlying engine. Safe to
// call more than once; only the first call closes the engine.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	d.tables = nil
	d.log.Debug().Msg("closing database")

	if err := d.kv.Close(); err != nil {
		return engineErr("close", err)
	}
	return nil
}

// register validates the tag and the type binding, then returns the existing
// handle or records a new one produced by newHandle. Registration is
// serialized, so a concurrent first open of the same tag resolves with
// exactly one winner and the loser observing the winning handle.
func (d *DB) register(tag, keyName, valName string, newHandle func() any) (any, error) {
	if tag == "" {
		return nil, fmt.Errorf("tablekv: empty table tag")
	}
	if tag[0] == metaPrefix {
		return nil, fmt.Errorf("tablekv: tag %q starts with the reserved metadata byte", tag)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}

	if b, ok := d.tables[tag]; ok {
		if b.keyName != keyName || b.valName != valName {
			return nil, &SchemaConflictError{
				Tag:     tag,
				WantKey: keyName, WantVal: valName,
				HaveKey: b.keyName, HaveVal: b.valName,
			}
		}
		return b.handle, nil
	}

	for existing := range d.tables {
		if strings.HasPrefix(tag, existing) || strings.HasPrefix(existing, tag) {
			return nil, &NamespaceCollisionError{Tag: tag, Existing: existing}
		}
	}

	if d.persist {
		if err := d.checkPersistedSchema(tag, keyName, valName); err != nil {
			return nil, err
		}
	}

	handle := newHandle()
	d.tables[tag] = &binding{keyName: keyName, valName: valName, handle: handle}
	d.log.Debug().
		Str("tag", tag).
		Str("key", keyName).
		Str("value", valName).
		Msg("registered table")
	return handle, nil
}

// bindingNames returns the recorded codec names for tag, if registered.
func (d *DB) bindingNames(tag string) (keyName, valName string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b, ok := d.tables[tag]; ok {
		return b.keyName, b.valName
	}
	return "", ""
}

// schemaRecord is the persisted form of a type binding, stored under
// metaPrefix ++ tag when persistent schema mode is on.
type schemaRecord struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func metaKey(tag string) []byte {
	key := make([]byte, 1+len(tag))
	key[0] = metaPrefix
	copy(key[1:], tag)
	return key
}

func (d *DB) checkPersistedSchema(tag, keyName, valName string) error {
	data, err := d.kv.Get(metaKey(tag))
	switch {
	case errors.Is(err, db.ErrNotFound):
		rec, err := json.Marshal(schemaRecord{Key: keyName, Value: valName})
		if err != nil {
			return fmt.Errorf("tablekv: marshal schema record: %w", err)
		}
		if err := d.kv.Put(metaKey(tag), rec); err != nil {
			return engineErr("put schema record", err)
		}
		return nil
	case err != nil:
		return engineErr("get schema record", err)
	}

	var rec schemaRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("tablekv: corrupt schema record for tag %q: %w", tag, err)
	}
	if rec.Key != keyName || rec.Value != valName {
		return &SchemaConflictError{
			Tag:     tag,
			WantKey: keyName, WantVal: valName,
			HaveKey: rec.Key, HaveVal: rec.Value,
		}
	}
	return nil
}
