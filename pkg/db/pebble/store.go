package pebble

import (
	"errors"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/tablekv/tablekv/pkg/db"
)

// KVStore is a pebble-backed implementation of db.KVStore. A single open
// store is safe for concurrent use by multiple goroutines; single-key
// operations are atomic and batches commit atomically.
type KVStore struct {
	db     *pebble.DB
	merge  *db.MergeRegistry
	closed bool
	mu     sync.RWMutex
}

// Option configures a store before it is opened.
type Option func(*config)

type config struct {
	merge *db.MergeRegistry
	fs    vfs.FS
}

// WithMerge installs a merge registry. The registry may still be empty at
// open time; functions are resolved when operands are applied, so merge
// tables can register after the engine is up.
func WithMerge(reg *db.MergeRegistry) Option {
	return func(c *config) { c.merge = reg }
}

// New opens (creating if necessary) a pebble database at path.
func New(path string, opts ...Option) (*KVStore, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return open(path, cfg)
}

// NewMem opens a store backed by an in-memory filesystem. Intended for tests
// and ephemeral use; contents are lost on Close.
func NewMem(opts ...Option) (*KVStore, error) {
	cfg := config{fs: vfs.NewMem()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return open("", cfg)
}

func open(path string, cfg config) (*KVStore, error) {
	popts := &pebble.Options{
		Cache:        pebble.NewCache(64 * 1024 * 1024),
		MemTableSize: 32 * 1024 * 1024,
		FS:           cfg.fs,
	}
	if cfg.merge != nil {
		popts.Merger = newMerger(cfg.merge)
	}

	pdb, err := pebble.Open(path, popts)
	if err != nil {
		return nil, err
	}

	return &KVStore{db: pdb, merge: cfg.merge}, nil
}

func (p *KVStore) Get(key []byte) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, db.ErrClosed
	}

	value, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func (p *KVStore) Put(key, value []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return db.ErrClosed
	}

	return p.db.Set(key, value, pebble.Sync)
}

func (p *KVStore) Delete(key []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return db.ErrClosed
	}

	return p.db.Delete(key, pebble.Sync)
}

func (p *KVStore) Merge(key, value []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return db.ErrClosed
	}
	if p.merge == nil {
		return db.ErrMergeUnsupported
	}

	return p.db.Merge(key, value, pebble.Sync)
}

func (p *KVStore) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.db.Close()
}
