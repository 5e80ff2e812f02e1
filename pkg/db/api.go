package db

import (
	"bytes"
	"errors"
	"sync"
)

// KVStore represents an ordered key-value storage engine providing basic
// operations for data manipulation and iteration. It is the only boundary
// through which the typed layer touches persisted bytes.
type KVStore interface {
	Writer
	// Get returns the value stored under key, or ErrNotFound.
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	// Merge applies the registered merge function for the key's namespace to
	// the stored value and the given operand. Stores that were not opened
	// with a merge registry return ErrMergeUnsupported.
	Merge(key []byte, value []byte) error
	NewBatch() Batch
	// NewIterator iterates the half-open range [start, end) in ascending
	// byte order. A nil bound leaves that side unbounded. Iterators must be
	// closed after use.
	NewIterator(start, end []byte) (Iterator, error)
	Close() error
}

type Writer interface {
	Put(key []byte, value []byte) error
}

// Batch represents an atomic batch of operations. All operations in a batch
// are performed atomically on Commit, in insertion order, so a later write
// to a key overrides an earlier one within the same batch.
type Batch interface {
	Writer
	Delete(key []byte) error
	Commit() error
	Close() error
}

// Iterator provides sequential access over a range of key-value pairs.
// Iterators must be closed after use.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Valid() bool
	Close() error
}

var (
	ErrNotFound         = errors.New("db: key not found")
	ErrClosed           = errors.New("db: store is closed")
	ErrBatchDone        = errors.New("db: batch already committed or closed")
	ErrMergeUnsupported = errors.New("db: store opened without a merge registry")
)

// MergeFunc combines an existing encoded value with an encoded operand.
// existing is nil when no value is stored yet. The function must be
// associative: merge(merge(a,b),c) == merge(a,merge(b,c)).
type MergeFunc func(existing, operand []byte) ([]byte, error)

// MergeRegistry maps key-space prefixes to merge functions. The same registry
// instance is handed to the engine at open time and populated later as typed
// merge tables register themselves; engines resolve lazily, at apply time.
type MergeRegistry struct {
	mu  sync.RWMutex
	fns map[string]MergeFunc
}

func NewMergeRegistry() *MergeRegistry {
	return &MergeRegistry{fns: make(map[string]MergeFunc)}
}

// Register binds fn to all keys starting with prefix. Registering the same
// prefix again replaces the previous function.
func (r *MergeRegistry) Register(prefix []byte, fn MergeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fns[string(prefix)] = fn
}

// Resolve returns the merge function whose prefix matches key. Prefixes are
// expected to be mutually prefix-free, so at most one can match.
func (r *MergeRegistry) Resolve(key []byte) (MergeFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for prefix, fn := range r.fns {
		if bytes.HasPrefix(key, []byte(prefix)) {
			return fn, true
		}
	}
	return nil, false
}
