package table

import (
	"errors"
	"fmt"

	"github.com/tablekv/tablekv/pkg/db"
)

var (
	// ErrNotFound is returned by Get when no value is stored under the key.
	ErrNotFound = db.ErrNotFound

	// ErrClosed is returned once the owning DB has been closed.
	ErrClosed = errors.New("tablekv: database is closed")

	// ErrCrossEngineBatch is returned when a batch is used with a table that
	// belongs to a different DB. Batches are atomic within one engine only.
	ErrCrossEngineBatch = errors.New("tablekv: table and batch belong to different databases")
)

// SchemaConflictError reports a namespace tag being reopened with key or
// value types that differ from the recorded binding.
type SchemaConflictError struct {
	Tag     string
	WantKey string
	WantVal string
	HaveKey string
	HaveVal string
}

func (e *SchemaConflictError) Error() string {
	return fmt.Sprintf("tablekv: table %q already bound to <%s, %s>, requested <%s, %s>",
		e.Tag, e.HaveKey, e.HaveVal, e.WantKey, e.WantVal)
}

// NamespaceCollisionError reports two tags in a prefix relation, which would
// make their physical key ranges overlap during scans.
type NamespaceCollisionError struct {
	Tag      string
	Existing string
}

func (e *NamespaceCollisionError) Error() string {
	return fmt.Sprintf("tablekv: tag %q collides with registered tag %q (prefix overlap)", e.Tag, e.Existing)
}

// EngineError wraps an I/O or resource failure from the underlying storage
// engine. The cause is preserved unchanged for errors.Is/As; the typed layer
// never retries on the caller's behalf.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("tablekv: engine %s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

func engineErr(op string, err error) error {
	return &EngineError{Op: op, Err: err}
}
