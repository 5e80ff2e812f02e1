// Package codec converts typed keys and values to and from the byte strings
// stored in the engine.
//
// Value codecs only need to round-trip exactly: Decode(Encode(v)) == v.
// Key codecs additionally guarantee order preservation: if k1 < k2 under the
// key type's ordering, then EncodeKey(k1) < EncodeKey(k2) byte-lexicographically.
// Range scans depend on this law; a key codec that violates it silently
// corrupts scan order.
package codec

import "fmt"

// Key encodes and decodes keys of type K with an order-preserving encoding.
// Implementations must be pure: no side effects, no retained buffers.
type Key[K any] interface {
	// Name is a stable identifier for the codec and the key type it handles.
	// It is compared during table registration to detect schema conflicts,
	// so it must not change between releases or processes.
	Name() string
	EncodeKey(k K) ([]byte, error)
	DecodeKey(data []byte) (K, error)
}

// Value encodes and decodes values of type V. The encoding need not preserve
// ordering, only round-trip exactly.
type Value[V any] interface {
	// Name is a stable identifier compared during table registration.
	Name() string
	Encode(v V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// DecodeError reports bytes that do not match the expected shape for the
// declared type: truncated payloads, invalid escapes, malformed encodings.
// It signals corruption, version skew, or a schema mismatch and is always
// surfaced to the caller, never defaulted away.
type DecodeError struct {
	Codec string
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("codec %q: decode: %v", e.Codec, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

func decodeErrorf(codec, format string, args ...any) *DecodeError {
	return &DecodeError{Codec: codec, Cause: fmt.Errorf(format, args...)}
}

// typeName derives a stable identity for a Go type, used in codec names.
func typeName[T any]() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}
