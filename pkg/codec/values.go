package codec

import (
	"encoding/binary"
	"encoding/json"

	"github.com/ChainSafe/gossamer/pkg/scale"
)

type jsonValue[V any] struct {
	name string
}

// JSONValue returns a value codec backed by encoding/json. The codec name
// embeds the Go type name, so reopening a table with a different value type
// is detected as a schema conflict.
func JSONValue[V any]() Value[V] {
	return jsonValue[V]{name: "json:" + typeName[V]()}
}

func (c jsonValue[V]) Name() string { return c.name }

func (c jsonValue[V]) Encode(v V) ([]byte, error) {
	return json.Marshal(v)
}

func (c jsonValue[V]) Decode(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, &DecodeError{Codec: c.name, Cause: err}
	}
	return v, nil
}

type scaleValue[V any] struct {
	name string
}

// ScaleValue returns a value codec backed by SCALE encoding. More compact
// than JSON; field order in V is part of the wire format.
func ScaleValue[V any]() Value[V] {
	return scaleValue[V]{name: "scale:" + typeName[V]()}
}

func (c scaleValue[V]) Name() string { return c.name }

func (c scaleValue[V]) Encode(v V) ([]byte, error) {
	return scale.Marshal(v)
}

func (c scaleValue[V]) Decode(data []byte) (V, error) {
	var v V
	if err := scale.Unmarshal(data, &v); err != nil {
		return v, &DecodeError{Codec: c.name, Cause: err}
	}
	return v, nil
}

type stringValue struct{}

// StringValue returns a codec that stores strings as their raw bytes.
func StringValue() Value[string] { return stringValue{} }

func (stringValue) Name() string { return "string-raw" }

func (stringValue) Encode(v string) ([]byte, error) {
	return []byte(v), nil
}

func (stringValue) Decode(data []byte) (string, error) {
	return string(data), nil
}

type bytesValue struct{}

// BytesValue returns a codec that stores byte slices as-is.
func BytesValue() Value[[]byte] { return bytesValue{} }

func (bytesValue) Name() string { return "bytes-raw" }

func (bytesValue) Encode(v []byte) ([]byte, error) {
	return v, nil
}

func (bytesValue) Decode(data []byte) ([]byte, error) {
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

type uint64Value struct{}

// Uint64Value returns a fixed-width codec for uint64 values.
func Uint64Value() Value[uint64] { return uint64Value{} }

func (uint64Value) Name() string { return "uint64-fixed" }

func (uint64Value) Encode(v uint64) ([]byte, error) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf, nil
}

func (uint64Value) Decode(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, decodeErrorf("uint64-fixed", "want 8 bytes, got %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}
