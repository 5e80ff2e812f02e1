package codec

import (
	"bytes"
	"encoding/binary"
)

// Fixed-width integer keys encode big-endian so that numeric order matches
// byte order. Signed keys flip the sign bit so negatives sort before
// positives.

type uint64Key struct{}

// Uint64Key returns the order-preserving codec for uint64 keys.
func Uint64Key() Key[uint64] { return uint64Key{} }

func (uint64Key) Name() string { return "uint64-be" }

func (uint64Key) EncodeKey(k uint64) ([]byte, error) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, k)
	return buf, nil
}

func (uint64Key) DecodeKey(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, decodeErrorf("uint64-be", "want 8 bytes, got %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

type uint32Key struct{}

// Uint32Key returns the order-preserving codec for uint32 keys.
func Uint32Key() Key[uint32] { return uint32Key{} }

func (uint32Key) Name() string { return "uint32-be" }

func (uint32Key) EncodeKey(k uint32) ([]byte, error) {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, k)
	return buf, nil
}

func (uint32Key) DecodeKey(data []byte) (uint32, error) {
	if len(data) != 4 {
		return 0, decodeErrorf("uint32-be", "want 4 bytes, got %d", len(data))
	}
	return binary.BigEndian.Uint32(data), nil
}

type int64Key struct{}

// Int64Key returns the order-preserving codec for int64 keys.
func Int64Key() Key[int64] { return int64Key{} }

func (int64Key) Name() string { return "int64-be" }

const signBit = uint64(1) << 63

func (int64Key) EncodeKey(k int64) ([]byte, error) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(k)^signBit)
	return buf, nil
}

func (int64Key) DecodeKey(data []byte) (int64, error) {
	if len(data) != 8 {
		return 0, decodeErrorf("int64-be", "want 8 bytes, got %d", len(data))
	}
	return int64(binary.BigEndian.Uint64(data) ^ signBit), nil
}

// Variable-length keys use an escape encoding: every 0x00 in the key becomes
// {0x00, 0xFF} and the encoding ends with the terminator {0x00, 0x01}. The
// terminator sorts below every escaped byte, which keeps byte order aligned
// with the unencoded order and makes every encoding prefix-free.
const (
	escByte = 0x00
	escLit  = 0xFF // escByte escLit == literal 0x00
	escTerm = 0x01 // escByte escTerm == end of key
)

func escapeKey(k []byte) []byte {
	buf := make([]byte, 0, len(k)+2)
	for _, b := range k {
		if b == escByte {
			buf = append(buf, escByte, escLit)
			continue
		}
		buf = append(buf, b)
	}
	return append(buf, escByte, escTerm)
}

func unescapeKey(name string, data []byte) ([]byte, error) {
	var buf []byte
	for i := 0; i < len(data); i++ {
		b := data[i]
		if b != escByte {
			buf = append(buf, b)
			continue
		}
		if i+1 >= len(data) {
			return nil, decodeErrorf(name, "dangling escape byte at offset %d", i)
		}
		i++
		switch data[i] {
		case escLit:
			buf = append(buf, escByte)
		case escTerm:
			if i+1 != len(data) {
				return nil, decodeErrorf(name, "%d trailing bytes after terminator", len(data)-i-1)
			}
			if buf == nil {
				buf = []byte{}
			}
			return buf, nil
		default:
			return nil, decodeErrorf(name, "invalid escape sequence 0x00 0x%02x at offset %d", data[i], i-1)
		}
	}
	return nil, decodeErrorf(name, "missing terminator")
}

type stringKey struct{}

// StringKey returns the order-preserving codec for string keys.
func StringKey() Key[string] { return stringKey{} }

func (stringKey) Name() string { return "string-esc" }

func (stringKey) EncodeKey(k string) ([]byte, error) {
	return escapeKey([]byte(k)), nil
}

func (stringKey) DecodeKey(data []byte) (string, error) {
	raw, err := unescapeKey("string-esc", data)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

type bytesKey struct{}

// BytesKey returns the order-preserving codec for []byte keys.
func BytesKey() Key[[]byte] { return bytesKey{} }

func (bytesKey) Name() string { return "bytes-esc" }

func (bytesKey) EncodeKey(k []byte) ([]byte, error) {
	return escapeKey(k), nil
}

func (bytesKey) DecodeKey(data []byte) ([]byte, error) {
	return unescapeKey("bytes-esc", data)
}

// Compare orders two keys the way their encodings order, useful in tests and
// callers that sort before batching.
func Compare[K any](c Key[K], a, b K) (int, error) {
	ea, err := c.EncodeKey(a)
	if err != nil {
		return 0, err
	}
	eb, err := c.EncodeKey(b)
	if err != nil {
		return 0, err
	}
	return bytes.Compare(ea, eb), nil
}
