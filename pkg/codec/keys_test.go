package codec

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTripKey[K any](t *testing.T, c Key[K], keys []K) {
	t.Helper()
	for _, k := range keys {
		enc, err := c.EncodeKey(k)
		require.NoError(t, err)

		dec, err := c.DecodeKey(enc)
		require.NoError(t, err)
		assert.Equal(t, k, dec)
	}
}

// assertOrdered checks the order law: keys given in ascending logical order
// must encode in strictly ascending byte order.
func assertOrdered[K any](t *testing.T, c Key[K], ascending []K) {
	t.Helper()
	var prev []byte
	for i, k := range ascending {
		enc, err := c.EncodeKey(k)
		require.NoError(t, err)
		if i > 0 {
			assert.Negative(t, bytes.Compare(prev, enc), "key %v must sort after its predecessor", k)
		}
		prev = enc
	}
}

func TestUint64Key(t *testing.T) {
	c := Uint64Key()
	roundTripKey(t, c, []uint64{0, 1, 255, 256, 1 << 32, math.MaxUint64})
	assertOrdered(t, c, []uint64{0, 1, 255, 256, 1 << 32, math.MaxUint64})

	_, err := c.DecodeKey([]byte{1, 2, 3})
	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestUint32Key(t *testing.T) {
	c := Uint32Key()
	roundTripKey(t, c, []uint32{0, 1, 1 << 16, math.MaxUint32})
	assertOrdered(t, c, []uint32{0, 1, 1 << 16, math.MaxUint32})
}

func TestInt64Key(t *testing.T) {
	c := Int64Key()
	keys := []int64{math.MinInt64, -1000, -1, 0, 1, 1000, math.MaxInt64}
	roundTripKey(t, c, keys)
	// Negative keys must sort before non-negative ones
	assertOrdered(t, c, keys)
}

func TestStringKey(t *testing.T) {
	c := StringKey()
	keys := []string{"", "a", "a\x00", "a\x00b", "aa", "ab", "b"}
	roundTripKey(t, c, keys)
	assertOrdered(t, c, keys)
}

func TestBytesKey(t *testing.T) {
	c := BytesKey()
	keys := [][]byte{{}, {0x00}, {0x00, 0x00}, {0x00, 0x01}, {0x01}, {0xff}, {0xff, 0x00}}
	roundTripKey(t, c, keys)
	assertOrdered(t, c, keys)
}

func TestEscapedKeysArePrefixFree(t *testing.T) {
	c := StringKey()
	// "a" is a prefix of "ab"; the encodings must not be
	short, err := c.EncodeKey("a")
	require.NoError(t, err)
	long, err := c.EncodeKey("ab")
	require.NoError(t, err)
	assert.False(t, bytes.HasPrefix(long, short))
}

func TestStringKeyDecodeErrors(t *testing.T) {
	c := StringKey()

	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"missing_terminator", []byte("abc")},
		{"dangling_escape", []byte{'a', 0x00}},
		{"invalid_escape", []byte{'a', 0x00, 0x42}},
		{"trailing_bytes", []byte{'a', 0x00, 0x01, 'x'}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.DecodeKey(tc.data)
			var decodeErr *DecodeError
			assert.ErrorAs(t, err, &decodeErr)
		})
	}
}

func TestCompare(t *testing.T) {
	got, err := Compare(Uint64Key(), 3, 7)
	require.NoError(t, err)
	assert.Equal(t, -1, got)

	got, err = Compare(StringKey(), "b", "b")
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}
