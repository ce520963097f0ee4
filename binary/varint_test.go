package binary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarIntBoundaries(t *testing.T) {
	cases := []struct {
		name string
		n    uint64
		len  int
	}{
		{"max 1-byte", 0xfc, 1},
		{"min 3-byte", 0xfd, 3},
		{"max 3-byte", 0xffff, 3},
		{"min 5-byte", 0x10000, 5},
		{"max 5-byte", 0xffffffff, 5},
		{"min 9-byte", 0x100000000, 9},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			enc := PutVarInt(nil, c.n)
			assert.Len(t, enc, c.len)
			assert.Equal(t, c.len, VarIntLen(c.n))

			r := NewReader(enc)
			got, err := r.ReadVarInt()
			require.NoError(t, err)
			assert.Equal(t, c.n, got)
			assert.Equal(t, 0, r.Remaining())
		})
	}
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{0xfd, 0x01})
	_, err := r.ReadVarInt()
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestReadBytesTruncated(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_, err := r.ReadBytes(5)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestVarBytesRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteVarBytes([]byte("hello world"))

	r := NewReader(w.Bytes())
	got, err := r.ReadVarBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), got)
}

func TestUint32And64RoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteUint32LE(0xdeadbeef)
	w.WriteUint64LE(0x0102030405060708)

	r := NewReader(w.Bytes())
	u32, err := r.ReadUint32LE()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), u32)

	u64, err := r.ReadUint64LE()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), u64)
}
