package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteU32(42)
	w.WriteU64(1 << 40)
	w.WriteString("hello")
	w.WriteString("world")
	w.WriteString("hello") // should become a CacheString back-reference

	r := NewReader(w.Bytes())
	u32, err := r.ReadU32()
	require.NoError(t, err)
	require.Equal(t, uint32(42), u32)

	u64, err := r.ReadU64()
	require.NoError(t, err)
	require.Equal(t, uint64(1<<40), u64)

	s1, err := r.ReadString()
	require.NoError(t, err)
	require.Equal(t, "hello", s1)

	s2, err := r.ReadString()
	require.NoError(t, err)
	require.Equal(t, "world", s2)

	s3, err := r.ReadString()
	require.NoError(t, err)
	require.Equal(t, "hello", s3)

	require.Zero(t, r.Len())
}

func TestOpenCloseNesting(t *testing.T) {
	w := NewWriter()
	w.Open(7)
	w.WriteU32(1)
	w.Open(8)
	w.WriteU32(2)
	w.Close(8)
	w.Close(7)

	r := NewReader(w.Bytes())
	id, err := r.Open()
	require.NoError(t, err)
	require.Equal(t, uint16(7), id)

	v, err := r.ReadU32()
	require.NoError(t, err)
	require.Equal(t, uint32(1), v)

	id2, err := r.Open()
	require.NoError(t, err)
	require.Equal(t, uint16(8), id2)

	v2, err := r.ReadU32()
	require.NoError(t, err)
	require.Equal(t, uint32(2), v2)

	_, err = r.Close()
	require.NoError(t, err)
	_, err = r.Close()
	require.NoError(t, err)
}

func TestWriteListReadListConcatenates(t *testing.T) {
	w := NewWriter()
	items := []uint32{1, 2, 3, 4}
	WriteList(w, items, func(w *Writer, v uint32) { w.WriteU32(v) })

	r := NewReader(w.Bytes())
	got, err := ReadList(r, func(r *Reader) (uint32, error) { return r.ReadU32() })
	require.NoError(t, err)
	require.Equal(t, items, got)
}

func TestCompressRoundTrip(t *testing.T) {
	small := []byte("short")
	require.Equal(t, small, Compress(small, 4096))

	big := make([]byte, 10000)
	for i := range big {
		big[i] = byte(i % 7)
	}
	compressed := Compress(big, 4096)
	require.Less(t, len(compressed), len(big))

	out, err := Decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, big, out)

	out2, err := Decompress(small)
	require.NoError(t, err)
	require.Equal(t, small, out2)
}
