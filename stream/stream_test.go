package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStreamRoundTrip(t *testing.T) {
	w := NewMemoryWriter()
	require.NoError(t, Put32(w, LittleEndian, 0xdeadbeef))
	require.NoError(t, Put64(w, LittleEndian, 0x0102030405060708))
	require.NoError(t, PutF64(w, LittleEndian, 3.14159265))

	r := NewMemoryStream(w.Bytes())
	v32, err := Get32(r, LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), v32)

	v64, err := Get64(r, LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), v64)

	f64, err := GetF64(r, LittleEndian)
	require.NoError(t, err)
	assert.InDelta(t, 3.14159265, f64, 1e-12)
}

func TestMemoryStreamSeek(t *testing.T) {
	w := NewMemoryWriter()
	for i := uint16(0); i < 10; i++ {
		require.NoError(t, Put16(w, LittleEndian, i))
	}

	r := NewMemoryStream(w.Bytes())
	require.NoError(t, r.Seek(6)) // entry at index 3
	v, err := Get16(r, LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, uint16(3), v)

	require.True(t, r.IsSeekable())
	pos, err := r.Tell()
	require.NoError(t, err)
	assert.Equal(t, int64(8), pos)
}

func TestMemoryStreamUnexpectedEOF(t *testing.T) {
	r := NewMemoryStream([]byte{1, 2, 3})
	_, err := Get32(r, LittleEndian)
	require.Error(t, err)
}

func TestMemoryStreamPatchInPlace(t *testing.T) {
	w := NewMemoryWriter()
	require.NoError(t, Put32(w, LittleEndian, 0))
	require.NoError(t, Put32(w, LittleEndian, 111))

	require.NoError(t, w.Seek(0))
	require.NoError(t, Put32(w, LittleEndian, 999))

	r := NewMemoryStream(w.Bytes())
	v, err := Get32(r, LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, uint32(999), v)
}
