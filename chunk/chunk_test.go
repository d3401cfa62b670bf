package chunk

import (
	"math/rand"
	"testing"

	"github.com/ordishs/lidario/itemcodec"
	"github.com/ordishs/lidario/stream"
	"github.com/stretchr/testify/require"
)

func genRecords(n int, seed int64) []itemcodec.Record {
	rng := rand.New(rand.NewSource(seed))
	recs := make([]itemcodec.Record, n)
	x, y, z := int32(0), int32(0), int32(0)
	for i := range recs {
		x += int32(rng.Intn(21) - 10)
		y += int32(rng.Intn(21) - 10)
		z += int32(rng.Intn(7) - 3)
		recs[i] = itemcodec.Record{
			X: x, Y: y, Z: z,
			Intensity:       uint16(rng.Intn(4096)),
			ReturnNumber:    uint8(1 + rng.Intn(3)),
			NumberOfReturns: uint8(1 + rng.Intn(3)),
			Classification:  uint8(rng.Intn(20)),
			PointSourceID:   uint16(rng.Intn(10)),
		}
	}
	return recs
}

func items() []itemcodec.Item {
	return []itemcodec.Item{{Type: itemcodec.TypePoint10, Size: itemcodec.TypePoint10.DefaultSize()}}
}

func TestWriterReaderRoundTripFixedChunks(t *testing.T) {
	recs := genRecords(250, 1)

	w := NewWriter(items(), 100) // forces 3 chunks (100, 100, 50)
	for i := range recs {
		require.NoError(t, w.WritePoint(&recs[i]))
	}
	out := stream.NewMemoryWriter()
	total, err := w.Close(out)
	require.NoError(t, err)
	require.Equal(t, uint64(len(recs)), total)

	in := stream.NewMemoryStream(out.Bytes())
	r, err := NewReader(in, items())
	require.NoError(t, err)
	require.Equal(t, uint64(len(recs)), r.TotalPoints())
	require.Len(t, r.table.Entries, 3)

	for i := range recs {
		var got itemcodec.Record
		require.NoError(t, r.ReadPoint(&got))
		require.Equal(t, recs[i].X, got.X, "point %d", i)
		require.Equal(t, recs[i].Intensity, got.Intensity, "point %d", i)
		require.Equal(t, recs[i].Classification, got.Classification, "point %d", i)
	}
}

func TestWriterVariableChunking(t *testing.T) {
	recs := genRecords(30, 2)

	w := NewWriter(items(), 0)
	for i, r := range recs {
		require.NoError(t, w.WritePoint(&r))
		if i == 9 || i == 19 {
			require.NoError(t, w.Chunk())
		}
	}
	out := stream.NewMemoryWriter()
	_, err := w.Close(out)
	require.NoError(t, err)

	in := stream.NewMemoryStream(out.Bytes())
	r, err := NewReader(in, items())
	require.NoError(t, err)
	require.Len(t, r.table.Entries, 3)
	require.Equal(t, uint32(10), r.table.Entries[0].Points)
	require.Equal(t, uint32(10), r.table.Entries[1].Points)
	require.Equal(t, uint32(10), r.table.Entries[2].Points)
}

func TestReaderSeek(t *testing.T) {
	recs := genRecords(150, 3)

	w := NewWriter(items(), 50)
	for i := range recs {
		require.NoError(t, w.WritePoint(&recs[i]))
	}
	out := stream.NewMemoryWriter()
	_, err := w.Close(out)
	require.NoError(t, err)

	in := stream.NewMemoryStream(out.Bytes())
	r, err := NewReader(in, items())
	require.NoError(t, err)

	require.NoError(t, r.Seek(120))
	var got itemcodec.Record
	require.NoError(t, r.ReadPoint(&got))
	require.Equal(t, recs[120].X, got.X)
	require.Equal(t, recs[120].Classification, got.Classification)
}
