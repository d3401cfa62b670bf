package pointio

import (
	"testing"

	"github.com/ordishs/lidario/itemcodec"
	"github.com/ordishs/lidario/laszip"
	"github.com/ordishs/lidario/stream"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	desc, err := laszip.BuildDefault(3, 0, 20)
	require.NoError(t, err)

	recs := []itemcodec.Record{
		{X: 100, Y: 200, Z: 300, Intensity: 50, RGB: [3]uint16{1, 2, 3}, Classification: 2},
		{X: 105, Y: 198, Z: 301, Intensity: 60, RGB: [3]uint16{4, 5, 6}, Classification: 2},
		{X: 110, Y: 196, Z: 303, Intensity: 70, RGB: [3]uint16{7, 8, 9}, Classification: 5},
	}

	w := Open(desc)
	for i := range recs {
		require.NoError(t, w.WritePoint(&recs[i]))
	}
	out := stream.NewMemoryWriter()
	total, err := w.Close(out)
	require.NoError(t, err)
	require.Equal(t, uint64(3), total)

	in := stream.NewMemoryStream(out.Bytes())
	r, err := OpenReader(in, desc)
	require.NoError(t, err)
	require.Equal(t, uint64(3), r.TotalPoints())

	for i := range recs {
		var got itemcodec.Record
		require.NoError(t, r.ReadPoint(&got))
		require.Equal(t, recs[i].X, got.X, "point %d", i)
		require.Equal(t, recs[i].RGB, got.RGB, "point %d", i)
		require.Equal(t, recs[i].Classification, got.Classification, "point %d", i)
	}
}

func TestReaderSelectiveDecode(t *testing.T) {
	desc, err := laszip.BuildDefault(2, 0, 20)
	require.NoError(t, err)

	recs := []itemcodec.Record{
		{X: 1, Y: 2, Z: 3, RGB: [3]uint16{10, 20, 30}},
	}
	w := Open(desc)
	require.NoError(t, w.WritePoint(&recs[0]))
	out := stream.NewMemoryWriter()
	_, err = w.Close(out)
	require.NoError(t, err)

	in := stream.NewMemoryStream(out.Bytes())
	r, err := OpenReader(in, desc)
	require.NoError(t, err)
	r.SetSelective(Selective{XYZ: true})

	var got itemcodec.Record
	require.NoError(t, r.ReadPoint(&got))
	require.Equal(t, recs[0].X, got.X)
	require.Equal(t, [3]uint16{}, got.RGB)
}
