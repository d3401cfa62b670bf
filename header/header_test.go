package header

import (
	"testing"

	"github.com/ordishs/lidario/stream"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTripV12(t *testing.T) {
	h := New(1, 2)
	h.PointDataFormat = 0
	h.PointDataRecordLength = 20
	h.LegacyNumberOfPointRecords = 42
	h.XOffset, h.YOffset, h.ZOffset = 100, 200, 300
	h.MaxX, h.MinX = 110, 90

	w := stream.NewMemoryWriter()
	require.NoError(t, Save(w, h))

	r := stream.NewMemoryStream(w.Bytes())
	got, err := Load(r)
	require.NoError(t, err)
	require.Equal(t, h.ProjectID, got.ProjectID)
	require.Equal(t, h.PointDataFormat, got.PointDataFormat)
	require.Equal(t, h.LegacyNumberOfPointRecords, got.LegacyNumberOfPointRecords)
	require.Equal(t, h.XOffset, got.XOffset)
	require.Equal(t, h.MaxX, got.MaxX)
	require.Equal(t, uint16(HeaderSize12), got.HeaderSize)
}

func TestHeaderRoundTripV14WithEVLR(t *testing.T) {
	h := New(1, 4)
	h.PointDataFormat = 6
	h.PointDataRecordLength = 30
	h.ExtendedNumberOfPointRecords = 1000
	h.AddVLR("my_one_VLR", 12345, nil, false)
	h.AddVLR("my_other_VLR", 23456, make([]byte, 64), false)
	h.AddVLR(UserIDLAStools, RecordIDLAX, []byte{1, 2, 3}, true)

	w := stream.NewMemoryWriter()
	h.StartOfFirstEVLR = uint64(h.OffsetToPointData) // no point data in this test
	require.NoError(t, Save(w, h))
	_, err := SaveEVLRs(w, h)
	require.NoError(t, err)

	r := stream.NewMemoryStream(w.Bytes())
	got, err := Load(r)
	require.NoError(t, err)
	require.Len(t, got.VLRs, 2)
	require.Len(t, got.EVLRs, 1)
	v, ok := got.GetVLR("my_other_VLR", 23456)
	require.True(t, ok)
	require.Len(t, v.Payload, 64)
	lax, ok := got.GetVLR(UserIDLAStools, RecordIDLAX)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, lax.Payload)
}

func TestAddVLRUpdatesOffsetToPointData(t *testing.T) {
	h := New(1, 2)
	base := h.OffsetToPointData
	h.AddVLR("my_one_VLR", 12345, nil, false)
	h.AddVLR("my_other_VLR", 23456, make([]byte, 64), false)
	require.Equal(t, base+54+54+64, h.OffsetToPointData)
	require.NoError(t, h.CheckInvariant1())
}

func TestPointCountPrefersExtended(t *testing.T) {
	h := New(1, 4)
	h.LegacyNumberOfPointRecords = 5
	h.ExtendedNumberOfPointRecords = 500
	require.Equal(t, uint64(500), h.PointCount())

	h.ExtendedNumberOfPointRecords = 0
	require.Equal(t, uint64(5), h.PointCount())
}

func TestGeoKeysRoundTrip(t *testing.T) {
	h := New(1, 2)
	gk := GeoKeys{
		KeyDirectoryVersion: 1, KeyRevision: 1, MinorRevision: 0,
		Entries: []GeoKeyEntry{{KeyID: 1024, TIFFTagLoc: 0, Count: 1, ValueOrOffset: 1}},
		Doubles: []float64{0.017453292519943295},
		ASCII:   "WGS84",
	}
	h.SetGeoKeys(gk)
	got, ok := h.GetGeoKeys()
	require.True(t, ok)
	require.Equal(t, gk.Entries, got.Entries)
	require.Equal(t, gk.Doubles, got.Doubles)
	require.Equal(t, gk.ASCII, got.ASCII)
}

func TestExtraBytesRoundTrip(t *testing.T) {
	h := New(1, 2)
	descs := []ExtraByteDescriptor{
		{DataType: 9, Options: 0, Name: "amplitude"},
		{DataType: 1, Options: 0, Name: "reflectance"},
	}
	h.SetExtraBytes(descs)
	got, ok := h.GetExtraBytes()
	require.True(t, ok)
	require.Len(t, got, 2)
	require.Equal(t, "amplitude", got[0].Name)
	require.Equal(t, ExtraByteDataType(9), got[0].DataType)
}

func TestStripPrivateVLRs(t *testing.T) {
	h := New(1, 4)
	h.AddVLR(UserIDLASzip, RecordIDLASzip, []byte{1, 2, 3}, false)
	h.SetTiling(TilingVLR{Level: 2})
	h.SetCompatibilityMarker([]byte{9, 9, 9, 9, 9, 9, 9, 9})
	h.AddVLR("my_one_VLR", 12345, nil, false)

	h.StripPrivateVLRs()

	_, ok := h.GetVLR(UserIDLASzip, RecordIDLASzip)
	require.False(t, ok)
	_, ok = h.GetTiling()
	require.False(t, ok)
	require.False(t, h.HasCompatibilityMarker())
	_, ok = h.GetVLR("my_one_VLR", 12345)
	require.True(t, ok, "stripping private VLR kinds must not touch unrelated VLRs")
	require.NoError(t, h.CheckInvariant1())
}

func TestBuildLASzipVLRReplacesStaleDescriptor(t *testing.T) {
	h := New(1, 2)
	h.PointDataFormat = 1
	h.AddVLR(UserIDLASzip, RecordIDLASzip, []byte{0xff, 0xff, 0xff}, false) // stale from a prior Load

	_, err := h.BuildLASzipVLR(0)
	require.NoError(t, err)

	count := 0
	for _, v := range h.VLRs {
		if v.UserID == UserIDLASzip && v.RecordID == RecordIDLASzip {
			count++
		}
	}
	require.Equal(t, 1, count, "BuildLASzipVLR must replace, not duplicate, an existing LASzip VLR")
}

func TestSuggestScaleOffsetAndOverflow(t *testing.T) {
	xs := []float64{100.0, 200.5, 150.25}
	ys := []float64{-50.0, 0.0, 25.5}
	zs := []float64{10.0, 12.5, 11.0}
	scale, offset := SuggestScaleOffset(xs, ys, zs)
	require.Greater(t, scale[0], 0.0)
	require.Greater(t, scale[1], 0.0)
	require.Greater(t, scale[2], 0.0)
	_, err := Quantize(150.0, scale[0], offset[0])
	require.NoError(t, err)
	_, err = Quantize(0.0, scale[1], offset[1])
	require.NoError(t, err)

	err = CheckOverflow(1e18, 0.01, 0)
	require.Error(t, err)
}
