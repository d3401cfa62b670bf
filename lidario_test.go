package lidario

import (
	"path/filepath"
	"testing"

	"github.com/ordishs/lidario/header"
	"github.com/ordishs/lidario/itemcodec"
	"github.com/stretchr/testify/require"
)

// TestMinimalLAS exercises scenario S1: a single-point, uncompressed LAS
// file with scale 0.01, offset 0.
func TestMinimalLAS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.las")

	h := header.New(1, 2)
	h.PointDataFormat = 0
	h.XScale, h.YScale, h.ZScale = 0.01, 0.01, 0.01

	w, err := Create(path, h)
	require.NoError(t, err)
	require.NoError(t, w.WritePoint(itemcodec.Record{Intensity: 0}, 0.01, 0.01, 0.01))
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, uint64(1), r.TotalPoints())
	var rec itemcodec.Record
	x, y, z, err := r.ReadPoint(&rec)
	require.NoError(t, err)
	require.InDelta(t, 0.01, x, 1e-9)
	require.InDelta(t, 0.01, y, 1e-9)
	require.InDelta(t, 0.01, z, 1e-9)

	got := r.Header()
	require.Equal(t, uint64(1), got.PointCount())
	require.InDelta(t, 0.01, got.MaxX, 1e-9)
	require.InDelta(t, 0.01, got.MinX, 1e-9)
	require.InDelta(t, 0.01, got.MaxZ, 1e-9)
}

// TestLAZChunkedRoundTrip exercises scenario S2: a chunked LAZ write/read
// of 100 points, chunk size 32 (4 chunks). Seeking is covered by TestLAZSeek.
func TestLAZChunkedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunked.laz")

	h := header.New(1, 2)
	h.PointDataFormat = 1
	h.XScale, h.YScale, h.ZScale = 1, 1, 1

	w, err := Create(path, h, WithChunkSize(32))
	require.NoError(t, err)
	const n = 100
	for i := 0; i < n; i++ {
		rec := itemcodec.Record{Intensity: uint16(i), GPSTime: 0.0006 * float64(i)}
		require.NoError(t, w.WritePoint(rec, float64(i), float64(i), float64(i)))
	}
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, uint64(n), r.TotalPoints())

	for i := 0; i < n; i++ {
		var rec itemcodec.Record
		x, y, z, err := r.ReadPoint(&rec)
		require.NoError(t, err, "point %d", i)
		require.InDelta(t, float64(i), x, 1e-6, "point %d x", i)
		require.InDelta(t, float64(i), y, 1e-6, "point %d y", i)
		require.InDelta(t, float64(i), z, 1e-6, "point %d z", i)
		require.Equal(t, uint16(i), rec.Intensity, "point %d intensity", i)
		require.InDelta(t, 0.0006*float64(i), rec.GPSTime, 1e-9, "point %d gps", i)
	}
}

// TestLAZSeek exercises scenario S4: seeking directly to point 50 in the
// file from TestLAZChunkedRoundTrip's setup.
func TestLAZSeek(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seek.laz")

	h := header.New(1, 2)
	h.PointDataFormat = 1
	h.XScale, h.YScale, h.ZScale = 1, 1, 1

	w, err := Create(path, h, WithChunkSize(32))
	require.NoError(t, err)
	const n = 100
	for i := 0; i < n; i++ {
		rec := itemcodec.Record{Intensity: uint16(i), GPSTime: 0.0006 * float64(i)}
		require.NoError(t, w.WritePoint(rec, float64(i), float64(i), float64(i)))
	}
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Seek(50))
	var rec itemcodec.Record
	x, _, _, err := r.ReadPoint(&rec)
	require.NoError(t, err)
	require.InDelta(t, 50.0, x, 1e-6)
	require.Equal(t, uint16(50), rec.Intensity)
}

// TestVLRRoundTrip exercises scenario S5: two extra VLRs survive a LAZ
// round trip, with offset_to_point_data growing by at least 54+0+54+64.
func TestVLRRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vlrs.laz")

	h := header.New(1, 2)
	h.PointDataFormat = 0
	h.XScale, h.YScale, h.ZScale = 0.01, 0.01, 0.01
	baseline := h.OffsetToPointData

	h.AddVLR("my_one_VLR", 12345, nil, false)
	h.AddVLR("my_other_VLR", 23456, make([]byte, 64), false)

	w, err := Create(path, h)
	require.NoError(t, err)
	require.NoError(t, w.WritePoint(itemcodec.Record{}, 0, 0, 0))
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	got := r.Header()
	v1, ok := got.GetVLR("my_one_VLR", 12345)
	require.True(t, ok)
	require.Empty(t, v1.Payload)
	v2, ok := got.GetVLR("my_other_VLR", 23456)
	require.True(t, ok)
	require.Len(t, v2.Payload, 64)

	// The LASzip descriptor VLR is also present, so the delta includes it;
	// confirm at least the two explicit VLRs' contribution is present.
	require.GreaterOrEqual(t, got.OffsetToPointData, baseline+54+0+54+64)
}

// TestCompatibilityTransform exercises scenario S6: a v1.4 extended
// format 6 point stream written through the §4.I compatibility transform
// into a format-1 LAZ file, then restored bit-for-bit on read.
func TestCompatibilityTransform(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compat.laz")

	h := header.New(1, 2)
	h.PointDataFormat = 6 // extended; Create will down-convert to 1
	h.XScale, h.YScale, h.ZScale = 1, 1, 1

	w, err := Create(path, h, WithCompatibilityMode(true))
	require.NoError(t, err)

	const n = 10
	want := make([]itemcodec.Record, n)
	for i := 0; i < n; i++ {
		rec := itemcodec.Record{
			ReturnNumber:        uint8(i % 15),
			NumberOfReturns:     uint8((i + 1) % 15),
			Classification:      uint8(i * 25), // spans 0..225
			ClassificationFlags: uint8(i % 4),
			ScannerChannel:      uint8(i % 4),
			ScanAngle14:         int16(i * 100),
		}
		want[i] = rec
		require.NoError(t, w.WritePoint(rec, float64(i), float64(i), float64(i)))
	}
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, uint8(6), r.LogicalPointDataFormat())
	require.False(t, r.Header().HasCompatibilityMarker())

	for i := 0; i < n; i++ {
		var got itemcodec.Record
		_, _, _, err := r.ReadPoint(&got)
		require.NoError(t, err, "point %d", i)
		require.Equal(t, want[i].ReturnNumber, got.ReturnNumber, "point %d return#", i)
		require.Equal(t, want[i].NumberOfReturns, got.NumberOfReturns, "point %d numreturns", i)
		require.Equal(t, want[i].Classification, got.Classification, "point %d class", i)
		require.Equal(t, want[i].ClassificationFlags, got.ClassificationFlags, "point %d classflags", i)
		require.Equal(t, want[i].ScannerChannel, got.ScannerChannel, "point %d channel", i)
		require.Equal(t, want[i].ScanAngle14, got.ScanAngle14, "point %d scanangle", i)
	}
}

func TestSniffRejectsAncillaryExtension(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

// TestReusedHeaderDropsPrivateVLRsByDefault exercises spec §4.G: a header
// loaded from an existing LAZ file (carrying a LASzip descriptor and a
// tiling VLR) and reused as the basis for a new write must not carry
// those private VLRs forward into the new file unless the caller asks
// for WithPreservePrivateVLRs.
func TestReusedHeaderDropsPrivateVLRsByDefault(t *testing.T) {
	srcPath := filepath.Join(t.TempDir(), "src.laz")

	h := header.New(1, 2)
	h.PointDataFormat = 0
	h.XScale, h.YScale, h.ZScale = 1, 1, 1
	h.SetTiling(header.TilingVLR{Level: 3, LevelIndex: 7})

	w, err := Create(srcPath, h, WithPreservePrivateVLRs(true))
	require.NoError(t, err)
	require.NoError(t, w.WritePoint(itemcodec.Record{}, 1, 1, 1))
	require.NoError(t, w.Close())

	loaded, err := Open(srcPath)
	require.NoError(t, err)
	reused := loaded.Header()
	_, hadTiling := reused.GetTiling()
	require.True(t, hadTiling)
	require.NoError(t, loaded.Close())

	dstPath := filepath.Join(t.TempDir(), "dst.laz")
	w2, err := Create(dstPath, reused)
	require.NoError(t, err)
	require.NoError(t, w2.WritePoint(itemcodec.Record{}, 2, 2, 2))
	require.NoError(t, w2.Close())

	r2, err := Open(dstPath)
	require.NoError(t, err)
	defer r2.Close()
	_, stillHasTiling := r2.Header().GetTiling()
	require.False(t, stillHasTiling, "stale tiling VLR from the reused header must not leak into the new file")

	// The new file's own LASzip VLR must still be present and valid (it
	// describes THIS write, not the reused header's original write).
	_, err = r2.Header().GetLASzipDescriptor()
	require.NoError(t, err)
}

// TestReusedHeaderPreservesPrivateVLRsWhenAsked exercises the explicit
// opt-in: WithPreservePrivateVLRs(true) carries the reused tiling VLR
// forward verbatim.
func TestReusedHeaderPreservesPrivateVLRsWhenAsked(t *testing.T) {
	srcPath := filepath.Join(t.TempDir(), "src2.laz")

	h := header.New(1, 2)
	h.PointDataFormat = 0
	h.XScale, h.YScale, h.ZScale = 1, 1, 1
	h.SetTiling(header.TilingVLR{Level: 3, LevelIndex: 7})

	w, err := Create(srcPath, h, WithPreservePrivateVLRs(true))
	require.NoError(t, err)
	require.NoError(t, w.WritePoint(itemcodec.Record{}, 1, 1, 1))
	require.NoError(t, w.Close())

	loaded, err := Open(srcPath)
	require.NoError(t, err)
	reused := loaded.Header()
	require.NoError(t, loaded.Close())

	dstPath := filepath.Join(t.TempDir(), "dst2.laz")
	w2, err := Create(dstPath, reused, WithPreservePrivateVLRs(true))
	require.NoError(t, err)
	require.NoError(t, w2.WritePoint(itemcodec.Record{}, 2, 2, 2))
	require.NoError(t, w2.Close())

	r2, err := Open(dstPath)
	require.NoError(t, err)
	defer r2.Close()
	tiling, ok := r2.Header().GetTiling()
	require.True(t, ok)
	require.Equal(t, uint32(3), tiling.Level)
	require.Equal(t, uint32(7), tiling.LevelIndex)
}

// TestSpatialIndexPre14NotAppendedInline exercises the §4.H index on a
// v1.2 file: Close must not grow OffsetToPointData by adding a VLR after
// the point block was already written, so the built index is only
// reachable through Writer.SpatialIndex for the caller to persist.
func TestSpatialIndexPre14NotAppendedInline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index12.las")

	h := header.New(1, 2)
	h.PointDataFormat = 0
	h.XScale, h.YScale, h.ZScale = 1, 1, 1
	baselineOffset := h.OffsetToPointData

	w, err := Create(path, h, WithSpatialIndex(4))
	require.NoError(t, err)
	const n = 20
	for i := 0; i < n; i++ {
		require.NoError(t, w.WritePoint(itemcodec.Record{}, float64(i), float64(i), 0))
	}
	require.NoError(t, w.Close())

	idx := w.SpatialIndex()
	require.NotNil(t, idx)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, baselineOffset, r.Header().OffsetToPointData)
	require.Equal(t, uint64(n), r.TotalPoints())
	_, ok := r.Header().GetVLR(header.UserIDLAStools, header.RecordIDLAX)
	require.False(t, ok)
}

// TestSpatialIndexV14AppendedAsEVLR exercises the §4.H index on a v1.4
// file, where the index is safely appended as an EVLR after the point
// block and is recoverable via Reader.SpatialIndex with no sidecar.
func TestSpatialIndexV14AppendedAsEVLR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index14.las")

	h := header.New(1, 4)
	h.PointDataFormat = 0
	h.XScale, h.YScale, h.ZScale = 1, 1, 1

	w, err := Create(path, h, WithSpatialIndex(4))
	require.NoError(t, err)
	const n = 20
	for i := 0; i < n; i++ {
		require.NoError(t, w.WritePoint(itemcodec.Record{}, float64(i), float64(i), 0))
	}
	require.NoError(t, w.Close())
	require.NotNil(t, w.SpatialIndex())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, ok := r.Header().GetVLR(header.UserIDLAStools, header.RecordIDLAX)
	require.True(t, ok)

	idx, err := r.SpatialIndex("")
	require.NoError(t, err)
	require.NotNil(t, idx)
}
