package itemcodec

import (
	"math/rand"
	"testing"

	"github.com/ordishs/lidario/rangecoder"
	"github.com/stretchr/testify/require"
)

func genPoints10(n int, seed int64) []Record {
	rng := rand.New(rand.NewSource(seed))
	recs := make([]Record, n)
	x, y, z := int32(0), int32(0), int32(0)
	for i := range recs {
		x += int32(rng.Intn(21) - 10)
		y += int32(rng.Intn(21) - 10)
		z += int32(rng.Intn(7) - 3)
		recs[i] = Record{
			X: x, Y: y, Z: z,
			Intensity:       uint16(rng.Intn(4096)),
			ReturnNumber:    uint8(1 + rng.Intn(3)),
			NumberOfReturns: uint8(1 + rng.Intn(3)),
			ScanDirection:   rng.Intn(2) == 1,
			EdgeOfFlight:    rng.Intn(10) == 0,
			Classification:  uint8(rng.Intn(20)),
			ScanAngleRank:   int8(rng.Intn(61) - 30),
			UserData:        uint8(rng.Intn(256)),
			PointSourceID:   uint16(rng.Intn(10)),
		}
	}
	return recs
}

func TestPoint10RoundTrip(t *testing.T) {
	recs := genPoints10(500, 42)

	enc := rangecoder.NewEncoder()
	c := NewPoint10Codec()
	for i := range recs {
		c.Encode(enc, &recs[i])
	}
	out := enc.Finish()

	dec := rangecoder.NewDecoder(out)
	dc := NewPoint10Codec()
	for i := range recs {
		var got Record
		dc.Decode(dec, &got)
		require.Equal(t, recs[i].X, got.X, "point %d X", i)
		require.Equal(t, recs[i].Y, got.Y, "point %d Y", i)
		require.Equal(t, recs[i].Z, got.Z, "point %d Z", i)
		require.Equal(t, recs[i].Intensity, got.Intensity, "point %d intensity", i)
		require.Equal(t, recs[i].ReturnNumber, got.ReturnNumber, "point %d return#", i)
		require.Equal(t, recs[i].NumberOfReturns, got.NumberOfReturns, "point %d numreturns", i)
		require.Equal(t, recs[i].ScanDirection, got.ScanDirection, "point %d scandir", i)
		require.Equal(t, recs[i].EdgeOfFlight, got.EdgeOfFlight, "point %d edge", i)
		require.Equal(t, recs[i].Classification, got.Classification, "point %d class", i)
		require.Equal(t, recs[i].ScanAngleRank, got.ScanAngleRank, "point %d scanangle", i)
		require.Equal(t, recs[i].UserData, got.UserData, "point %d userdata", i)
		require.Equal(t, recs[i].PointSourceID, got.PointSourceID, "point %d psid", i)
	}
}

func TestGPSTime11RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	recs := make([]Record, 300)
	t0 := 123456.789
	for i := range recs {
		t0 += rng.Float64() * 0.01
		recs[i].GPSTime = t0
	}
	// Inject one large jump to exercise the escape path.
	recs[150].GPSTime = t0 + 1e9

	enc := rangecoder.NewEncoder()
	c := NewGPSTime11Codec()
	for i := range recs {
		c.Encode(enc, &recs[i])
	}
	out := enc.Finish()

	dec := rangecoder.NewDecoder(out)
	dc := NewGPSTime11Codec()
	for i := range recs {
		var got Record
		dc.Decode(dec, &got)
		require.Equal(t, recs[i].GPSTime, got.GPSTime, "point %d", i)
	}
}

func TestRGB12RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	recs := make([]Record, 200)
	for i := range recs {
		recs[i].RGB = [3]uint16{uint16(rng.Intn(65536)), uint16(rng.Intn(65536)), uint16(rng.Intn(65536))}
	}

	enc := rangecoder.NewEncoder()
	c := NewRGB12Codec()
	for i := range recs {
		c.Encode(enc, &recs[i])
	}
	out := enc.Finish()

	dec := rangecoder.NewDecoder(out)
	dc := NewRGB12Codec()
	for i := range recs {
		var got Record
		dc.Decode(dec, &got)
		require.Equal(t, recs[i].RGB, got.RGB, "point %d", i)
	}
}

func TestByteCodecRoundTrip(t *testing.T) {
	const n = 5
	rng := rand.New(rand.NewSource(11))
	recs := make([]Record, 150)
	for i := range recs {
		eb := make([]byte, n)
		for j := range eb {
			eb[j] = byte(rng.Intn(256))
		}
		recs[i].ExtraBytes = eb
	}

	enc := rangecoder.NewEncoder()
	c := NewByteCodec(n)
	for i := range recs {
		c.Encode(enc, &recs[i])
	}
	out := enc.Finish()

	dec := rangecoder.NewDecoder(out)
	dc := NewByteCodec(n)
	for i := range recs {
		var got Record
		dc.Decode(dec, &got)
		require.Equal(t, recs[i].ExtraBytes, got.ExtraBytes, "point %d", i)
	}
}

func TestPoint14MultiChannelRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	recs := make([]Record, 400)
	x, y, z := int32(0), int32(0), int32(0)
	for i := range recs {
		x += int32(rng.Intn(21) - 10)
		y += int32(rng.Intn(21) - 10)
		z += int32(rng.Intn(7) - 3)
		recs[i] = Record{
			X: x, Y: y, Z: z,
			Intensity:           uint16(rng.Intn(4096)),
			ReturnNumber:        uint8(1 + rng.Intn(7)),
			NumberOfReturns:     uint8(1 + rng.Intn(7)),
			ScanDirection:       rng.Intn(2) == 1,
			EdgeOfFlight:        rng.Intn(10) == 0,
			ClassificationFlags: uint8(rng.Intn(16)),
			ScannerChannel:      uint8(rng.Intn(4)),
			Classification:      uint8(rng.Intn(256)),
			ScanAngle14:         int16(rng.Intn(60001) - 30000),
			UserData:            uint8(rng.Intn(256)),
			PointSourceID:       uint16(rng.Intn(10)),
		}
	}

	enc := rangecoder.NewEncoder()
	c := NewPoint14Codec()
	for i := range recs {
		c.Encode(enc, &recs[i])
	}
	out := enc.Finish()

	dec := rangecoder.NewDecoder(out)
	dc := NewPoint14Codec()
	for i := range recs {
		var got Record
		dc.Decode(dec, &got)
		require.Equal(t, recs[i], got, "point %d", i)
	}
}
