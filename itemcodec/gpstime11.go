package itemcodec

import (
	"math"

	"github.com/ordishs/lidario/rangecoder"
)

// GPSTime11Codec implements the GPSTIME11 item: a single float64 gps_time
// per point. GPS time deltas between consecutive points in a flight line
// are usually small, so the common path codes the difference between the
// whole 64-bit IEEE-754 bit patterns of this and the previous gps_time as
// one int32 residual; an escape flag falls back to coding the full
// 64-bit pattern raw whenever the delta would not fit in an int32, which
// keeps the codec always lossless regardless of how the points are ordered.
type GPSTime11Codec struct {
	haveLast bool
	lastBits uint64

	escape  uint16
	deltaHi *rangecoder.IntegerModel
}

// NewGPSTime11Codec returns a fresh GPSTIME11 codec.
func NewGPSTime11Codec() *GPSTime11Codec {
	return &GPSTime11Codec{
		escape:  rangecoder.InitialProb(),
		deltaHi: rangecoder.NewIntegerModel(32),
	}
}

// Reset reinitializes model state at a chunk boundary.
func (c *GPSTime11Codec) Reset() {
	c.haveLast = false
	c.lastBits = 0
	c.escape = rangecoder.InitialProb()
	c.deltaHi.Reset()
}

// Encode codes r.GPSTime.
func (c *GPSTime11Codec) Encode(e *rangecoder.Encoder, r *Record) {
	bits := math.Float64bits(r.GPSTime)
	if !c.haveLast {
		e.EncodeDirectBits(uint32(bits>>32), 32)
		e.EncodeDirectBits(uint32(bits), 32)
		c.haveLast = true
		c.lastBits = bits
		return
	}

	delta := int64(bits) - int64(c.lastBits)
	if delta >= math.MinInt32 && delta <= math.MaxInt32 {
		e.EncodeBit(&c.escape, 0)
		c.deltaHi.Encode(e, int32(delta))
	} else {
		e.EncodeBit(&c.escape, 1)
		e.EncodeDirectBits(uint32(bits>>32), 32)
		e.EncodeDirectBits(uint32(bits), 32)
	}
	c.lastBits = bits
}

// Decode decodes the next gps_time into r.GPSTime.
func (c *GPSTime11Codec) Decode(d *rangecoder.Decoder, r *Record) {
	if !c.haveLast {
		hi := d.DecodeDirectBits(32)
		lo := d.DecodeDirectBits(32)
		bits := uint64(hi)<<32 | uint64(lo)
		r.GPSTime = math.Float64frombits(bits)
		c.haveLast = true
		c.lastBits = bits
		return
	}

	var bits uint64
	if d.DecodeBit(&c.escape) == 0 {
		delta := c.deltaHi.Decode(d)
		bits = uint64(int64(c.lastBits) + int64(delta))
	} else {
		hi := d.DecodeDirectBits(32)
		lo := d.DecodeDirectBits(32)
		bits = uint64(hi)<<32 | uint64(lo)
	}
	r.GPSTime = math.Float64frombits(bits)
	c.lastBits = bits
}
