package itemcodec

import (
	"math"

	"github.com/ordishs/lidario/rangecoder"
)

// WavePacket13Codec implements the WAVEPACKET13 item (spec §3): descriptor
// index, a 64-bit byte offset into the waveform data, packet size, and the
// float32 return-location/direction vector.
type WavePacket13Codec struct {
	haveLast bool
	last     WavePacket

	descriptor *rangecoder.SymbolModel
	deltaOffHi *rangecoder.IntegerModel
	escapeOff  uint16
	deltaSize  *rangecoder.IntegerModel
	deltaLoc   *rangecoder.IntegerModel
	deltaXt    *rangecoder.IntegerModel
	deltaYt    *rangecoder.IntegerModel
	deltaZt    *rangecoder.IntegerModel
}

// NewWavePacket13Codec returns a fresh WAVEPACKET13 codec.
func NewWavePacket13Codec() *WavePacket13Codec {
	return &WavePacket13Codec{
		descriptor: rangecoder.NewSymbolModel(256),
		deltaOffHi: rangecoder.NewIntegerModel(32),
		escapeOff:  rangecoder.InitialProb(),
		deltaSize:  rangecoder.NewIntegerModel(32),
		deltaLoc:   rangecoder.NewIntegerModel(32),
		deltaXt:    rangecoder.NewIntegerModel(32),
		deltaYt:    rangecoder.NewIntegerModel(32),
		deltaZt:    rangecoder.NewIntegerModel(32),
	}
}

// Reset reinitializes model state at a chunk boundary.
func (c *WavePacket13Codec) Reset() {
	c.haveLast = false
	c.last = WavePacket{}
	c.descriptor.Reset()
	c.deltaOffHi.Reset()
	c.escapeOff = rangecoder.InitialProb()
	c.deltaSize.Reset()
	c.deltaLoc.Reset()
	c.deltaXt.Reset()
	c.deltaYt.Reset()
	c.deltaZt.Reset()
}

// Encode codes r.WavePacket.
func (c *WavePacket13Codec) Encode(e *rangecoder.Encoder, r *Record) {
	wp := r.WavePacket
	c.descriptor.Encode(e, int(wp.DescriptorIndex))

	if !c.haveLast {
		e.EncodeDirectBits(uint32(wp.ByteOffset>>32), 32)
		e.EncodeDirectBits(uint32(wp.ByteOffset), 32)
		e.EncodeDirectBits(wp.PacketSize, 32)
		e.EncodeDirectBits(math.Float32bits(wp.ReturnLocation), 32)
		e.EncodeDirectBits(math.Float32bits(wp.Xt), 32)
		e.EncodeDirectBits(math.Float32bits(wp.Yt), 32)
		e.EncodeDirectBits(math.Float32bits(wp.Zt), 32)
		c.haveLast = true
		c.last = wp
		return
	}

	deltaOff := int64(wp.ByteOffset) - int64(c.last.ByteOffset)
	if deltaOff >= math.MinInt32 && deltaOff <= math.MaxInt32 {
		e.EncodeBit(&c.escapeOff, 0)
		c.deltaOffHi.Encode(e, int32(deltaOff))
	} else {
		e.EncodeBit(&c.escapeOff, 1)
		e.EncodeDirectBits(uint32(wp.ByteOffset>>32), 32)
		e.EncodeDirectBits(uint32(wp.ByteOffset), 32)
	}
	c.deltaSize.Encode(e, int32(wp.PacketSize)-int32(c.last.PacketSize))
	c.deltaLoc.Encode(e, int32(math.Float32bits(wp.ReturnLocation))-int32(math.Float32bits(c.last.ReturnLocation)))
	c.deltaXt.Encode(e, int32(math.Float32bits(wp.Xt))-int32(math.Float32bits(c.last.Xt)))
	c.deltaYt.Encode(e, int32(math.Float32bits(wp.Yt))-int32(math.Float32bits(c.last.Yt)))
	c.deltaZt.Encode(e, int32(math.Float32bits(wp.Zt))-int32(math.Float32bits(c.last.Zt)))

	c.last = wp
}

// Decode decodes the next wavepacket into r.WavePacket.
func (c *WavePacket13Codec) Decode(d *rangecoder.Decoder, r *Record) {
	var wp WavePacket
	wp.DescriptorIndex = uint8(c.descriptor.Decode(d))

	if !c.haveLast {
		hi := d.DecodeDirectBits(32)
		lo := d.DecodeDirectBits(32)
		wp.ByteOffset = uint64(hi)<<32 | uint64(lo)
		wp.PacketSize = d.DecodeDirectBits(32)
		wp.ReturnLocation = math.Float32frombits(d.DecodeDirectBits(32))
		wp.Xt = math.Float32frombits(d.DecodeDirectBits(32))
		wp.Yt = math.Float32frombits(d.DecodeDirectBits(32))
		wp.Zt = math.Float32frombits(d.DecodeDirectBits(32))
		c.haveLast = true
		c.last = wp
		r.WavePacket = wp
		return
	}

	if d.DecodeBit(&c.escapeOff) == 0 {
		delta := c.deltaOffHi.Decode(d)
		wp.ByteOffset = uint64(int64(c.last.ByteOffset) + int64(delta))
	} else {
		hi := d.DecodeDirectBits(32)
		lo := d.DecodeDirectBits(32)
		wp.ByteOffset = uint64(hi)<<32 | uint64(lo)
	}
	wp.PacketSize = uint32(int32(c.last.PacketSize) + c.deltaSize.Decode(d))
	wp.ReturnLocation = math.Float32frombits(uint32(int32(math.Float32bits(c.last.ReturnLocation)) + c.deltaLoc.Decode(d)))
	wp.Xt = math.Float32frombits(uint32(int32(math.Float32bits(c.last.Xt)) + c.deltaXt.Decode(d)))
	wp.Yt = math.Float32frombits(uint32(int32(math.Float32bits(c.last.Yt)) + c.deltaYt.Decode(d)))
	wp.Zt = math.Float32frombits(uint32(int32(math.Float32bits(c.last.Zt)) + c.deltaZt.Decode(d)))

	c.last = wp
	r.WavePacket = wp
}
