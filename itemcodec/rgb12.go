package itemcodec

import "github.com/ordishs/lidario/rangecoder"

// RGB12Codec implements the RGB12 item: three uint16 colour channels,
// delta-coded per channel against the previous point.
type RGB12Codec struct {
	haveLast bool
	last     [3]uint16
	delta    [3]*rangecoder.IntegerModel
}

// NewRGB12Codec returns a fresh RGB12 codec.
func NewRGB12Codec() *RGB12Codec {
	c := &RGB12Codec{}
	for i := range c.delta {
		c.delta[i] = rangecoder.NewIntegerModel(17)
	}
	return c
}

// Reset reinitializes model state at a chunk boundary.
func (c *RGB12Codec) Reset() {
	c.haveLast = false
	c.last = [3]uint16{}
	for _, m := range c.delta {
		m.Reset()
	}
}

// Encode codes r.RGB.
func (c *RGB12Codec) Encode(e *rangecoder.Encoder, r *Record) {
	if !c.haveLast {
		for i := 0; i < 3; i++ {
			e.EncodeDirectBits(uint32(r.RGB[i]), 16)
		}
		c.haveLast = true
		c.last = r.RGB
		return
	}
	for i := 0; i < 3; i++ {
		c.delta[i].Encode(e, int32(r.RGB[i])-int32(c.last[i]))
	}
	c.last = r.RGB
}

// Decode decodes the next RGB triple into r.RGB.
func (c *RGB12Codec) Decode(d *rangecoder.Decoder, r *Record) {
	if !c.haveLast {
		for i := 0; i < 3; i++ {
			r.RGB[i] = uint16(d.DecodeDirectBits(16))
		}
		c.haveLast = true
		c.last = r.RGB
		return
	}
	for i := 0; i < 3; i++ {
		r.RGB[i] = uint16(int32(c.last[i]) + c.delta[i].Decode(d))
	}
	c.last = r.RGB
}

// NIRCodec implements the single-channel NIR item used alongside RGB14 to
// form RGBNIR14.
type NIRCodec struct {
	haveLast bool
	last     uint16
	delta    *rangecoder.IntegerModel
}

// NewNIRCodec returns a fresh NIR codec.
func NewNIRCodec() *NIRCodec {
	return &NIRCodec{delta: rangecoder.NewIntegerModel(17)}
}

// Reset reinitializes model state at a chunk boundary.
func (c *NIRCodec) Reset() {
	c.haveLast = false
	c.last = 0
	c.delta.Reset()
}

// Encode codes r.NIR.
func (c *NIRCodec) Encode(e *rangecoder.Encoder, r *Record) {
	if !c.haveLast {
		e.EncodeDirectBits(uint32(r.NIR), 16)
		c.haveLast = true
		c.last = r.NIR
		return
	}
	c.delta.Encode(e, int32(r.NIR)-int32(c.last))
	c.last = r.NIR
}

// Decode decodes the next NIR sample into r.NIR.
func (c *NIRCodec) Decode(d *rangecoder.Decoder, r *Record) {
	if !c.haveLast {
		r.NIR = uint16(d.DecodeDirectBits(16))
		c.haveLast = true
		c.last = r.NIR
		return
	}
	r.NIR = uint16(int32(c.last) + c.delta.Decode(d))
	c.last = r.NIR
}
