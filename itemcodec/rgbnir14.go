package itemcodec

import "github.com/ordishs/lidario/rangecoder"

// RGB14Codec is the v1.4-context RGB item; it has the same wire shape as
// RGB12Codec (three delta-coded uint16 channels) so it's a thin alias
// rather than a duplicate implementation.
type RGB14Codec = RGB12Codec

// NewRGB14Codec returns a fresh RGB14 codec.
func NewRGB14Codec() *RGB14Codec { return NewRGB12Codec() }

// RGBNIR14Codec implements the RGBNIR14 item: an RGB14 codec plus a NIR
// codec, coded back to back per point.
type RGBNIR14Codec struct {
	rgb *RGB14Codec
	nir *NIRCodec
}

// NewRGBNIR14Codec returns a fresh RGBNIR14 codec.
func NewRGBNIR14Codec() *RGBNIR14Codec {
	return &RGBNIR14Codec{rgb: NewRGB14Codec(), nir: NewNIRCodec()}
}

// Reset reinitializes both embedded codecs at a chunk boundary.
func (c *RGBNIR14Codec) Reset() {
	c.rgb.Reset()
	c.nir.Reset()
}

// Encode codes r.RGB and r.NIR.
func (c *RGBNIR14Codec) Encode(e *rangecoder.Encoder, r *Record) {
	c.rgb.Encode(e, r)
	c.nir.Encode(e, r)
}

// Decode decodes the next point's RGB and NIR fields into r.
func (c *RGBNIR14Codec) Decode(d *rangecoder.Decoder, r *Record) {
	c.rgb.Decode(d, r)
	c.nir.Decode(d, r)
}
