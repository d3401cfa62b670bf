package itemcodec

import "github.com/ordishs/lidario/rangecoder"

// numContexts10 is the number of (return_number vs number_of_returns)
// prediction contexts POINT10 keeps, matching spec §4.C's "context derived
// from the last decoded point's observable fields" for the legacy 3-bit
// return fields. Context 0 is "single return" (number_of_returns <= 1), 1 is
// "last return of a multi-return group", 2 is "any earlier return of a
// multi-return group" (first or interior), matching the legacy codec's
// same-return vs cross-return split.
const numContexts10 = 3

// Point10Codec implements the POINT10 item: the legacy 20-byte core point
// fields (X, Y, Z, intensity, return bitfield, classification, scan angle,
// user data, point source id).
type Point10Codec struct {
	haveLast bool
	last     Record

	dx, dy [numContexts10]*rangecoder.IntegerModel
	dz     *rangecoder.IntegerModel

	dIntensity *rangecoder.IntegerModel
	dScanAngle *rangecoder.IntegerModel
	dPSID      *rangecoder.IntegerModel

	bitField       *rangecoder.SymbolModel // return/flags byte as one symbol (0..255)
	classification *rangecoder.SymbolModel
	userData       *rangecoder.SymbolModel
}

// NewPoint10Codec returns a fresh POINT10 codec, models initialized as if
// for the first point of a chunk.
func NewPoint10Codec() *Point10Codec {
	c := &Point10Codec{
		dz:         rangecoder.NewIntegerModel(32),
		dIntensity: rangecoder.NewIntegerModel(17),
		dScanAngle: rangecoder.NewIntegerModel(9),
		dPSID:      rangecoder.NewIntegerModel(17),

		bitField:       rangecoder.NewSymbolModel(256),
		classification: rangecoder.NewSymbolModel(256),
		userData:       rangecoder.NewSymbolModel(256),
	}
	for i := range c.dx {
		c.dx[i] = rangecoder.NewIntegerModel(32)
		c.dy[i] = rangecoder.NewIntegerModel(32)
	}
	return c
}

// Reset reinitializes all models and clears last-value state, as required
// at every chunk boundary (spec §4.E).
func (c *Point10Codec) Reset() {
	c.haveLast = false
	c.last = Record{}
	for i := range c.dx {
		c.dx[i].Reset()
		c.dy[i].Reset()
	}
	c.dz.Reset()
	c.dIntensity.Reset()
	c.dScanAngle.Reset()
	c.dPSID.Reset()
	c.bitField.Reset()
	c.classification.Reset()
	c.userData.Reset()
}

func context10(r *Record) int {
	switch {
	case r.NumberOfReturns <= 1:
		return 0
	case r.ReturnNumber >= r.NumberOfReturns:
		return 1
	default:
		return 2
	}
}

func bitField10(r *Record) uint8 {
	v := r.ReturnNumber & 0x7
	v |= (r.NumberOfReturns & 0x7) << 3
	if r.ScanDirection {
		v |= 1 << 6
	}
	if r.EdgeOfFlight {
		v |= 1 << 7
	}
	return v
}

func setBitField10(r *Record, v uint8) {
	r.ReturnNumber = v & 0x7
	r.NumberOfReturns = (v >> 3) & 0x7
	r.ScanDirection = v&(1<<6) != 0
	r.EdgeOfFlight = v&(1<<7) != 0
}

// Encode codes one point's POINT10 fields against the running prediction
// state and updates that state.
func (c *Point10Codec) Encode(e *rangecoder.Encoder, r *Record) {
	if !c.haveLast {
		e.EncodeDirectBits(uint32(r.X), 32)
		e.EncodeDirectBits(uint32(r.Y), 32)
		e.EncodeDirectBits(uint32(r.Z), 32)
		e.EncodeDirectBits(uint32(r.Intensity), 16)
		e.EncodeDirectBits(uint32(r.PointSourceID), 16)
		c.bitField.Encode(e, int(bitField10(r)))
		c.classification.Encode(e, int(r.Classification))
		e.EncodeDirectBits(uint32(int32(r.ScanAngleRank))&0xFF, 8)
		c.userData.Encode(e, int(r.UserData))
		c.haveLast = true
		c.last = *r
		return
	}

	ctx := context10(&c.last)
	c.dx[ctx].Encode(e, r.X-c.last.X)
	c.dy[ctx].Encode(e, r.Y-c.last.Y)
	c.dz.Encode(e, r.Z-c.last.Z)
	c.dIntensity.Encode(e, int32(r.Intensity)-int32(c.last.Intensity))
	c.bitField.Encode(e, int(bitField10(r)))
	c.classification.Encode(e, int(r.Classification))
	c.dScanAngle.Encode(e, int32(r.ScanAngleRank)-int32(c.last.ScanAngleRank))
	c.userData.Encode(e, int(r.UserData))
	c.dPSID.Encode(e, int32(r.PointSourceID)-int32(c.last.PointSourceID))

	c.last = *r
}

// Decode decodes the next point's POINT10 fields into r.
func (c *Point10Codec) Decode(d *rangecoder.Decoder, r *Record) {
	if !c.haveLast {
		r.X = int32(d.DecodeDirectBits(32))
		r.Y = int32(d.DecodeDirectBits(32))
		r.Z = int32(d.DecodeDirectBits(32))
		r.Intensity = uint16(d.DecodeDirectBits(16))
		r.PointSourceID = uint16(d.DecodeDirectBits(16))
		setBitField10(r, uint8(c.bitField.Decode(d)))
		r.Classification = uint8(c.classification.Decode(d))
		r.ScanAngleRank = int8(d.DecodeDirectBits(8))
		r.UserData = uint8(c.userData.Decode(d))
		c.haveLast = true
		c.last = *r
		return
	}

	ctx := context10(&c.last)
	r.X = c.last.X + c.dx[ctx].Decode(d)
	r.Y = c.last.Y + c.dy[ctx].Decode(d)
	r.Z = c.last.Z + c.dz.Decode(d)
	r.Intensity = uint16(int32(c.last.Intensity) + c.dIntensity.Decode(d))
	setBitField10(r, uint8(c.bitField.Decode(d)))
	r.Classification = uint8(c.classification.Decode(d))
	r.ScanAngleRank = int8(int32(c.last.ScanAngleRank) + c.dScanAngle.Decode(d))
	r.UserData = uint8(c.userData.Decode(d))
	r.PointSourceID = uint16(int32(c.last.PointSourceID) + c.dPSID.Decode(d))

	c.last = *r
}
