package itemcodec

import "github.com/ordishs/lidario/rangecoder"

// NumScannerChannels is the number of independent contexts the v3/v4
// layered codecs keep, one per scanner_channel value (spec §4.C).
const NumScannerChannels = 4

// point14Context holds one scanner channel's worth of POINT14 prediction
// state; Point14Codec keeps up to NumScannerChannels of these and switches
// between them per point based on the previously decoded scanner_channel.
type point14Context struct {
	haveLast bool
	last     Record

	dx, dy *rangecoder.IntegerModel
	dz     *rangecoder.IntegerModel

	dIntensity *rangecoder.IntegerModel
	dScanAngle *rangecoder.IntegerModel
	dPSID      *rangecoder.IntegerModel

	returnByte     *rangecoder.SymbolModel // return_number(4) | number_of_returns(4)
	flagsByte      *rangecoder.SymbolModel // scan_dir(1) | edge(1) | classification_flags(4) | scanner_channel(2)
	classification *rangecoder.SymbolModel
	userData       *rangecoder.SymbolModel
}

func newPoint14Context() *point14Context {
	return &point14Context{
		dx:             rangecoder.NewIntegerModel(32),
		dy:             rangecoder.NewIntegerModel(32),
		dz:             rangecoder.NewIntegerModel(32),
		dIntensity:     rangecoder.NewIntegerModel(17),
		dScanAngle:     rangecoder.NewIntegerModel(17),
		dPSID:          rangecoder.NewIntegerModel(17),
		returnByte:     rangecoder.NewSymbolModel(256),
		flagsByte:      rangecoder.NewSymbolModel(256),
		classification: rangecoder.NewSymbolModel(256),
		userData:       rangecoder.NewSymbolModel(256),
	}
}

func (c *point14Context) reset() {
	c.haveLast = false
	c.last = Record{}
	c.dx.Reset()
	c.dy.Reset()
	c.dz.Reset()
	c.dIntensity.Reset()
	c.dScanAngle.Reset()
	c.dPSID.Reset()
	c.returnByte.Reset()
	c.flagsByte.Reset()
	c.classification.Reset()
	c.userData.Reset()
}

func returnByte14(r *Record) uint8 {
	return (r.ReturnNumber & 0xF) | ((r.NumberOfReturns & 0xF) << 4)
}

func setReturnByte14(r *Record, v uint8) {
	r.ReturnNumber = v & 0xF
	r.NumberOfReturns = (v >> 4) & 0xF
}

func flagsByte14(r *Record) uint8 {
	v := uint8(0)
	if r.ScanDirection {
		v |= 1 << 0
	}
	if r.EdgeOfFlight {
		v |= 1 << 1
	}
	v |= (r.ClassificationFlags & 0xF) << 2
	v |= (r.ScannerChannel & 0x3) << 6
	return v
}

func setFlagsByte14(r *Record, v uint8) {
	r.ScanDirection = v&(1<<0) != 0
	r.EdgeOfFlight = v&(1<<1) != 0
	r.ClassificationFlags = (v >> 2) & 0xF
	r.ScannerChannel = (v >> 6) & 0x3
}

// Point14Codec implements the POINT14 item: the v1.4 extended 30-byte core
// point fields, coded per spec §4.C with one context per scanner channel.
type Point14Codec struct {
	ctx       [NumScannerChannels]*point14Context
	lastChan  uint8
	anyPoints bool
}

// NewPoint14Codec returns a fresh POINT14 codec.
func NewPoint14Codec() *Point14Codec {
	c := &Point14Codec{}
	for i := range c.ctx {
		c.ctx[i] = newPoint14Context()
	}
	return c
}

// Reset reinitializes all per-channel contexts at a chunk boundary.
func (c *Point14Codec) Reset() {
	for _, ctx := range c.ctx {
		ctx.reset()
	}
	c.lastChan = 0
	c.anyPoints = false
}

// Encode codes one point's POINT14 fields. Context selection uses the
// previously coded point's scanner_channel (spec §4.C: context is derived
// from the last decoded point's observable fields), never the current
// point's own channel, so a decoder can select the identical context
// before it has decoded anything about the current point.
func (c *Point14Codec) Encode(e *rangecoder.Encoder, r *Record) {
	ctx := c.ctx[c.lastChan&0x3]

	if !ctx.haveLast {
		e.EncodeDirectBits(uint32(r.X), 32)
		e.EncodeDirectBits(uint32(r.Y), 32)
		e.EncodeDirectBits(uint32(r.Z), 32)
		e.EncodeDirectBits(uint32(r.Intensity), 16)
		e.EncodeDirectBits(uint32(r.PointSourceID), 16)
		ctx.returnByte.Encode(e, int(returnByte14(r)))
		ctx.flagsByte.Encode(e, int(flagsByte14(r)))
		ctx.classification.Encode(e, int(r.Classification))
		e.EncodeDirectBits(uint32(uint16(r.ScanAngle14)), 16)
		ctx.userData.Encode(e, int(r.UserData))
		ctx.haveLast = true
		ctx.last = *r
		c.anyPoints = true
		c.lastChan = r.ScannerChannel & 0x3
		return
	}

	ctx.dx.Encode(e, r.X-ctx.last.X)
	ctx.dy.Encode(e, r.Y-ctx.last.Y)
	ctx.dz.Encode(e, r.Z-ctx.last.Z)
	ctx.dIntensity.Encode(e, int32(r.Intensity)-int32(ctx.last.Intensity))
	ctx.returnByte.Encode(e, int(returnByte14(r)))
	ctx.flagsByte.Encode(e, int(flagsByte14(r)))
	ctx.classification.Encode(e, int(r.Classification))
	ctx.dScanAngle.Encode(e, int32(r.ScanAngle14)-int32(ctx.last.ScanAngle14))
	ctx.userData.Encode(e, int(r.UserData))
	ctx.dPSID.Encode(e, int32(r.PointSourceID)-int32(ctx.last.PointSourceID))

	ctx.last = *r
	c.anyPoints = true
	c.lastChan = r.ScannerChannel & 0x3
}

// Decode decodes the next point's POINT14 fields into r, mirroring
// Encode's context selection (the previous point's scanner_channel).
func (c *Point14Codec) Decode(d *rangecoder.Decoder, r *Record) {
	ctx := c.ctx[c.lastChan&0x3]

	if !ctx.haveLast {
		r.X = int32(d.DecodeDirectBits(32))
		r.Y = int32(d.DecodeDirectBits(32))
		r.Z = int32(d.DecodeDirectBits(32))
		r.Intensity = uint16(d.DecodeDirectBits(16))
		r.PointSourceID = uint16(d.DecodeDirectBits(16))
		setReturnByte14(r, uint8(ctx.returnByte.Decode(d)))
		setFlagsByte14(r, uint8(ctx.flagsByte.Decode(d)))
		r.Classification = uint8(ctx.classification.Decode(d))
		r.ScanAngle14 = int16(uint16(d.DecodeDirectBits(16)))
		r.UserData = uint8(ctx.userData.Decode(d))
		ctx.haveLast = true
		ctx.last = *r
		c.lastChan = r.ScannerChannel & 0x3
		return
	}

	r.X = ctx.last.X + ctx.dx.Decode(d)
	r.Y = ctx.last.Y + ctx.dy.Decode(d)
	r.Z = ctx.last.Z + ctx.dz.Decode(d)
	r.Intensity = uint16(int32(ctx.last.Intensity) + ctx.dIntensity.Decode(d))
	setReturnByte14(r, uint8(ctx.returnByte.Decode(d)))
	setFlagsByte14(r, uint8(ctx.flagsByte.Decode(d)))
	r.Classification = uint8(ctx.classification.Decode(d))
	r.ScanAngle14 = int16(int32(ctx.last.ScanAngle14) + ctx.dScanAngle.Decode(d))
	r.UserData = uint8(ctx.userData.Decode(d))
	r.PointSourceID = uint16(int32(ctx.last.PointSourceID) + ctx.dPSID.Decode(d))

	ctx.last = *r
	c.lastChan = r.ScannerChannel & 0x3
}
