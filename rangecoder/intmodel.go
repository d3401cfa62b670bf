package rangecoder

// IntegerModel codes a signed integer residual via the composite
// (exponent_bucket, remainder) scheme of spec §4.B: an adaptive SymbolModel
// picks how many bits the magnitude needs, the remaining bits below the
// implicit leading one are coded as raw direct bits, and a single adaptive
// bit model codes the sign. This is the shared primitive every per-field
// predictor in package itemcodec codes its residual with; callers keep one
// IntegerModel per "kind" (same-return vs cross-return, per §4.C) so each
// kind adapts independently.
type IntegerModel struct {
	bits    *SymbolModel
	sign    uint16
	maxBits int
}

// NewIntegerModel returns a model for signed values whose magnitude fits in
// maxBits bits (maxBits=32 covers any int32 residual).
func NewIntegerModel(maxBits int) *IntegerModel {
	return &IntegerModel{
		bits:    NewSymbolModel(maxBits + 1),
		sign:    modelBitTotal / 2,
		maxBits: maxBits,
	}
}

// Reset reinitializes the model at a chunk boundary.
func (im *IntegerModel) Reset() {
	im.bits.Reset()
	im.sign = modelBitTotal / 2
}

func bitLength(v uint32) int {
	n := 0
	for v != 0 {
		v >>= 1
		n++
	}
	return n
}

// Encode codes v and updates the model.
func (im *IntegerModel) Encode(e *Encoder, v int32) {
	var mag uint32
	neg := v < 0
	if neg {
		mag = uint32(-int64(v))
	} else {
		mag = uint32(v)
	}
	k := bitLength(mag)
	im.bits.Encode(e, k)
	if k > 1 {
		e.EncodeDirectBits(mag&((1<<uint(k-1))-1), k-1)
	}
	if k > 0 {
		bit := 0
		if neg {
			bit = 1
		}
		e.EncodeBit(&im.sign, bit)
	}
}

// Decode decodes the next residual and updates the model.
func (im *IntegerModel) Decode(d *Decoder) int32 {
	k := im.bits.Decode(d)
	var mag uint32
	if k > 0 {
		mag = 1 << uint(k-1)
		if k > 1 {
			mag |= d.DecodeDirectBits(k - 1)
		}
		if d.DecodeBit(&im.sign) == 1 {
			return -int32(mag)
		}
	}
	return int32(mag)
}
