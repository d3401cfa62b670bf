package itemcodec

import "github.com/ordishs/lidario/rangecoder"

// Codec is the common shape every per-item codec in this package satisfies.
// The chunk/pointio layers drive a list of Codecs, one per configured Item,
// without needing to know each item's concrete type.
type Codec interface {
	// Reset reinitializes prediction state and model tables at a chunk
	// boundary (spec §4.E).
	Reset()
	// Encode codes this item's fields out of r.
	Encode(e *rangecoder.Encoder, r *Record)
	// Decode decodes this item's fields into r.
	Decode(d *rangecoder.Decoder, r *Record)
}

var (
	_ Codec = (*Point10Codec)(nil)
	_ Codec = (*GPSTime11Codec)(nil)
	_ Codec = (*RGB12Codec)(nil)
	_ Codec = (*NIRCodec)(nil)
	_ Codec = (*WavePacket13Codec)(nil)
	_ Codec = (*ByteCodec)(nil)
	_ Codec = (*Point14Codec)(nil)
	_ Codec = (*RGBNIR14Codec)(nil)
)

// New constructs the Codec for a configured Item. TypeByte/TypeByte14
// items take their byte count from Item.Size. It returns nil for an item
// type it has no codec for.
func New(item Item) Codec {
	switch item.Type {
	case TypePoint10:
		return NewPoint10Codec()
	case TypeGPSTime11:
		return NewGPSTime11Codec()
	case TypeRGB12:
		return NewRGB12Codec()
	case TypeWavePacket13:
		return NewWavePacket13Codec()
	case TypeByte, TypeByte14:
		return NewByteCodec(int(item.Size))
	case TypePoint14:
		return NewPoint14Codec()
	case TypeRGB14:
		return NewRGB14Codec()
	case TypeRGBNIR14:
		return NewRGBNIR14Codec()
	default:
		return nil
	}
}
