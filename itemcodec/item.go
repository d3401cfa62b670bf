// Package itemcodec implements the per-item encode/decode state machines of
// spec §4.C: one codec per point-record field group (POINT10, GPSTIME11,
// RGB12, WAVEPACKET13, BYTE, POINT14, RGBNIR14), each with context
// selection, last-value prediction and residual coding built on package
// rangecoder.
package itemcodec

// Type identifies an item kind, matching the LASzip descriptor's item type
// enum (spec §4.D).
type Type uint16

const (
	TypeByte Type = iota + 1
	TypePoint10
	TypeGPSTime11
	TypeRGB12
	TypeWavePacket13
	TypePoint14
	TypeRGB14
	TypeRGBNIR14
	TypeByte14
)

func (t Type) String() string {
	switch t {
	case TypeByte:
		return "BYTE"
	case TypePoint10:
		return "POINT10"
	case TypeGPSTime11:
		return "GPSTIME11"
	case TypeRGB12:
		return "RGB12"
	case TypeWavePacket13:
		return "WAVEPACKET13"
	case TypePoint14:
		return "POINT14"
	case TypeRGB14:
		return "RGB14"
	case TypeRGBNIR14:
		return "RGBNIR14"
	case TypeByte14:
		return "BYTE14"
	default:
		return "UNKNOWN"
	}
}

// Item is one entry of the LASzip descriptor's item list: a type, its
// uncompressed on-wire size, and the codec version to use for it.
type Item struct {
	Type    Type
	Size    uint16
	Version uint16
}

// DefaultSize returns the fixed uncompressed byte size of a default-shaped item
// of this type (BYTE items vary and must set Item.Size explicitly).
func (t Type) DefaultSize() uint16 {
	switch t {
	case TypePoint10:
		return 20
	case TypeGPSTime11:
		return 8
	case TypeRGB12:
		return 6
	case TypeWavePacket13:
		return 29
	case TypePoint14:
		return 30
	case TypeRGB14:
		return 6
	case TypeRGBNIR14:
		return 8
	default:
		return 0
	}
}
