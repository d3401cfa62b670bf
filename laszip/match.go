package laszip

import (
	"fmt"

	"github.com/ordishs/lidario/itemcodec"
	"github.com/ordishs/lidario/laserr"
)

// itemsForFormat names the canonical item list LASzip would configure for
// each LAS point_data_format, as described in spec.md §3's point-format
// table. BuildDefault uses this to synthesize a descriptor from a format
// number and MatchesFormat uses it to validate one read off disk.
func itemsForFormat(format uint8, numExtraBytes uint16) ([]itemcodec.Item, error) {
	var items []itemcodec.Item
	switch format {
	case 0:
		items = []itemcodec.Item{{Type: itemcodec.TypePoint10, Size: itemcodec.TypePoint10.DefaultSize()}}
	case 1:
		items = []itemcodec.Item{
			{Type: itemcodec.TypePoint10, Size: itemcodec.TypePoint10.DefaultSize()},
			{Type: itemcodec.TypeGPSTime11, Size: itemcodec.TypeGPSTime11.DefaultSize()},
		}
	case 2:
		items = []itemcodec.Item{
			{Type: itemcodec.TypePoint10, Size: itemcodec.TypePoint10.DefaultSize()},
			{Type: itemcodec.TypeRGB12, Size: itemcodec.TypeRGB12.DefaultSize()},
		}
	case 3:
		items = []itemcodec.Item{
			{Type: itemcodec.TypePoint10, Size: itemcodec.TypePoint10.DefaultSize()},
			{Type: itemcodec.TypeGPSTime11, Size: itemcodec.TypeGPSTime11.DefaultSize()},
			{Type: itemcodec.TypeRGB12, Size: itemcodec.TypeRGB12.DefaultSize()},
		}
	case 4:
		items = []itemcodec.Item{
			{Type: itemcodec.TypePoint10, Size: itemcodec.TypePoint10.DefaultSize()},
			{Type: itemcodec.TypeGPSTime11, Size: itemcodec.TypeGPSTime11.DefaultSize()},
			{Type: itemcodec.TypeWavePacket13, Size: itemcodec.TypeWavePacket13.DefaultSize()},
		}
	case 5:
		items = []itemcodec.Item{
			{Type: itemcodec.TypePoint10, Size: itemcodec.TypePoint10.DefaultSize()},
			{Type: itemcodec.TypeGPSTime11, Size: itemcodec.TypeGPSTime11.DefaultSize()},
			{Type: itemcodec.TypeRGB12, Size: itemcodec.TypeRGB12.DefaultSize()},
			{Type: itemcodec.TypeWavePacket13, Size: itemcodec.TypeWavePacket13.DefaultSize()},
		}
	case 6:
		items = []itemcodec.Item{{Type: itemcodec.TypePoint14, Size: itemcodec.TypePoint14.DefaultSize()}}
	case 7:
		items = []itemcodec.Item{
			{Type: itemcodec.TypePoint14, Size: itemcodec.TypePoint14.DefaultSize()},
			{Type: itemcodec.TypeRGB14, Size: itemcodec.TypeRGB14.DefaultSize()},
		}
	case 8:
		items = []itemcodec.Item{
			{Type: itemcodec.TypePoint14, Size: itemcodec.TypePoint14.DefaultSize()},
			{Type: itemcodec.TypeRGBNIR14, Size: itemcodec.TypeRGBNIR14.DefaultSize()},
		}
	case 9:
		items = []itemcodec.Item{
			{Type: itemcodec.TypePoint14, Size: itemcodec.TypePoint14.DefaultSize()},
			{Type: itemcodec.TypeWavePacket13, Size: itemcodec.TypeWavePacket13.DefaultSize()},
		}
	case 10:
		items = []itemcodec.Item{
			{Type: itemcodec.TypePoint14, Size: itemcodec.TypePoint14.DefaultSize()},
			{Type: itemcodec.TypeRGBNIR14, Size: itemcodec.TypeRGBNIR14.DefaultSize()},
			{Type: itemcodec.TypeWavePacket13, Size: itemcodec.TypeWavePacket13.DefaultSize()},
		}
	default:
		return nil, fmt.Errorf("%w: point data format %d has no LASzip item mapping", laserr.ErrUnsupportedVersion, format)
	}
	if numExtraBytes > 0 {
		byteType := itemcodec.TypeByte
		if format >= 6 {
			byteType = itemcodec.TypeByte14
		}
		items = append(items, itemcodec.Item{Type: byteType, Size: numExtraBytes})
	}
	return items, nil
}

// compressorForFormat picks the compressor generation a fresh write should
// target: legacy formats 0-5 use the chunked v2 byte/chunk layout, v1.4
// formats 6-10 use the layered v3/v4 chunk layout (spec §4.D, §3).
func compressorForFormat(format uint8) CompressorID {
	if format >= 6 {
		return CompressorLayeredChunked
	}
	return CompressorChunked
}

// BuildDefault synthesizes the descriptor a fresh compressed write would
// use for the given point_data_format, number of extra bytes and chunk
// size (spec §4.D, §4.E).
func BuildDefault(format uint8, numExtraBytes uint16, chunkSize uint32) (*Descriptor, error) {
	items, err := itemsForFormat(format, numExtraBytes)
	if err != nil {
		return nil, err
	}
	compressor := compressorForFormat(format)
	major, minor := uint8(2), uint8(0)
	if compressor == CompressorLayeredChunked {
		major, minor = 3, 0
	}
	return &Descriptor{
		Compressor:      compressor,
		Coder:           0,
		VersionMajor:    major,
		VersionMinor:    minor,
		VersionRevision: 2,
		ChunkSize:       chunkSize,
		Items:           items,
	}, nil
}

// MatchesFormat validates that d's item list is one this implementation
// recognizes as belonging to point_data_format format with the given
// record length (spec invariant 2: "the LASzip item list always matches
// the header's point_data_format and point_data_record_length").
func (d *Descriptor) MatchesFormat(format uint8, recordLength uint16) error {
	want, err := itemsForFormat(format, 0)
	if err != nil {
		return err
	}
	extra := int(recordLength) - sizeOf(want)
	if extra < 0 {
		return fmt.Errorf("%w: record length %d too short for point format %d",
			laserr.ErrInvalidHeader, recordLength, format)
	}
	if extra > 0 {
		byteType := itemcodec.TypeByte
		if format >= 6 {
			byteType = itemcodec.TypeByte14
		}
		want = append(want, itemcodec.Item{Type: byteType, Size: uint16(extra)})
	}
	if len(want) != len(d.Items) {
		return fmt.Errorf("%w: LASzip item count %d does not match point format %d (want %d)",
			laserr.ErrInvalidHeader, len(d.Items), format, len(want))
	}
	for i, it := range want {
		if d.Items[i].Type != it.Type {
			return fmt.Errorf("%w: LASzip item %d has type %s, want %s",
				laserr.ErrInvalidHeader, i, d.Items[i].Type, it.Type)
		}
	}
	if d.RecordLength() != int(recordLength) {
		return fmt.Errorf("%w: LASzip items sum to %d bytes, header declares record length %d",
			laserr.ErrInvalidHeader, d.RecordLength(), recordLength)
	}
	return nil
}

func sizeOf(items []itemcodec.Item) int {
	total := 0
	for _, it := range items {
		total += int(it.Size)
	}
	return total
}
