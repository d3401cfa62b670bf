// Package laszip implements the self-describing LASzip VLR of spec §4.D: the
// record that names which compressor, coder and item layout a given LAZ
// file was written with, so a reader can reconstruct the exact codec chain
// a writer used.
package laszip

import (
	"encoding/binary"
	"fmt"

	"github.com/ordishs/lidario/itemcodec"
	"github.com/ordishs/lidario/laserr"
)

// CompressorID enumerates the compressor strategies a LASzip descriptor can
// name (spec §3).
type CompressorID uint16

const (
	CompressorNone           CompressorID = 0
	CompressorPointwise      CompressorID = 1 // legacy v1, one point at a time
	CompressorChunked        CompressorID = 2 // v2, fixed/variable chunking
	CompressorLayeredChunked CompressorID = 3 // v3/v4, layered sub-blocks per chunk
)

func (c CompressorID) String() string {
	switch c {
	case CompressorNone:
		return "none"
	case CompressorPointwise:
		return "pointwise"
	case CompressorChunked:
		return "chunked"
	case CompressorLayeredChunked:
		return "layered-chunked"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(c))
	}
}

// maxSupportedVersion bounds the LASzip version triple this implementation
// will accept on read (spec §4.D: "version triple ≤ this implementation's
// supported versions").
var maxSupportedVersion = [3]uint8{4, 0, 0}

// maxChunkSize is the descriptor's hard ceiling (spec §4.D: "chunk size ≤
// 2^30").
const maxChunkSize = 1 << 30

// Descriptor is the LASzip VLR payload: compressor id, coder id (always 0
// — the binary range coder of package rangecoder), version triple, chunk
// size, and the item list.
type Descriptor struct {
	Compressor CompressorID
	Coder      uint16
	VersionMajor, VersionMinor uint8
	VersionRevision            uint16
	Options                    uint32
	ChunkSize                  uint32
	NumSpecialEVLRs            int64
	OffsetToSpecialEVLRs       int64
	Items                      []itemcodec.Item
}

// Encode serializes the descriptor into its on-disk VLR payload form.
func (d *Descriptor) Encode() []byte {
	buf := make([]byte, 0, 34+len(d.Items)*6)
	var tmp [8]byte

	put16 := func(v uint16) {
		binary.LittleEndian.PutUint16(tmp[:2], v)
		buf = append(buf, tmp[:2]...)
	}
	put32 := func(v uint32) {
		binary.LittleEndian.PutUint32(tmp[:4], v)
		buf = append(buf, tmp[:4]...)
	}
	put64s := func(v int64) {
		binary.LittleEndian.PutUint64(tmp[:8], uint64(v))
		buf = append(buf, tmp[:8]...)
	}

	put16(uint16(d.Compressor))
	put16(d.Coder)
	buf = append(buf, d.VersionMajor, d.VersionMinor)
	put16(d.VersionRevision)
	put32(d.Options)
	put32(d.ChunkSize)
	put64s(d.NumSpecialEVLRs)
	put64s(d.OffsetToSpecialEVLRs)
	put16(uint16(len(d.Items)))
	for _, it := range d.Items {
		put16(uint16(it.Type))
		put16(it.Size)
		put16(it.Version)
	}
	return buf
}

// Decode parses a LASzip VLR payload.
func Decode(payload []byte) (*Descriptor, error) {
	if len(payload) < 34 {
		return nil, laserr.ErrCorruptStream
	}
	get16 := func(off int) uint16 { return binary.LittleEndian.Uint16(payload[off:]) }
	get32 := func(off int) uint32 { return binary.LittleEndian.Uint32(payload[off:]) }
	get64s := func(off int) int64 { return int64(binary.LittleEndian.Uint64(payload[off:])) }

	d := &Descriptor{
		Compressor:           CompressorID(get16(0)),
		Coder:                get16(2),
		VersionMajor:         payload[4],
		VersionMinor:         payload[5],
		VersionRevision:      get16(6),
		Options:              get32(8),
		ChunkSize:            get32(12),
		NumSpecialEVLRs:      get64s(16),
		OffsetToSpecialEVLRs: get64s(24),
	}
	numItems := int(get16(32))
	off := 34
	if len(payload) < off+numItems*6 {
		return nil, laserr.ErrCorruptStream
	}
	d.Items = make([]itemcodec.Item, numItems)
	for i := 0; i < numItems; i++ {
		d.Items[i] = itemcodec.Item{
			Type:    itemcodec.Type(get16(off)),
			Size:    get16(off + 2),
			Version: get16(off + 4),
		}
		off += 6
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks the descriptor against spec §4.D's on-read rules:
// compressor id known, version triple supported, chunk size within range.
// It does not check item/header agreement — callers combine it with
// MatchesFormat for that (it needs the header's point format too).
func (d *Descriptor) Validate() error {
	switch d.Compressor {
	case CompressorNone, CompressorPointwise, CompressorChunked, CompressorLayeredChunked:
	default:
		return fmt.Errorf("%w: unknown LASzip compressor id %d", laserr.ErrUnsupportedVersion, d.Compressor)
	}
	if d.VersionMajor > maxSupportedVersion[0] ||
		(d.VersionMajor == maxSupportedVersion[0] && d.VersionMinor > maxSupportedVersion[1]) {
		return fmt.Errorf("%w: LASzip version %d.%d exceeds supported %d.%d",
			laserr.ErrUnsupportedVersion, d.VersionMajor, d.VersionMinor, maxSupportedVersion[0], maxSupportedVersion[1])
	}
	if d.ChunkSize > maxChunkSize {
		return fmt.Errorf("%w: chunk size %d exceeds 2^30", laserr.ErrInvalidHeader, d.ChunkSize)
	}
	return nil
}

// RecordLength sums the configured items' sizes; callers compare this to
// the header's point_data_record_length (spec invariant 2).
func (d *Descriptor) RecordLength() int {
	total := 0
	for _, it := range d.Items {
		total += int(it.Size)
	}
	return total
}
