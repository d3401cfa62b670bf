// Package header implements the LAS/LAZ container header and its VLR/EVLR
// tables (spec §4.G, §3, §6): fixed-prefix parsing across the 227/235/375
// byte layouts, typed accessors for the VLR kinds this implementation
// knows about, and the bookkeeping that keeps offset_to_point_data
// consistent as VLRs are added or removed.
package header

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/ordishs/lidario/laserr"
)

// Size thresholds per minor version (spec §3: "227 bytes in v1.0-1.2, 235
// in 1.3, 375 in 1.4").
const (
	HeaderSize12 = 227
	HeaderSize13 = 235
	HeaderSize14 = 375
)

const vlrHeaderSize = 54
const evlrHeaderSize = 60

// GlobalEncoding mirrors the header's global_encoding bit field: bit 0
// selects GPS time standard, bit 1 marks internal and bit 2 external
// waveform data (spec §6: "disambiguated by the header's global_encoding
// bit"), bit 4 marks an OGC WKT CRS. Only the
// bits this implementation consumes are named; the rest round-trip in
// Raw.
type GlobalEncoding struct {
	GPSTimeIsStandard  bool
	WaveformInternal   bool
	WaveformExternal   bool
	WKTCRS             bool
	Raw                uint16
}

func decodeGlobalEncoding(v uint16) GlobalEncoding {
	return GlobalEncoding{
		GPSTimeIsStandard: v&(1<<0) != 0,
		WaveformInternal:  v&(1<<1) != 0,
		WaveformExternal:  v&(1<<2) != 0,
		WKTCRS:            v&(1<<4) != 0,
		Raw:               v,
	}
}

func (g GlobalEncoding) encode() uint16 {
	v := g.Raw
	setBit := func(bit uint, val bool) {
		if val {
			v |= 1 << bit
		} else {
			v &^= 1 << bit
		}
	}
	setBit(0, g.GPSTimeIsStandard)
	setBit(1, g.WaveformInternal)
	setBit(2, g.WaveformExternal)
	setBit(4, g.WKTCRS)
	return v
}

// Header is the parsed container header plus its owned VLR/EVLR tables.
// VLR mutation always goes through AddVLR/RemoveVLR so
// OffsetToPointData stays consistent (spec invariant 1).
type Header struct {
	VersionMajor, VersionMinor uint8

	FileSourceID   uint16
	GlobalEncoding GlobalEncoding
	ProjectID      uuid.UUID

	SystemID           string
	GeneratingSoftware string
	FileCreationDay    uint16
	FileCreationYear   uint16

	HeaderSize        uint16
	OffsetToPointData uint32

	PointDataFormat       uint8
	PointDataRecordLength uint16

	LegacyNumberOfPointRecords    uint32
	LegacyNumberOfPointsByReturn  [5]uint32
	ExtendedNumberOfPointRecords  uint64
	ExtendedNumberOfPointsByReturn [15]uint64

	XScale, YScale, ZScale    float64
	XOffset, YOffset, ZOffset float64
	MaxX, MinX, MaxY, MinY, MaxZ, MinZ float64

	StartOfWaveformData  uint64
	StartOfFirstEVLR     uint64
	NumberOfEVLRs        uint32

	VLRs  []VLR
	EVLRs []VLR
}

// VLR is one variable-length record. LengthAfterHeader is kept as a
// uint64 uniformly; VLRs cap it at 16 bits on the wire, EVLRs use the
// full 64 (spec §3).
type VLR struct {
	Reserved          uint16
	UserID            string // 16 bytes, NUL padded on the wire
	RecordID          uint16
	LengthAfterHeader uint64
	Description       string // 32 bytes, NUL padded on the wire
	Payload           []byte
	IsExtended        bool
}

// New returns a Header with sensible defaults for a fresh write: the
// given version, a fresh random ProjectID, HeaderSize computed from the
// version.
func New(versionMajor, versionMinor uint8) *Header {
	h := &Header{
		VersionMajor: versionMajor,
		VersionMinor: versionMinor,
		ProjectID:    uuid.New(),
		XScale:       0.01, YScale: 0.01, ZScale: 0.01,
	}
	h.HeaderSize = sizeForVersion(versionMajor, versionMinor)
	h.OffsetToPointData = uint32(h.HeaderSize)
	return h
}

func sizeForVersion(major, minor uint8) uint16 {
	switch {
	case major == 1 && minor >= 4:
		return HeaderSize14
	case major == 1 && minor == 3:
		return HeaderSize13
	default:
		return HeaderSize12
	}
}

// PointCount returns the point count a reader should trust: the extended
// 64-bit counter when it is non-zero, otherwise the legacy 32-bit one
// (spec §4.J, invariant 3: "formats 6-10 ... extended counts carry the
// data").
func (h *Header) PointCount() uint64 {
	if h.ExtendedNumberOfPointRecords != 0 {
		return h.ExtendedNumberOfPointRecords
	}
	return uint64(h.LegacyNumberOfPointRecords)
}

// GetVLR returns the first VLR (checked across both the VLR and EVLR
// tables) matching userID/recordID, or ok=false.
func (h *Header) GetVLR(userID string, recordID uint16) (VLR, bool) {
	for _, v := range h.VLRs {
		if v.UserID == userID && v.RecordID == recordID {
			return v, true
		}
	}
	for _, v := range h.EVLRs {
		if v.UserID == userID && v.RecordID == recordID {
			return v, true
		}
	}
	return VLR{}, false
}

// AddVLR appends a VLR (or, if asExtended is set, an EVLR) and recomputes
// OffsetToPointData so invariant 1 continues to hold.
func (h *Header) AddVLR(userID string, recordID uint16, payload []byte, asExtended bool) {
	v := VLR{
		UserID:            userID,
		RecordID:          recordID,
		LengthAfterHeader: uint64(len(payload)),
		Payload:           payload,
		IsExtended:        asExtended,
	}
	if asExtended {
		h.EVLRs = append(h.EVLRs, v)
		h.NumberOfEVLRs = uint32(len(h.EVLRs))
		return
	}
	h.VLRs = append(h.VLRs, v)
	h.recomputeOffsetToPointData()
}

// RemoveVLR removes every VLR/EVLR matching userID/recordID.
func (h *Header) RemoveVLR(userID string, recordID uint16) {
	h.VLRs = filterVLRs(h.VLRs, userID, recordID)
	h.EVLRs = filterVLRs(h.EVLRs, userID, recordID)
	h.NumberOfEVLRs = uint32(len(h.EVLRs))
	h.recomputeOffsetToPointData()
}

func filterVLRs(vlrs []VLR, userID string, recordID uint16) []VLR {
	out := vlrs[:0:0]
	for _, v := range vlrs {
		if v.UserID == userID && v.RecordID == recordID {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (h *Header) recomputeOffsetToPointData() {
	off := uint32(h.HeaderSize)
	for _, v := range h.VLRs {
		off += vlrHeaderSize + uint32(len(v.Payload))
	}
	h.OffsetToPointData = off
}

// CheckInvariant1 verifies spec invariant 1:
// offset_to_point_data == header_size + sum(54 + vlr.length).
func (h *Header) CheckInvariant1() error {
	var want uint32 = uint32(h.HeaderSize)
	for _, v := range h.VLRs {
		want += vlrHeaderSize + uint32(len(v.Payload))
	}
	if want != h.OffsetToPointData {
		return fmt.Errorf("%w: offset_to_point_data %d, want %d", laserr.ErrInvalidHeader, h.OffsetToPointData, want)
	}
	return nil
}

// SuggestScaleOffset picks a scale/offset triple that keeps every axis
// of a batch of raw coordinates representable as an int32 with
// reasonable precision, mirroring laszip_auto_offset: each axis's offset
// is its own midpoint, each scale is chosen from that axis's span so
// that span/scale < 2^31 - 1, snapped to a conventional round value
// (1e-2, 1e-3, ... 1e-7) the way LAStools' own suggestion logic does.
func SuggestScaleOffset(xs, ys, zs []float64) (scale, offset [3]float64) {
	scale[0], offset[0] = suggestScaleOffsetAxis(xs)
	scale[1], offset[1] = suggestScaleOffsetAxis(ys)
	scale[2], offset[2] = suggestScaleOffsetAxis(zs)
	return scale, offset
}

func suggestScaleOffsetAxis(values []float64) (scale, offset float64) {
	if len(values) == 0 {
		return 0.01, 0
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	offset = (min + max) / 2
	span := max - min
	if span == 0 {
		return 0.01, offset
	}
	for _, candidate := range []float64{1e-2, 1e-3, 1e-4, 1e-5, 1e-6, 1e-7} {
		if span/candidate < float64(math.MaxInt32-1) {
			scale = candidate
		}
	}
	if scale == 0 {
		scale = 1e-7
	}
	return scale, offset
}

// CheckOverflow reports laserr.ErrIntegerOverflow if quantizing v against
// scale/offset would not fit in an int32 (spec invariant 4).
func CheckOverflow(v, scale, offset float64) error {
	q := (v - offset) / scale
	if q < float64(math.MinInt32) || q > float64(math.MaxInt32) {
		return fmt.Errorf("%w: value %g scale %g offset %g", laserr.ErrIntegerOverflow, v, scale, offset)
	}
	return nil
}

// Quantize converts a physical coordinate to its stored integer form.
func Quantize(v, scale, offset float64) (int32, error) {
	if err := CheckOverflow(v, scale, offset); err != nil {
		return 0, err
	}
	return int32(math.Round((v - offset) / scale)), nil
}

// Dequantize converts a stored integer back to its physical form.
func Dequantize(i int32, scale, offset float64) float64 {
	return float64(i)*scale + offset
}
