package header

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ordishs/lidario/laserr"
)

// Well-known user_id/record_id pairs this implementation recognizes
// (spec §6, §4.D, §4.I).
const (
	UserIDLASF          = "LASF_Projection"
	RecordIDGeoKeys      = 34735
	RecordIDGeoDoubles   = 34736
	RecordIDGeoASCII     = 34737

	UserIDLASFSpec      = "LASF_Spec"
	RecordIDExtraBytes  = 4

	UserIDLASzip        = "laszip encoded"
	RecordIDLASzip      = 22204

	UserIDLAStools      = "LAStools"
	RecordIDTiling      = 10
	RecordIDLAX         = 30

	UserIDCompatible    = "lascompatible"
	RecordIDCompatible  = 22204

	UserIDCOPC          = "copc"
	RecordIDCOPCInfo    = 1
	RecordIDCOPCHierarchy = 1000
)

// GeoKeyEntry is one row of a GeoKeyDirectoryTag (record_id 34735).
type GeoKeyEntry struct {
	KeyID         uint16
	TIFFTagLoc    uint16
	Count         uint16
	ValueOrOffset uint16
}

// GeoKeys is the parsed geospatial metadata carried across the three
// GeoTIFF-derived VLRs (spec §6: GeoKeyDirectoryTag / GeoDoubleParamsTag /
// GeoAsciiParamsTag).
type GeoKeys struct {
	KeyDirectoryVersion, KeyRevision, MinorRevision uint16
	Entries                                         []GeoKeyEntry
	Doubles                                         []float64
	ASCII                                            string
}

// GetGeoKeys parses the GeoKeys VLR triple out of h, if present.
func (h *Header) GetGeoKeys() (GeoKeys, bool) {
	dirVLR, ok := h.GetVLR(UserIDLASF, RecordIDGeoKeys)
	if !ok {
		return GeoKeys{}, false
	}
	p := dirVLR.Payload
	if len(p) < 8 {
		return GeoKeys{}, false
	}
	gk := GeoKeys{
		KeyDirectoryVersion: binary.LittleEndian.Uint16(p[0:2]),
		KeyRevision:         binary.LittleEndian.Uint16(p[2:4]),
		MinorRevision:       binary.LittleEndian.Uint16(p[4:6]),
	}
	numKeys := int(binary.LittleEndian.Uint16(p[6:8]))
	off := 8
	for i := 0; i < numKeys && off+8 <= len(p); i++ {
		gk.Entries = append(gk.Entries, GeoKeyEntry{
			KeyID:         binary.LittleEndian.Uint16(p[off:]),
			TIFFTagLoc:    binary.LittleEndian.Uint16(p[off+2:]),
			Count:         binary.LittleEndian.Uint16(p[off+4:]),
			ValueOrOffset: binary.LittleEndian.Uint16(p[off+6:]),
		})
		off += 8
	}
	if doubles, ok := h.GetVLR(UserIDLASF, RecordIDGeoDoubles); ok {
		for i := 0; i+8 <= len(doubles.Payload); i += 8 {
			bits := binary.LittleEndian.Uint64(doubles.Payload[i:])
			gk.Doubles = append(gk.Doubles, float64frombits(bits))
		}
	}
	if ascii, ok := h.GetVLR(UserIDLASF, RecordIDGeoASCII); ok {
		gk.ASCII = fixedString(ascii.Payload)
	}
	return gk, true
}

// SetGeoKeys replaces the GeoKeys VLR triple with entries, overwriting
// whatever was there (spec §4.G: "set_geo_keys(entries)").
func (h *Header) SetGeoKeys(gk GeoKeys) {
	h.RemoveVLR(UserIDLASF, RecordIDGeoKeys)
	h.RemoveVLR(UserIDLASF, RecordIDGeoDoubles)
	h.RemoveVLR(UserIDLASF, RecordIDGeoASCII)

	dir := make([]byte, 8+8*len(gk.Entries))
	binary.LittleEndian.PutUint16(dir[0:], gk.KeyDirectoryVersion)
	binary.LittleEndian.PutUint16(dir[2:], gk.KeyRevision)
	binary.LittleEndian.PutUint16(dir[4:], gk.MinorRevision)
	binary.LittleEndian.PutUint16(dir[6:], uint16(len(gk.Entries)))
	for i, ent := range gk.Entries {
		off := 8 + i*8
		binary.LittleEndian.PutUint16(dir[off:], ent.KeyID)
		binary.LittleEndian.PutUint16(dir[off+2:], ent.TIFFTagLoc)
		binary.LittleEndian.PutUint16(dir[off+4:], ent.Count)
		binary.LittleEndian.PutUint16(dir[off+6:], ent.ValueOrOffset)
	}
	h.AddVLR(UserIDLASF, RecordIDGeoKeys, dir, false)

	if len(gk.Doubles) > 0 {
		doubles := make([]byte, 8*len(gk.Doubles))
		for i, d := range gk.Doubles {
			binary.LittleEndian.PutUint64(doubles[i*8:], float64bits(d))
		}
		h.AddVLR(UserIDLASF, RecordIDGeoDoubles, doubles, false)
	}
	if gk.ASCII != "" {
		h.AddVLR(UserIDLASF, RecordIDGeoASCII, []byte(gk.ASCII+"\x00"), false)
	}
}

// ExtraByteDataType is the data_type code of an extra-bytes field
// descriptor (LAS spec's fixed enum: 1=uchar .. 10=double, each with an
// unsigned/signed pairing, 0=undocumented raw bytes).
type ExtraByteDataType uint8

// ExtraByteDescriptor is one 192-byte entry of the extra_bytes VLR
// (record_id 4): name, data type, and optional scale/offset (spec §4.G:
// "extra_bytes VLR (record_id 4) typed descriptor table").
type ExtraByteDescriptor struct {
	DataType    ExtraByteDataType
	Options     uint8
	Name        string
	Description string
	NoData      float64
	Min, Max    float64
	Scale       float64
	Offset      float64
}

const extraByteDescriptorSize = 192

// extraByteDataTypeSize returns the on-wire size in bytes of one field of
// the given data type (0 for the "undocumented raw" type, which instead
// uses Options as an explicit byte count).
func extraByteDataTypeSize(t ExtraByteDataType) int {
	sizes := []int{0, 1, 1, 2, 2, 4, 4, 8, 8, 4, 8}
	if int(t) < len(sizes) {
		return sizes[t]
	}
	return 0
}

// GetExtraBytes parses the extra_bytes VLR into its descriptor table.
func (h *Header) GetExtraBytes() ([]ExtraByteDescriptor, bool) {
	v, ok := h.GetVLR(UserIDLASFSpec, RecordIDExtraBytes)
	if !ok {
		return nil, false
	}
	var out []ExtraByteDescriptor
	for off := 0; off+extraByteDescriptorSize <= len(v.Payload); off += extraByteDescriptorSize {
		rec := v.Payload[off : off+extraByteDescriptorSize]
		d := ExtraByteDescriptor{
			DataType: ExtraByteDataType(rec[2]),
			Options:  rec[3],
			Name:     fixedString(rec[4:36]),
		}
		if d.Options&(1<<2) != 0 {
			d.NoData = float64frombits(binary.LittleEndian.Uint64(rec[40:]))
		}
		if d.Options&(1<<4) != 0 {
			d.Min = float64frombits(binary.LittleEndian.Uint64(rec[56:]))
		}
		if d.Options&(1<<5) != 0 {
			d.Max = float64frombits(binary.LittleEndian.Uint64(rec[72:]))
		}
		if d.Options&(1<<6) != 0 {
			d.Scale = float64frombits(binary.LittleEndian.Uint64(rec[88:]))
		}
		if d.Options&(1<<7) != 0 {
			d.Offset = float64frombits(binary.LittleEndian.Uint64(rec[104:]))
		}
		d.Description = fixedString(rec[160:192])
		out = append(out, d)
	}
	return out, true
}

// SetExtraBytes replaces the extra_bytes VLR with descs.
func (h *Header) SetExtraBytes(descs []ExtraByteDescriptor) {
	h.RemoveVLR(UserIDLASFSpec, RecordIDExtraBytes)
	if len(descs) == 0 {
		return
	}
	payload := make([]byte, extraByteDescriptorSize*len(descs))
	for i, d := range descs {
		rec := payload[i*extraByteDescriptorSize : (i+1)*extraByteDescriptorSize]
		rec[2] = byte(d.DataType)
		rec[3] = d.Options
		putFixedString(rec[4:36], d.Name)
		if d.Options&(1<<2) != 0 {
			binary.LittleEndian.PutUint64(rec[40:], float64bits(d.NoData))
		}
		if d.Options&(1<<4) != 0 {
			binary.LittleEndian.PutUint64(rec[56:], float64bits(d.Min))
		}
		if d.Options&(1<<5) != 0 {
			binary.LittleEndian.PutUint64(rec[72:], float64bits(d.Max))
		}
		if d.Options&(1<<6) != 0 {
			binary.LittleEndian.PutUint64(rec[88:], float64bits(d.Scale))
		}
		if d.Options&(1<<7) != 0 {
			binary.LittleEndian.PutUint64(rec[104:], float64bits(d.Offset))
		}
		putFixedString(rec[160:192], d.Description)
	}
	h.AddVLR(UserIDLASFSpec, RecordIDExtraBytes, payload, false)
}

// TotalExtraByteWidth sums the on-wire width of every extra-byte field
// this header declares.
func TotalExtraByteWidth(descs []ExtraByteDescriptor) int {
	total := 0
	for _, d := range descs {
		if d.DataType == 0 {
			total += int(d.Options) // raw byte count stashed in Options for type 0
			continue
		}
		total += extraByteDataTypeSize(d.DataType)
	}
	return total
}

// TilingVLR is the 28-byte LAStools tiling payload (spec §6).
type TilingVLR struct {
	Level, LevelIndex          uint32
	ImplicitLevels             bool
	BufferBit, ReversibleBit   bool
	MinX, MaxX, MinY, MaxY     float32
}

// GetTiling parses the tiling VLR, if present.
func (h *Header) GetTiling() (TilingVLR, bool) {
	v, ok := h.GetVLR(UserIDLAStools, RecordIDTiling)
	if !ok || len(v.Payload) < 28 {
		return TilingVLR{}, false
	}
	flags := binary.LittleEndian.Uint32(v.Payload[8:12])
	return TilingVLR{
		Level:          binary.LittleEndian.Uint32(v.Payload[0:4]),
		LevelIndex:     binary.LittleEndian.Uint32(v.Payload[4:8]),
		ImplicitLevels: flags&(1<<0) != 0,
		BufferBit:      flags&(1<<1) != 0,
		ReversibleBit:  flags&(1<<2) != 0,
		MinX:           float32frombits(binary.LittleEndian.Uint32(v.Payload[12:16])),
		MaxX:           float32frombits(binary.LittleEndian.Uint32(v.Payload[16:20])),
		MinY:           float32frombits(binary.LittleEndian.Uint32(v.Payload[20:24])),
		MaxY:           float32frombits(binary.LittleEndian.Uint32(v.Payload[24:28])),
	}, true
}

// SetTiling replaces the tiling VLR.
func (h *Header) SetTiling(t TilingVLR) {
	h.RemoveVLR(UserIDLAStools, RecordIDTiling)
	payload := make([]byte, 28)
	binary.LittleEndian.PutUint32(payload[0:], t.Level)
	binary.LittleEndian.PutUint32(payload[4:], t.LevelIndex)
	var flags uint32
	if t.ImplicitLevels {
		flags |= 1 << 0
	}
	if t.BufferBit {
		flags |= 1 << 1
	}
	if t.ReversibleBit {
		flags |= 1 << 2
	}
	binary.LittleEndian.PutUint32(payload[8:], flags)
	binary.LittleEndian.PutUint32(payload[12:], float32bits(t.MinX))
	binary.LittleEndian.PutUint32(payload[16:], float32bits(t.MaxX))
	binary.LittleEndian.PutUint32(payload[20:], float32bits(t.MinY))
	binary.LittleEndian.PutUint32(payload[24:], float32bits(t.MaxY))
	h.AddVLR(UserIDLAStools, RecordIDTiling, payload, false)
}

// HasCompatibilityMarker reports whether the §4.I compatibility VLR is
// present.
func (h *Header) HasCompatibilityMarker() bool {
	_, ok := h.GetVLR(UserIDCompatible, RecordIDCompatible)
	return ok
}

// SetCompatibilityMarker adds or removes the §4.I compatibility VLR.
// payload is the marker's integrity checksum (package compat's
// EncodeMarkerPayload); pass nil to remove the marker.
func (h *Header) SetCompatibilityMarker(payload []byte) {
	if payload != nil {
		h.AddVLR(UserIDCompatible, RecordIDCompatible, payload, false)
		return
	}
	h.RemoveVLR(UserIDCompatible, RecordIDCompatible)
}

// StripCOPC removes COPC indexing EVLRs (info + hierarchy), used when
// keepCOPC is false on save (spec §4.G: "optional keep_copc flag").
func (h *Header) StripCOPC() {
	h.RemoveVLR(UserIDCOPC, RecordIDCOPCInfo)
	h.RemoveVLR(UserIDCOPC, RecordIDCOPCHierarchy)
}

// StripPrivateVLRs removes the VLR kinds private to this implementation's
// lineage: the LASzip descriptor, the LAStools tiling record, and the
// lascompatible marker (spec §4.G: these are consumed on load and must
// not be blindly re-emitted on save — a header obtained from Load and
// reused as the basis for a new write would otherwise carry forward
// compression/tiling/compatibility metadata describing the old file, not
// the one being written). A writer calls this before installing its own
// fresh versions of whichever of these VLRs the new write actually
// needs; callers who want the old values carried forward verbatim set
// WithPreservePrivateVLRs(true) instead of relying on this. COPC has its
// own dedicated policy via StripCOPC/WithKeepCOPC.
func (h *Header) StripPrivateVLRs() {
	h.RemoveVLR(UserIDLASzip, RecordIDLASzip)
	h.RemoveVLR(UserIDLAStools, RecordIDTiling)
	h.RemoveVLR(UserIDCompatible, RecordIDCompatible)
}

// InitAttributes is a convenience entry point mirroring spec §4.G's
// init_attributes(list): it validates and records the extra-byte
// attribute list a writer intends to emit alongside each point record.
func (h *Header) InitAttributes(descs []ExtraByteDescriptor) error {
	for _, d := range descs {
		if d.DataType == 0 && d.Options == 0 {
			return fmt.Errorf("%w: undocumented extra-byte attribute %q needs an explicit byte width", laserr.ErrInvalidHeader, d.Name)
		}
	}
	h.SetExtraBytes(descs)
	return nil
}

func float64frombits(b uint64) float64 { return math.Float64frombits(b) }
func float64bits(f float64) uint64     { return math.Float64bits(f) }
func float32frombits(b uint32) float32 { return math.Float32frombits(b) }
func float32bits(f float32) uint32     { return math.Float32bits(f) }
