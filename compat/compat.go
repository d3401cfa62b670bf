// Package compat implements the compatibility-mode transform of spec §4.I:
// losslessly carrying a v1.4 "extended" point record (point_data_format
// 6..10) through a point writer/reader built for the legacy 0..5 formats,
// by stashing the fields Core10 cannot hold in named extra-bytes
// attributes and a marker VLR.
//
// Grounded on original_source/LASzip's own compatibility mode (the
// upstream "LASZIP_COMPATIBLE" extra-bytes names this package's attribute
// names echo) and on header.ExtraByteDescriptor for the attribute table
// itself.
package compat

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/ordishs/lidario/header"
	"github.com/ordishs/lidario/itemcodec"
	"github.com/ordishs/lidario/laserr"
)

// Attribute names for the three (or four, with NIR) stashed extra-bytes
// fields (spec §4.I point 2).
const (
	AttrExtendedReturns      = "LAS 1.4 extended returns"
	AttrExtendedScanAngle    = "LAS 1.4 scan angle"
	AttrExtendedClassification = "LAS 1.4 classification"
	AttrExtendedNIR          = "LAS 1.4 NIR"
)

const baseStashWidth = 5 // 1 (returns) + 2 (scan angle) + 2 (classification/flags/channel)
const nirStashWidth = 2

// StashWidth returns the number of extra-bytes this transform appends to
// every point record, given whether the extended format carries NIR
// (point_data_format 8 or 10).
func StashWidth(hasNIR bool) int {
	if hasNIR {
		return baseStashWidth + nirStashWidth
	}
	return baseStashWidth
}

// ExtraByteDescriptors returns the extra_bytes VLR entries (spec §4.G's
// typed descriptor table) this transform's stash needs, to be appended to
// whatever user extra-bytes descriptors the caller already declared via
// header.InitAttributes.
func ExtraByteDescriptors(hasNIR bool) []header.ExtraByteDescriptor {
	descs := []header.ExtraByteDescriptor{
		{DataType: 1, Name: AttrExtendedReturns, Description: "packed extended return_number/number_of_returns"},
		{DataType: 4, Name: AttrExtendedScanAngle, Description: "LAS 1.4 scan_angle, 0.006 degree units"},
		{DataType: 3, Name: AttrExtendedClassification, Description: "classification | classification_flags | scanner_channel"},
	}
	if hasNIR {
		descs = append(descs, header.ExtraByteDescriptor{DataType: 3, Name: AttrExtendedNIR, Description: "extended NIR channel"})
	}
	return descs
}

// TargetFormat maps an extended point_data_format (6..10) to the legacy
// format this package down-converts it into, and whether that format
// carries a NIR channel that must be separately stashed (spec §4.I:
// "writing a v1.4 point format (6..10) into a v1.2-style file (format 1 or
// 3)" — generalized here to also cover the wavepacket formats 9/10).
func TargetFormat(extended uint8) (legacy uint8, hasNIR bool, err error) {
	switch extended {
	case 6:
		return 1, false, nil
	case 7:
		return 3, false, nil
	case 8:
		return 3, true, nil
	case 9:
		return 4, false, nil
	case 10:
		return 5, true, nil
	default:
		return 0, false, fmt.Errorf("%w: point data format %d is not an extended format", laserr.ErrUnsupportedVersion, extended)
	}
}

// MarkerChecksum returns the xxhash fingerprint of this transform's
// stash layout (the stashed attribute names plus the NIR flag), stored
// in the lascompatible marker VLR payload. A reader recomputes it after
// resolving hasNIR from the extra-bytes table and can flag a mismatch
// instead of silently trusting a hand-edited header.
func MarkerChecksum(hasNIR bool) uint64 {
	s := AttrExtendedReturns + "|" + AttrExtendedScanAngle + "|" + AttrExtendedClassification
	if hasNIR {
		s += "|" + AttrExtendedNIR
	}
	return xxhash.Sum64String(s)
}

// EncodeMarkerPayload packs MarkerChecksum(hasNIR) into the 8-byte
// little-endian payload the lascompatible VLR carries.
func EncodeMarkerPayload(hasNIR bool) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, MarkerChecksum(hasNIR))
	return buf
}

// VerifyMarkerPayload reports whether payload (the lascompatible VLR's
// bytes) matches the expected checksum for hasNIR. A too-short payload
// (e.g. from an older writer that set the marker with no payload) is
// treated as unverifiable, not as a mismatch.
func VerifyMarkerPayload(payload []byte, hasNIR bool) (ok, verifiable bool) {
	if len(payload) < 8 {
		return false, false
	}
	return binary.LittleEndian.Uint64(payload) == MarkerChecksum(hasNIR), true
}

// ExtendedFormat is the inverse of TargetFormat: given the legacy format
// a compatibility-mode file was actually written as plus whether its
// stash carries a NIR attribute, it returns the original extended
// point_data_format a reader should present to callers (spec §4.I:
// "rebuild Core14 and present the logical v1.4 record").
func ExtendedFormat(legacy uint8, hasNIR bool) (extended uint8, err error) {
	switch {
	case legacy == 1 && !hasNIR:
		return 6, nil
	case legacy == 3 && !hasNIR:
		return 7, nil
	case legacy == 3 && hasNIR:
		return 8, nil
	case legacy == 4 && !hasNIR:
		return 9, nil
	case legacy == 5 && hasNIR:
		return 10, nil
	default:
		return 0, fmt.Errorf("%w: legacy point data format %d (hasNIR=%v) has no extended-format mapping", laserr.ErrUnsupportedVersion, legacy, hasNIR)
	}
}

func clamp3(v uint8) uint8 {
	if v > 7 {
		return 7
	}
	return v
}

func clampClassification(class, flags uint8) uint8 {
	c := class
	if c > 31 {
		c = 31
	}
	v := c & 0x1F
	if flags&0x1 != 0 {
		v |= 1 << 5
	}
	if flags&0x2 != 0 {
		v |= 1 << 6
	}
	if flags&0x4 != 0 {
		v |= 1 << 7
	}
	return v
}

func clampScanAngle(a int16) int8 {
	deg := float64(a) * 0.006
	if deg > 90 {
		deg = 90
	}
	if deg < -90 {
		deg = -90
	}
	return int8(math.Round(deg))
}

// DownConvert rewrites an extended (point_data_format 6..10) record into
// its legacy Core10 shape, appending the stashed bits as trailing extra
// bytes (spec §4.I points 1-2). hasNIR must match the value TargetFormat
// returned for the record's original extended format.
func DownConvert(rec itemcodec.Record, hasNIR bool) itemcodec.Record {
	out := rec

	out.ReturnNumber = clamp3(rec.ReturnNumber)
	out.NumberOfReturns = clamp3(rec.NumberOfReturns)
	out.Classification = clampClassification(rec.Classification, rec.ClassificationFlags)
	out.ScanAngleRank = clampScanAngle(rec.ScanAngle14)
	out.ScannerChannel = 0
	out.ClassificationFlags = 0
	out.ScanAngle14 = 0

	stash := make([]byte, StashWidth(hasNIR))
	stash[0] = (rec.ReturnNumber & 0xF) | ((rec.NumberOfReturns & 0xF) << 4)
	binary.LittleEndian.PutUint16(stash[1:3], uint16(rec.ScanAngle14))
	cls := uint16(rec.Classification) |
		uint16(rec.ClassificationFlags&0xF)<<8 |
		uint16(rec.ScannerChannel&0x3)<<12
	binary.LittleEndian.PutUint16(stash[3:5], cls)
	if hasNIR {
		binary.LittleEndian.PutUint16(stash[5:7], rec.NIR)
		out.NIR = 0
	}

	out.ExtraBytes = append(append([]byte(nil), rec.ExtraBytes...), stash...)
	return out
}

// UpConvert is the inverse of DownConvert: given a legacy-shaped record
// read back with its trailing stash intact, it restores the logical
// extended record bit-for-bit (spec §4.I: "rebuild Core14 and present the
// logical v1.4 record to callers") and strips the stash from ExtraBytes.
func UpConvert(rec itemcodec.Record, hasNIR bool) (itemcodec.Record, error) {
	width := StashWidth(hasNIR)
	n := len(rec.ExtraBytes)
	if n < width {
		return rec, fmt.Errorf("%w: compatibility stash needs %d trailing extra bytes, record has %d", laserr.ErrCorruptStream, width, n)
	}
	stash := rec.ExtraBytes[n-width:]

	out := rec
	out.ExtraBytes = append([]byte(nil), rec.ExtraBytes[:n-width]...)

	out.ReturnNumber = stash[0] & 0xF
	out.NumberOfReturns = (stash[0] >> 4) & 0xF
	out.ScanAngle14 = int16(binary.LittleEndian.Uint16(stash[1:3]))
	cls := binary.LittleEndian.Uint16(stash[3:5])
	out.Classification = uint8(cls & 0xFF)
	out.ClassificationFlags = uint8((cls >> 8) & 0xF)
	out.ScannerChannel = uint8((cls >> 12) & 0x3)
	out.ScanAngleRank = 0

	if hasNIR {
		out.NIR = binary.LittleEndian.Uint16(stash[5:7])
	}

	return out, nil
}
