package header

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"github.com/ordishs/lidario/laserr"
	"github.com/ordishs/lidario/stream"
)

var fileSignature = [4]byte{'L', 'A', 'S', 'F'}

func fixedString(b []byte) string {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		i = len(b)
	}
	return string(b[:i])
}

func putFixedString(buf []byte, s string) {
	n := copy(buf, s)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
}

// Load parses a LAS/LAZ container header and its VLR/EVLR tables from r,
// starting at r's current position (normally offset 0).
func Load(r stream.Reader) (*Header, error) {
	e := stream.LittleEndian

	sig, err := r.GetBytes(4)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, fileSignature[:]) {
		return nil, laserr.ErrBadMagic
	}

	h := &Header{}

	fileSourceID, err := stream.Get16(r, e)
	if err != nil {
		return nil, err
	}
	h.FileSourceID = fileSourceID

	globalEnc, err := stream.Get16(r, e)
	if err != nil {
		return nil, err
	}
	h.GlobalEncoding = decodeGlobalEncoding(globalEnc)

	projectBytes, err := r.GetBytes(16)
	if err != nil {
		return nil, err
	}
	projectID, err := uuid.FromBytes(swapGUID(projectBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed project id: %v", laserr.ErrInvalidHeader, err)
	}
	h.ProjectID = projectID

	major, err := stream.ByteReader(r)
	if err != nil {
		return nil, err
	}
	minor, err := stream.ByteReader(r)
	if err != nil {
		return nil, err
	}
	h.VersionMajor, h.VersionMinor = major, minor

	sysID, err := r.GetBytes(32)
	if err != nil {
		return nil, err
	}
	h.SystemID = fixedString(sysID)

	genSoft, err := r.GetBytes(32)
	if err != nil {
		return nil, err
	}
	h.GeneratingSoftware = fixedString(genSoft)

	if h.FileCreationDay, err = stream.Get16(r, e); err != nil {
		return nil, err
	}
	if h.FileCreationYear, err = stream.Get16(r, e); err != nil {
		return nil, err
	}
	if h.HeaderSize, err = stream.Get16(r, e); err != nil {
		return nil, err
	}
	if h.HeaderSize < HeaderSize12 {
		return nil, fmt.Errorf("%w: header_size %d below minimum %d", laserr.ErrInvalidHeader, h.HeaderSize, HeaderSize12)
	}
	offsetToPoints, err := stream.Get32(r, e)
	if err != nil {
		return nil, err
	}
	h.OffsetToPointData = offsetToPoints

	numVLRs, err := stream.Get32(r, e)
	if err != nil {
		return nil, err
	}

	if h.PointDataFormat, err = stream.ByteReader(r); err != nil {
		return nil, err
	}
	h.PointDataFormat &= 0x7F // high bit marks LAZ-compressed in some legacy writers; strip it here

	if h.PointDataRecordLength, err = stream.Get16(r, e); err != nil {
		return nil, err
	}

	legacyCount, err := stream.Get32(r, e)
	if err != nil {
		return nil, err
	}
	h.LegacyNumberOfPointRecords = legacyCount

	for i := range h.LegacyNumberOfPointsByReturn {
		if h.LegacyNumberOfPointsByReturn[i], err = stream.Get32(r, e); err != nil {
			return nil, err
		}
	}

	for _, f := range []*float64{&h.XScale, &h.YScale, &h.ZScale, &h.XOffset, &h.YOffset, &h.ZOffset} {
		if *f, err = stream.GetF64(r, e); err != nil {
			return nil, err
		}
	}
	if h.XScale == 0 || h.YScale == 0 || h.ZScale == 0 {
		return nil, fmt.Errorf("%w: zero scale factor", laserr.ErrInvalidHeader)
	}

	for _, f := range []*float64{&h.MaxX, &h.MinX, &h.MaxY, &h.MinY, &h.MaxZ, &h.MinZ} {
		if *f, err = stream.GetF64(r, e); err != nil {
			return nil, err
		}
	}

	if h.VersionMinor >= 3 {
		if h.StartOfWaveformData, err = stream.Get64(r, e); err != nil {
			return nil, err
		}
	}

	if h.VersionMinor >= 4 {
		if h.StartOfFirstEVLR, err = stream.Get64(r, e); err != nil {
			return nil, err
		}
		if h.NumberOfEVLRs, err = stream.Get32(r, e); err != nil {
			return nil, err
		}
		extCount, err := stream.Get64(r, e)
		if err != nil {
			return nil, err
		}
		h.ExtendedNumberOfPointRecords = extCount
		for i := range h.ExtendedNumberOfPointsByReturn {
			if h.ExtendedNumberOfPointsByReturn[i], err = stream.Get64(r, e); err != nil {
				return nil, err
			}
		}
	}

	// Skip any user data between the fixed header fields and header_size.
	pos, err := r.Tell()
	if err != nil {
		return nil, err
	}
	if remaining := int64(h.HeaderSize) - pos; remaining > 0 {
		if _, err := r.GetBytes(int(remaining)); err != nil {
			return nil, err
		}
	} else if remaining < 0 {
		return nil, fmt.Errorf("%w: header_size %d too small for version %d.%d", laserr.ErrInvalidHeader, h.HeaderSize, h.VersionMajor, h.VersionMinor)
	}

	h.VLRs = make([]VLR, 0, numVLRs)
	for i := uint32(0); i < numVLRs; i++ {
		v, err := readVLRHeader(r, e, false)
		if err != nil {
			return nil, err
		}
		payload, err := r.GetBytes(int(v.LengthAfterHeader))
		if err != nil {
			return nil, err
		}
		v.Payload = payload
		h.VLRs = append(h.VLRs, v)
	}

	if h.VersionMinor >= 4 && h.NumberOfEVLRs > 0 {
		if err := r.Seek(int64(h.StartOfFirstEVLR)); err != nil {
			return nil, err
		}
		h.EVLRs = make([]VLR, 0, h.NumberOfEVLRs)
		for i := uint32(0); i < h.NumberOfEVLRs; i++ {
			v, err := readVLRHeader(r, e, true)
			if err != nil {
				return nil, err
			}
			payload, err := r.GetBytes(int(v.LengthAfterHeader))
			if err != nil {
				return nil, err
			}
			v.Payload = payload
			h.EVLRs = append(h.EVLRs, v)
		}
	}

	return h, nil
}

func readVLRHeader(r stream.Reader, e stream.Engine, extended bool) (VLR, error) {
	var v VLR
	v.IsExtended = extended
	reserved, err := stream.Get16(r, e)
	if err != nil {
		return v, err
	}
	v.Reserved = reserved

	userID, err := r.GetBytes(16)
	if err != nil {
		return v, err
	}
	v.UserID = fixedString(userID)

	recordID, err := stream.Get16(r, e)
	if err != nil {
		return v, err
	}
	v.RecordID = recordID

	if extended {
		length, err := stream.Get64(r, e)
		if err != nil {
			return v, err
		}
		v.LengthAfterHeader = length
	} else {
		length, err := stream.Get16(r, e)
		if err != nil {
			return v, err
		}
		v.LengthAfterHeader = uint64(length)
	}

	desc, err := r.GetBytes(32)
	if err != nil {
		return v, err
	}
	v.Description = fixedString(desc)

	return v, nil
}

// Save serializes h and its VLR table to w at w's current position. EVLRs
// are not written here; SaveEVLRs writes them after the point block.
// Callers must call h.CheckInvariant1 beforehand (or rely on AddVLR/
// RemoveVLR, which keep it true automatically).
func Save(w stream.Writer, h *Header) error {
	e := stream.LittleEndian

	if err := w.PutBytes(fileSignature[:]); err != nil {
		return err
	}
	if err := stream.Put16(w, e, h.FileSourceID); err != nil {
		return err
	}
	if err := stream.Put16(w, e, h.GlobalEncoding.encode()); err != nil {
		return err
	}
	projectBytes := swapGUID(h.ProjectID[:])
	if err := w.PutBytes(projectBytes); err != nil {
		return err
	}
	if err := w.PutBytes([]byte{h.VersionMajor, h.VersionMinor}); err != nil {
		return err
	}

	var sysID, genSoft [32]byte
	putFixedString(sysID[:], h.SystemID)
	putFixedString(genSoft[:], h.GeneratingSoftware)
	if err := w.PutBytes(sysID[:]); err != nil {
		return err
	}
	if err := w.PutBytes(genSoft[:]); err != nil {
		return err
	}

	if err := stream.Put16(w, e, h.FileCreationDay); err != nil {
		return err
	}
	if err := stream.Put16(w, e, h.FileCreationYear); err != nil {
		return err
	}
	if err := stream.Put16(w, e, h.HeaderSize); err != nil {
		return err
	}
	if err := stream.Put32(w, e, h.OffsetToPointData); err != nil {
		return err
	}
	if err := stream.Put32(w, e, uint32(len(h.VLRs))); err != nil {
		return err
	}
	if err := w.PutBytes([]byte{h.PointDataFormat}); err != nil {
		return err
	}
	if err := stream.Put16(w, e, h.PointDataRecordLength); err != nil {
		return err
	}
	if err := stream.Put32(w, e, h.LegacyNumberOfPointRecords); err != nil {
		return err
	}
	for _, c := range h.LegacyNumberOfPointsByReturn {
		if err := stream.Put32(w, e, c); err != nil {
			return err
		}
	}
	for _, f := range []float64{h.XScale, h.YScale, h.ZScale, h.XOffset, h.YOffset, h.ZOffset} {
		if err := stream.PutF64(w, e, f); err != nil {
			return err
		}
	}
	for _, f := range []float64{h.MaxX, h.MinX, h.MaxY, h.MinY, h.MaxZ, h.MinZ} {
		if err := stream.PutF64(w, e, f); err != nil {
			return err
		}
	}

	if h.VersionMinor >= 3 {
		if err := stream.Put64(w, e, h.StartOfWaveformData); err != nil {
			return err
		}
	}
	if h.VersionMinor >= 4 {
		if err := stream.Put64(w, e, h.StartOfFirstEVLR); err != nil {
			return err
		}
		if err := stream.Put32(w, e, h.NumberOfEVLRs); err != nil {
			return err
		}
		if err := stream.Put64(w, e, h.ExtendedNumberOfPointRecords); err != nil {
			return err
		}
		for _, c := range h.ExtendedNumberOfPointsByReturn {
			if err := stream.Put64(w, e, c); err != nil {
				return err
			}
		}
	}

	for _, v := range h.VLRs {
		if err := writeVLRHeader(w, e, v); err != nil {
			return err
		}
		if err := w.PutBytes(v.Payload); err != nil {
			return err
		}
	}

	return nil
}

// SaveEVLRs writes h's EVLR table at w's current position, returning the
// offset it started at so the caller can set StartOfFirstEVLR before
// Save (EVLRs are written after the point block, spec §6).
func SaveEVLRs(w stream.Writer, h *Header) (int64, error) {
	offset, err := w.Tell()
	if err != nil {
		return 0, err
	}
	e := stream.LittleEndian
	for _, v := range h.EVLRs {
		if err := writeVLRHeader(w, e, v); err != nil {
			return 0, err
		}
		if err := w.PutBytes(v.Payload); err != nil {
			return 0, err
		}
	}
	return offset, nil
}

func writeVLRHeader(w stream.Writer, e stream.Engine, v VLR) error {
	if err := stream.Put16(w, e, v.Reserved); err != nil {
		return err
	}
	var userID [16]byte
	putFixedString(userID[:], v.UserID)
	if err := w.PutBytes(userID[:]); err != nil {
		return err
	}
	if err := stream.Put16(w, e, v.RecordID); err != nil {
		return err
	}
	if v.IsExtended {
		if err := stream.Put64(w, e, v.LengthAfterHeader); err != nil {
			return err
		}
	} else {
		if v.LengthAfterHeader > 0xFFFF {
			return fmt.Errorf("%w: VLR payload %d bytes exceeds 16-bit length field", laserr.ErrInvalidHeader, v.LengthAfterHeader)
		}
		if err := stream.Put16(w, e, uint16(v.LengthAfterHeader)); err != nil {
			return err
		}
	}
	var desc [32]byte
	putFixedString(desc[:], v.Description)
	return w.PutBytes(desc[:])
}

// swapGUID converts between the LAS header's mixed-endian GUID encoding
// (project_id_1 LE uint32, project_id_2/3 LE uint16, project_id_4 raw
// bytes) and the big-endian byte order google/uuid expects. The
// transform is its own inverse, so one function serves both directions.
func swapGUID(b []byte) []byte {
	out := make([]byte, 16)
	out[0], out[1], out[2], out[3] = b[3], b[2], b[1], b[0]
	out[4], out[5] = b[5], b[4]
	out[6], out[7] = b[7], b[6]
	copy(out[8:], b[8:16])
	return out
}
