package header

import (
	"fmt"

	"github.com/ordishs/lidario/laserr"
	"github.com/ordishs/lidario/laszip"
)

// BuildLASzipVLR synthesizes the LASzip descriptor VLR this header's
// point_data_format/record_length combination implies and installs it
// (spec §4.D, §6: "LASzip VLR ... user_id laszip encoded, record_id
// 22204"). chunkSize is the fixed chunk size a fresh write will use; pass
// 0 for variable chunking. Mirrors the upstream laszip_create_laszip_vlr
// entry point: callers freeze the descriptor this way right before the
// point stream is opened for writing.
func (h *Header) BuildLASzipVLR(chunkSize uint32) (*laszip.Descriptor, error) {
	numExtraBytes := uint16(TotalExtraByteWidth(extraBytesOrNil(h)))
	desc, err := laszip.BuildDefault(h.PointDataFormat, numExtraBytes, chunkSize)
	if err != nil {
		return nil, err
	}
	h.PointDataRecordLength = uint16(desc.RecordLength())
	h.RemoveVLR(UserIDLASzip, RecordIDLASzip)
	h.AddVLR(UserIDLASzip, RecordIDLASzip, desc.Encode(), h.VersionMinor >= 4)
	return desc, nil
}

func extraBytesOrNil(h *Header) []ExtraByteDescriptor {
	descs, _ := h.GetExtraBytes()
	return descs
}

// GetLASzipDescriptor decodes the LASzip VLR a reader needs to drive the
// point codec (spec §4.D: "on read it is constructed from a VLR or an
// EVLR" — GetVLR already checks both tables). It validates the
// descriptor against this header's point format and record length
// before returning it (spec invariant 2).
func (h *Header) GetLASzipDescriptor() (*laszip.Descriptor, error) {
	v, ok := h.GetVLR(UserIDLASzip, RecordIDLASzip)
	if !ok {
		return nil, fmt.Errorf("%w: no LASzip VLR present, file is not LAZ-compressed", laserr.ErrInvalidHeader)
	}
	desc, err := laszip.Decode(v.Payload)
	if err != nil {
		return nil, err
	}
	if err := desc.MatchesFormat(h.PointDataFormat, h.PointDataRecordLength); err != nil {
		return nil, err
	}
	return desc, nil
}
