package lidario

import (
	"fmt"
	"os"

	"github.com/ordishs/lidario/compat"
	"github.com/ordishs/lidario/header"
	"github.com/ordishs/lidario/internal/msgsink"
	"github.com/ordishs/lidario/itemcodec"
	"github.com/ordishs/lidario/lax"
	"github.com/ordishs/lidario/laserr"
	"github.com/ordishs/lidario/laszip"
	"github.com/ordishs/lidario/pointio"
	"github.com/ordishs/lidario/stream"
)

// Reader is the container-level read façade of spec §4.K: it sniffs the
// source, parses the header and VLR/EVLR tables, installs a compressed or
// raw point reader depending on whether a LASzip VLR is present, and
// reverses the §4.I compatibility transform transparently when the
// marker VLR is found. Field access mirrors Writer: callers drive
// ReadPoint/Seek/Close directly rather than through an interface, the
// same shape ordishs-lidario's own LasFile/LazFile pair exposes to
// callers.
type Reader struct {
	f *stream.FileStream
	h *header.Header
	opts ReaderOptions

	compressed   bool
	items        []itemcodec.Item
	pr           *pointio.Reader // compressed path
	rawRecordLen int
	dataStart    int64

	compatEnabled bool
	compatHasNIR  bool
	logicalFormat uint8

	index *lax.Index

	pointsRead  uint64
	totalPoints uint64

	closed bool
	err    error
}

// Open opens fileName for reading, parses its header/VLR tables, and
// installs a point reader matching whatever codec the LASzip descriptor
// (or, for a plain LAS file, the header's own point format) names.
func Open(fileName string, opts ...ReaderOption) (*Reader, error) {
	options := defaultReaderOptions()
	for _, o := range opts {
		o(&options)
	}

	format, err := sniff(fileName)
	if err != nil {
		return nil, err
	}
	if format == FormatAncillary {
		return nil, fmt.Errorf("%w: %s is an ancillary format, not a LAS/LAZ container", laserr.ErrUnsupportedVersion, fileName)
	}

	osFile, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	f := stream.NewFileStream(osFile)

	h, err := header.Load(f)
	if err != nil {
		osFile.Close()
		return nil, err
	}

	r := &Reader{f: f, h: h, opts: options, totalPoints: h.PointCount(), logicalFormat: h.PointDataFormat}

	_, hasLASzip := h.GetVLR(header.UserIDLASzip, header.RecordIDLASzip)
	r.compressed = hasLASzip

	if r.compressed {
		desc, err := h.GetLASzipDescriptor()
		if err != nil {
			osFile.Close()
			return nil, err
		}
		r.items = desc.Items
	} else {
		numExtraBytes := uint16(header.TotalExtraByteWidth(extraBytesOf(h)))
		desc, err := laszip.BuildDefault(h.PointDataFormat, numExtraBytes, 0)
		if err != nil {
			osFile.Close()
			return nil, err
		}
		r.items = desc.Items
		r.rawRecordLen = int(h.PointDataRecordLength)
	}

	r.dataStart = int64(h.OffsetToPointData)
	r.detectCompatibility()

	if err := f.Seek(r.dataStart); err != nil {
		osFile.Close()
		return nil, err
	}

	if r.compressed {
		pr, err := pointio.OpenReader(f, &laszip.Descriptor{Items: r.items})
		if err != nil {
			osFile.Close()
			return nil, err
		}
		pr.SetSelective(options.Selective)
		r.pr = pr
		if n := pr.TotalPoints(); n != 0 {
			r.totalPoints = n
		}
	}

	return r, nil
}

// detectCompatibility checks the §4.I marker VLR and, when present,
// resolves the NIR-carrying attribute's presence and the original
// extended point_data_format, then erases the marker and the stashed
// extra-bytes attributes from the header view the caller sees (spec
// §4.I: "erase the marker and attributes from the header view").
func (r *Reader) detectCompatibility() {
	if !r.h.HasCompatibilityMarker() {
		return
	}
	descs, ok := r.h.GetExtraBytes()
	if !ok {
		return
	}
	hasNIR := false
	for _, d := range descs {
		if d.Name == compat.AttrExtendedNIR {
			hasNIR = true
		}
	}
	extended, err := compat.ExtendedFormat(r.h.PointDataFormat, hasNIR)
	if err != nil {
		return
	}
	r.compatEnabled = true
	r.compatHasNIR = hasNIR
	r.logicalFormat = extended

	if marker, ok := r.h.GetVLR(header.UserIDCompatible, header.RecordIDCompatible); ok {
		if ok, verifiable := compat.VerifyMarkerPayload(marker.Payload, hasNIR); verifiable && !ok {
			r.opts.Sink.Emit(msgsink.SeriousWarning, "lascompatible marker checksum mismatch: extra-bytes stash may have been edited")
		}
	}

	r.h.SetCompatibilityMarker(nil)
	r.h.SetExtraBytes(stripStash(descs))
}

func stripStash(descs []header.ExtraByteDescriptor) []header.ExtraByteDescriptor {
	stashNames := map[string]bool{
		compat.AttrExtendedReturns:        true,
		compat.AttrExtendedScanAngle:      true,
		compat.AttrExtendedClassification: true,
		compat.AttrExtendedNIR:            true,
	}
	out := make([]header.ExtraByteDescriptor, 0, len(descs))
	for _, d := range descs {
		if stashNames[d.Name] {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Header returns the parsed container header. Mutating VLRs on it after
// Open has no effect on this Reader's already-installed item codecs.
func (r *Reader) Header() *header.Header { return r.h }

// LogicalPointDataFormat returns the point_data_format callers should
// treat records as: the header's own format normally, or the restored
// extended format (6..10) when the §4.I compatibility transform was
// detected and reversed.
func (r *Reader) LogicalPointDataFormat() uint8 { return r.logicalFormat }

// TotalPoints returns the point count this reader will yield: the chunk
// table's total for a compressed file, the header's PointCount otherwise.
func (r *Reader) TotalPoints() uint64 { return r.totalPoints }

// SetSelective reconfigures which item groups ReadPoint populates on a
// compressed reader (spec §4.F). It is a no-op on an uncompressed reader,
// whose raw records are always fully decoded.
func (r *Reader) SetSelective(sel pointio.Selective) {
	r.opts.Selective = sel
	if r.pr != nil {
		r.pr.SetSelective(sel)
	}
}

// ReadPoint decodes the next point into rec and returns its dequantized
// physical coordinates. When the compatibility transform is active, rec
// is returned already restored to its logical extended shape.
func (r *Reader) ReadPoint(rec *itemcodec.Record) (x, y, z float64, err error) {
	if r.closed {
		return 0, 0, 0, laserr.ErrClosed
	}
	if r.err != nil {
		return 0, 0, 0, r.err
	}
	if r.pointsRead >= r.totalPoints {
		return 0, 0, 0, laserr.ErrUnexpectedEOF
	}

	if r.compressed {
		if err := r.pr.ReadPoint(rec); err != nil {
			r.err = err
			return 0, 0, 0, err
		}
	} else {
		buf, err := r.f.GetBytes(r.rawRecordLen)
		if err != nil {
			r.err = err
			return 0, 0, 0, err
		}
		*rec = itemcodec.Record{}
		itemcodec.DecodeRawRecord(r.items, buf, rec)
	}
	r.pointsRead++

	if r.compatEnabled {
		restored, err := compat.UpConvert(*rec, r.compatHasNIR)
		if err != nil {
			r.err = err
			return 0, 0, 0, err
		}
		*rec = restored
	}

	x = header.Dequantize(rec.X, r.h.XScale, r.h.XOffset)
	y = header.Dequantize(rec.Y, r.h.YScale, r.h.YOffset)
	z = header.Dequantize(rec.Z, r.h.ZScale, r.h.ZOffset)
	return x, y, z, nil
}

// Seek moves the reader so the next ReadPoint call returns point index i
// (spec §4.E/§4.F, testable property 3: "seek equivalence").
func (r *Reader) Seek(i uint64) error {
	if r.closed {
		return laserr.ErrClosed
	}
	if i > r.totalPoints {
		return fmt.Errorf("%w: point index %d exceeds point count %d", laserr.ErrCorruptStream, i, r.totalPoints)
	}
	if r.compressed {
		if err := r.pr.Seek(i); err != nil {
			r.err = err
			return err
		}
	} else {
		off := r.dataStart + int64(i)*int64(r.rawRecordLen)
		if err := r.f.Seek(off); err != nil {
			r.err = err
			return err
		}
	}
	r.pointsRead = i
	return nil
}

// SpatialIndex lazily loads the §4.H quadtree index from an appended LAX
// EVLR/VLR when one is present, otherwise from the sidecar file at
// sidecarPath. It returns laserr.ErrInvalidHeader if there is no LAX VLR
// and sidecarPath is empty.
func (r *Reader) SpatialIndex(sidecarPath string) (*lax.Index, error) {
	if r.index != nil {
		return r.index, nil
	}
	if v, ok := r.h.GetVLR(header.UserIDLAStools, header.RecordIDLAX); ok {
		idx, err := lax.Load(stream.NewMemoryStream(v.Payload))
		if err != nil {
			return nil, err
		}
		r.index = idx
		return idx, nil
	}
	if sidecarPath == "" {
		return nil, fmt.Errorf("%w: no LAX VLR present and no sidecar path given", laserr.ErrInvalidHeader)
	}
	f, err := os.Open(sidecarPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	idx, err := lax.Load(stream.NewFileStream(f))
	if err != nil {
		return nil, err
	}
	r.index = idx
	return idx, nil
}

// Close closes the underlying file. The first fatal error seen by
// ReadPoint/Seek sticks and is returned here too if Close is otherwise
// clean (spec §7: "the first fatal error sticks").
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	closeErr := r.f.Close()
	if r.err != nil {
		return r.err
	}
	return closeErr
}
