package lidario

import (
	"fmt"
	"os"

	"github.com/ordishs/lidario/compat"
	"github.com/ordishs/lidario/header"
	"github.com/ordishs/lidario/inventory"
	"github.com/ordishs/lidario/itemcodec"
	"github.com/ordishs/lidario/lax"
	"github.com/ordishs/lidario/laserr"
	"github.com/ordishs/lidario/laszip"
	"github.com/ordishs/lidario/pointio"
	"github.com/ordishs/lidario/stream"
)

// Writer is the container-level write façade of spec §4.K: it owns the
// header, installs a compressed or raw point writer depending on the
// destination's sniffed Format, and patches the header's counters and
// bounding box from package inventory at Close.
type Writer struct {
	f    *stream.FileStream
	h    *header.Header
	opts WriterOptions

	compressed bool
	items      []itemcodec.Item

	pw  *pointio.Writer // compressed path
	inv *inventory.Inventory

	compatEnabled bool
	compatHasNIR  bool

	indexPoints []lax.Point
	nextIndex   uint32
	builtIndex  *lax.Index

	closed bool
	err    error
}

// Create opens fileName for writing and installs the point writer h's
// PointDataFormat, VersionMajor/Minor and scale/offset imply. h is
// retained and mutated (its VLR table, record length and compatibility
// marker are set here); callers should finish configuring every other
// header field (ProjectID, GeoKeys, extra scale/offset) before calling
// Create.
func Create(fileName string, h *header.Header, opts ...WriterOption) (*Writer, error) {
	options := defaultWriterOptions()
	for _, o := range opts {
		o(&options)
	}

	format := formatFromExtension(fileName)
	if format == FormatAncillary {
		return nil, fmt.Errorf("%w: %s is an ancillary format, not a LAS/LAZ container", laserr.ErrUnsupportedVersion, fileName)
	}
	compressed := format == FormatLAZ

	w := &Writer{h: h, opts: options, compressed: compressed, inv: inventory.New()}

	if !options.KeepCOPC {
		h.StripCOPC()
	}
	if !options.PreservePrivateVLRs {
		h.StripPrivateVLRs()
	}

	extendedFormat := h.PointDataFormat
	if options.CompatibilityMode && extendedFormat >= 6 {
		legacy, hasNIR, err := compat.TargetFormat(extendedFormat)
		if err != nil {
			return nil, err
		}
		w.compatEnabled = true
		w.compatHasNIR = hasNIR
		h.PointDataFormat = legacy

		existing, _ := h.GetExtraBytes()
		descs := append(append([]header.ExtraByteDescriptor(nil), existing...), compat.ExtraByteDescriptors(hasNIR)...)
		if err := h.InitAttributes(descs); err != nil {
			return nil, err
		}
		h.SetCompatibilityMarker(compat.EncodeMarkerPayload(hasNIR))
	}

	numExtraBytes := uint16(header.TotalExtraByteWidth(extraBytesOf(h)))

	var desc *laszip.Descriptor
	var err error
	if compressed {
		desc, err = h.BuildLASzipVLR(options.ChunkSize)
		if err != nil {
			return nil, err
		}
	} else {
		desc, err = laszip.BuildDefault(h.PointDataFormat, numExtraBytes, 0)
		if err != nil {
			return nil, err
		}
		h.PointDataRecordLength = uint16(desc.RecordLength())
	}
	w.items = desc.Items

	osFile, createErr := os.Create(fileName)
	if createErr != nil {
		return nil, createErr
	}
	w.f = stream.NewFileStream(osFile)

	if err := header.Save(w.f, h); err != nil {
		osFile.Close()
		return nil, err
	}

	if compressed {
		w.pw = pointio.Open(desc)
	}

	return w, nil
}

func extraBytesOf(h *header.Header) []header.ExtraByteDescriptor {
	descs, _ := h.GetExtraBytes()
	return descs
}

// WritePoint quantizes x,y,z against the header's scale/offset, writes
// rec (mutated in place for compatibility down-conversion when enabled),
// and folds the point into the running inventory.
func (w *Writer) WritePoint(rec itemcodec.Record, x, y, z float64) error {
	if w.closed {
		return laserr.ErrClosed
	}
	if w.err != nil {
		return w.err
	}

	if err := header.CheckOverflow(x, w.h.XScale, w.h.XOffset); err != nil {
		w.err = err
		return err
	}
	if err := header.CheckOverflow(y, w.h.YScale, w.h.YOffset); err != nil {
		w.err = err
		return err
	}
	if err := header.CheckOverflow(z, w.h.ZScale, w.h.ZOffset); err != nil {
		w.err = err
		return err
	}
	qx, _ := header.Quantize(x, w.h.XScale, w.h.XOffset)
	qy, _ := header.Quantize(y, w.h.YScale, w.h.YOffset)
	qz, _ := header.Quantize(z, w.h.ZScale, w.h.ZOffset)
	rec.X, rec.Y, rec.Z = qx, qy, qz

	inventoryFormat := w.h.PointDataFormat
	if w.compatEnabled {
		inventoryFormat = 6 // caller's logical format is always extended here
	}

	if w.opts.BuildSpatialIndex {
		w.indexPoints = append(w.indexPoints, lax.Point{X: x, Y: y, Index: w.nextIndex})
	}
	w.nextIndex++

	// Observe the caller's logical record before any down-conversion: the
	// compatibility transform clamps ReturnNumber/Classification to the
	// legacy field widths, which would otherwise undercount the extended
	// per-return histogram (invariant 3).
	w.inv.Observe(&rec, x, y, z, inventoryFormat)

	if w.compatEnabled {
		rec = compat.DownConvert(rec, w.compatHasNIR)
	}

	if w.compressed {
		if err := w.pw.WritePoint(&rec); err != nil {
			w.err = err
			return err
		}
		return nil
	}

	raw := itemcodec.EncodeRawRecord(w.items, &rec)
	if err := w.f.PutBytes(raw); err != nil {
		w.err = err
		return err
	}
	return nil
}

// SpatialIndex returns the §4.H quadtree index built during Close when
// WithSpatialIndex was set, or nil if the option wasn't set or Close
// hasn't run yet. On a v1.4+ file it has already been appended as an
// EVLR; on an earlier version, the caller must persist it separately,
// e.g. lax.Save to a ".lax" sidecar file.
func (w *Writer) SpatialIndex() *lax.Index { return w.builtIndex }

// Chunk forces a chunk boundary on a compressed writer (variable
// chunking); it is a no-op for an uncompressed writer.
func (w *Writer) Chunk() error {
	if w.pw == nil {
		return nil
	}
	return w.pw.Chunk()
}

// Close flushes the point block, patches the header's inventory and
// bounding box, optionally builds and appends the §4.H spatial index,
// rewrites the header in place, and closes the file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.err != nil {
		w.f.Close()
		return w.err
	}

	if w.compressed {
		if _, err := w.pw.Close(w.f); err != nil {
			w.f.Close()
			return err
		}
	}

	inventoryFormat := w.h.PointDataFormat
	if w.compatEnabled {
		inventoryFormat = 6
	}
	w.inv.ApplyToHeader(w.h, inventoryFormat)

	if w.opts.BuildSpatialIndex && len(w.indexPoints) > 0 {
		bounds := lax.Rect{MinX: w.h.MinX, MinY: w.h.MinY, MaxX: w.h.MaxX, MaxY: w.h.MaxY}
		idx := lax.Build(bounds, w.indexPoints, w.opts.SpatialCellCap)
		idx.Finalize(0, 0)
		w.builtIndex = idx

		// Appending the index inline only works as an EVLR: EVLRs live
		// after the point block, which is already written by now, so
		// adding one doesn't move OffsetToPointData. A regular VLR lives
		// *before* the point block; adding one here would grow
		// OffsetToPointData past where the point data was actually
		// written and corrupt the file. v1.0-1.3 headers have no EVLR
		// table, so there the index is built but left for the caller to
		// persist via SpatialIndex + lax.Save to a ".lax" sidecar.
		if w.h.VersionMinor >= 4 {
			sidecar := stream.NewMemoryWriter()
			if err := lax.Save(sidecar, idx, true); err == nil {
				w.h.AddVLR(header.UserIDLAStools, header.RecordIDLAX, sidecar.Bytes(), true)
			}
		}
	}

	if w.h.VersionMinor >= 4 && len(w.h.EVLRs) > 0 {
		evlrOffset, err := header.SaveEVLRs(w.f, w.h)
		if err != nil {
			w.f.Close()
			return err
		}
		w.h.StartOfFirstEVLR = uint64(evlrOffset)
	}

	if err := w.f.Seek(0); err != nil {
		w.f.Close()
		return err
	}
	if err := header.Save(w.f, w.h); err != nil {
		w.f.Close()
		return err
	}

	return w.f.Close()
}
