// Package inventory implements the running write-side counters of spec
// §4.J: total and per-return point counts, the XYZ/GPS-time bounding box,
// and an intensity histogram, all accrued incrementally as points are
// written so the header can be patched on close without a second pass.
package inventory

import (
	"math"

	"github.com/ordishs/lidario/header"
	"github.com/ordishs/lidario/itemcodec"
)

// Inventory accrues the statistics a Writer needs to patch the container
// header at Close (spec §4.J). The zero value is not usable; construct
// with New.
type Inventory struct {
	total uint64

	legacyByReturn   [5]uint64
	extendedByReturn [15]uint64

	minX, maxX float64
	minY, maxY float64
	minZ, maxZ float64

	haveGPSTime        bool
	minGPSTime         float64
	maxGPSTime         float64

	// IntensityHistogram buckets the 16-bit intensity field by its high
	// byte, giving a coarse 256-bucket distribution without the memory
	// cost of a full 65536-entry table.
	IntensityHistogram [256]uint64
}

// New returns an empty Inventory ready to Observe points.
func New() *Inventory {
	return &Inventory{
		minX: math.Inf(1), maxX: math.Inf(-1),
		minY: math.Inf(1), maxY: math.Inf(-1),
		minZ: math.Inf(1), maxZ: math.Inf(-1),
	}
}

// Observe folds one point's fields into the running statistics.
// x, y, z are the dequantized physical coordinates (spec §3: "the single
// source of truth" is scale/offset, so the inventory tracks the physical
// values, not the stored integers). format is the point_data_format being
// written, which decides whether the legacy per-return slots are
// meaningful (spec invariant 3: formats 6-10 carry zero legacy counts).
func (inv *Inventory) Observe(rec *itemcodec.Record, x, y, z float64, format uint8) {
	inv.total++

	if x < inv.minX {
		inv.minX = x
	}
	if x > inv.maxX {
		inv.maxX = x
	}
	if y < inv.minY {
		inv.minY = y
	}
	if y > inv.maxY {
		inv.maxY = y
	}
	if z < inv.minZ {
		inv.minZ = z
	}
	if z > inv.maxZ {
		inv.maxZ = z
	}

	if formatHasGPSTime(format) {
		if !inv.haveGPSTime {
			inv.minGPSTime, inv.maxGPSTime = rec.GPSTime, rec.GPSTime
			inv.haveGPSTime = true
		} else {
			if rec.GPSTime < inv.minGPSTime {
				inv.minGPSTime = rec.GPSTime
			}
			if rec.GPSTime > inv.maxGPSTime {
				inv.maxGPSTime = rec.GPSTime
			}
		}
	}

	inv.IntensityHistogram[rec.Intensity>>8]++

	returnNumber := uint32(rec.ReturnNumber)
	if format >= 6 {
		if returnNumber >= 1 && returnNumber <= 15 {
			inv.extendedByReturn[returnNumber-1]++
		}
		return
	}
	if returnNumber >= 1 && returnNumber <= 5 {
		inv.legacyByReturn[returnNumber-1]++
	}
}

func formatHasGPSTime(format uint8) bool {
	switch format {
	case 1, 3, 4, 5:
		return true
	case 6, 7, 8, 9, 10:
		return true
	default:
		return false
	}
}

// TotalPoints returns the count of Observe calls made so far.
func (inv *Inventory) TotalPoints() uint64 { return inv.total }

// BoundingBox returns the componentwise min/max of every dequantized
// coordinate observed, in (maxX, minX, maxY, minY, maxZ, minZ) order to
// match header.Header's field order.
func (inv *Inventory) BoundingBox() (maxX, minX, maxY, minY, maxZ, minZ float64) {
	if inv.total == 0 {
		return 0, 0, 0, 0, 0, 0
	}
	return inv.maxX, inv.minX, inv.maxY, inv.minY, inv.maxZ, inv.minZ
}

// ApplyToHeader patches h's point counts and bounding box from the
// accrued statistics (spec §4.G: "updates extended_number_of_point_records,
// the per-return counters, the bounding box ... atomically"). format
// selects which of the legacy/extended per-return slots get populated,
// per invariant 3.
func (inv *Inventory) ApplyToHeader(h *header.Header, format uint8) {
	h.ExtendedNumberOfPointRecords = inv.total
	for i := range h.ExtendedNumberOfPointsByReturn {
		h.ExtendedNumberOfPointsByReturn[i] = inv.extendedByReturn[i]
	}

	if format >= 6 {
		h.LegacyNumberOfPointRecords = 0
		h.LegacyNumberOfPointsByReturn = [5]uint32{}
	} else {
		if inv.total <= math.MaxUint32 {
			h.LegacyNumberOfPointRecords = uint32(inv.total)
		}
		for i := range h.LegacyNumberOfPointsByReturn {
			h.LegacyNumberOfPointsByReturn[i] = uint32(inv.legacyByReturn[i])
		}
	}

	h.MaxX, h.MinX, h.MaxY, h.MinY, h.MaxZ, h.MinZ = inv.BoundingBox()
}
