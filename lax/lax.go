// Package lax implements the spatial-index sidecar of spec §4.H: a
// quadtree over a file's 2-D bounding box whose leaf cells hold
// run-length-compacted point-index intervals, plus an R-tree prefilter
// over leaf bounding rectangles for fast Query (grounded on
// beetlebugorg-s57's ChartIndex, which wraps rtreego.Rtree over chart
// bounds the same way). Each cell's compacted interval set is fingerprinted
// with xxhash so two index builds over the same point assignment can be
// compared cheaply without re-walking intervals.
package lax

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/dhconnelly/rtreego"
	"github.com/pierrec/lz4/v4"

	"github.com/ordishs/lidario/laserr"
	"github.com/ordishs/lidario/stream"
)

// Rect is a 2-D axis-aligned bounding rectangle.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Intersects reports whether r and o overlap (touching edges count).
func (r Rect) Intersects(o Rect) bool {
	return r.MinX <= o.MaxX && r.MaxX >= o.MinX && r.MinY <= o.MaxY && r.MaxY >= o.MinY
}

func (r Rect) width() float64  { return r.MaxX - r.MinX }
func (r Rect) height() float64 { return r.MaxY - r.MinY }

// Interval is one run of consecutive point indices assigned to the same
// cell (spec §4.H: "a sorted, run-length-compacted set of point-index
// intervals [first_point, last_point]").
type Interval struct {
	First, Last uint32
}

// Cell is one quadtree node. Interior nodes have Children populated and
// Points/Intervals empty; leaves hold point indices (pre-Finalize) or
// their compacted Intervals (post-Finalize).
type Cell struct {
	Rect     Rect
	Level    int
	Points   []uint32
	Intervals []Interval
	Children [4]*Cell

	fingerprint uint64
}

// DefaultCellCapacity is the point count a leaf subdivides at when no
// override is given.
const DefaultCellCapacity = 1000

// Index is a complete spatial index over one file's points.
type Index struct {
	Root          *Cell
	CellCapacity  int
	MinimumPoints int
	MaxIntervals  int

	rtree *rtreego.Rtree
}

// newIndex returns an empty index shell over bounds. cellCapacity <= 0
// uses DefaultCellCapacity.
func newIndex(bounds Rect, cellCapacity int) *Index {
	if cellCapacity <= 0 {
		cellCapacity = DefaultCellCapacity
	}
	return &Index{
		Root:         &Cell{Rect: bounds},
		CellCapacity: cellCapacity,
	}
}

// Point is one (x, y, point-index) tuple fed to Build.
type Point struct {
	X, Y  float64
	Index uint32
}

// Build constructs a complete index from a batch of points in one pass:
// every point's coordinates are known up front, so subdivision recurses
// on the actual point batch instead of needing to re-derive coordinates
// for already-binned indices.
func Build(bounds Rect, points []Point, cellCapacity int) *Index {
	idx := newIndex(bounds, cellCapacity)
	idx.Root = buildCell(bounds, points, idx.CellCapacity, 0)
	return idx
}

func buildCell(rect Rect, points []Point, capacity, level int) *Cell {
	c := &Cell{Rect: rect, Level: level}
	if len(points) <= capacity || rect.width() == 0 || rect.height() == 0 {
		c.Points = make([]uint32, len(points))
		for i, p := range points {
			c.Points[i] = p.Index
		}
		return c
	}

	midX := (rect.MinX + rect.MaxX) / 2
	midY := (rect.MinY + rect.MaxY) / 2
	var quads [4][]Point
	for _, p := range points {
		switch {
		case p.X < midX && p.Y < midY:
			quads[0] = append(quads[0], p)
		case p.X >= midX && p.Y < midY:
			quads[1] = append(quads[1], p)
		case p.X < midX && p.Y >= midY:
			quads[2] = append(quads[2], p)
		default:
			quads[3] = append(quads[3], p)
		}
	}
	quadRects := [4]Rect{
		{rect.MinX, rect.MinY, midX, midY},
		{midX, rect.MinY, rect.MaxX, midY},
		{rect.MinX, midY, midX, rect.MaxY},
		{midX, midY, rect.MaxX, rect.MaxY},
	}
	for i := range c.Children {
		c.Children[i] = buildCell(quadRects[i], quads[i], capacity, level+1)
	}
	return c
}

// Finalize compacts every leaf's raw point indices into sorted,
// run-length-compacted intervals, then coarsens the tree per spec §4.H:
// first merging sparse subtrees (fewer than minimumPoints combined)
// bottom-up, then capping the total interval count across the whole file
// by further coarsening in cost-descending order (the cells whose merge
// removes the most intervals first).
func (idx *Index) Finalize(minimumPoints, maxIntervals int) {
	idx.MinimumPoints = minimumPoints
	idx.MaxIntervals = maxIntervals
	compactCell(idx.Root)
	if minimumPoints > 0 {
		coarsenSparse(idx.Root, minimumPoints)
	}
	if maxIntervals > 0 {
		for totalIntervals(idx.Root) > maxIntervals {
			if !coarsenCostliest(idx.Root) {
				break
			}
		}
	}
	idx.rtree = nil
}

func compactCell(c *Cell) {
	if c.Children[0] != nil {
		for _, ch := range c.Children {
			compactCell(ch)
		}
		return
	}
	if len(c.Points) == 0 {
		return
	}
	sorted := append([]uint32(nil), c.Points...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var out []Interval
	start := sorted[0]
	prev := sorted[0]
	for _, p := range sorted[1:] {
		if p == prev+1 {
			prev = p
			continue
		}
		out = append(out, Interval{First: start, Last: prev})
		start, prev = p, p
	}
	out = append(out, Interval{First: start, Last: prev})
	c.Intervals = out
	c.Points = nil
	c.fingerprint = fingerprint(out)
}

func fingerprint(intervals []Interval) uint64 {
	buf := make([]byte, 8*len(intervals))
	for i, iv := range intervals {
		binary.LittleEndian.PutUint32(buf[i*8:], iv.First)
		binary.LittleEndian.PutUint32(buf[i*8+4:], iv.Last)
	}
	return xxhash.Sum64(buf)
}

func pointCount(c *Cell) int {
	if c == nil {
		return 0
	}
	if c.Children[0] != nil {
		n := 0
		for _, ch := range c.Children {
			n += pointCount(ch)
		}
		return n
	}
	n := 0
	for _, iv := range c.Intervals {
		n += int(iv.Last-iv.First) + 1
	}
	return n
}

func totalIntervals(c *Cell) int {
	if c == nil {
		return 0
	}
	if c.Children[0] != nil {
		n := 0
		for _, ch := range c.Children {
			n += totalIntervals(ch)
		}
		return n
	}
	return len(c.Intervals)
}

// coarsenSparse merges any subtree whose combined point count falls below
// minimumPoints into a single leaf, walking bottom-up so the smallest
// mergeable subtrees collapse first.
func coarsenSparse(c *Cell, minimumPoints int) {
	if c.Children[0] == nil {
		return
	}
	for _, ch := range c.Children {
		coarsenSparse(ch, minimumPoints)
	}
	if pointCount(c) < minimumPoints {
		collapse(c)
	}
}

func collapse(c *Cell) {
	var all []uint32
	collectPoints(c, &all)
	c.Children = [4]*Cell{}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	var out []Interval
	if len(all) > 0 {
		start, prev := all[0], all[0]
		for _, p := range all[1:] {
			if p == prev+1 {
				prev = p
				continue
			}
			out = append(out, Interval{First: start, Last: prev})
			start, prev = p, p
		}
		out = append(out, Interval{First: start, Last: prev})
	}
	c.Intervals = out
	c.fingerprint = fingerprint(out)
}

func collectPoints(c *Cell, out *[]uint32) {
	if c.Children[0] != nil {
		for _, ch := range c.Children {
			collectPoints(ch, out)
		}
		return
	}
	for _, iv := range c.Intervals {
		for p := iv.First; p <= iv.Last; p++ {
			*out = append(*out, p)
		}
	}
}

// coarsenCostliest finds the internal node whose collapse removes the
// most intervals (children's interval count minus the one interval set
// the merge would produce) and collapses it. Returns false if nothing is
// left to merge (root is already a single leaf).
func coarsenCostliest(root *Cell) bool {
	best, bestSavings := bestMergeCandidate(root)
	if best == nil || bestSavings <= 0 {
		return false
	}
	collapse(best)
	return true
}

func bestMergeCandidate(c *Cell) (*Cell, int) {
	if c.Children[0] == nil {
		return nil, 0
	}
	allLeafChildren := true
	childIntervals := 0
	for _, ch := range c.Children {
		if ch.Children[0] != nil {
			allLeafChildren = false
		}
		childIntervals += totalIntervals(ch)
	}
	var best *Cell
	bestSavings := 0
	if allLeafChildren {
		merged := mergedIntervalCount(c)
		best, bestSavings = c, childIntervals-merged
	}
	for _, ch := range c.Children {
		cand, savings := bestMergeCandidate(ch)
		if cand != nil && savings > bestSavings {
			best, bestSavings = cand, savings
		}
	}
	return best, bestSavings
}

func mergedIntervalCount(c *Cell) int {
	var all []uint32
	collectPoints(c, &all)
	if len(all) == 0 {
		return 0
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	n := 1
	for i := 1; i < len(all); i++ {
		if all[i] != all[i-1]+1 {
			n++
		}
	}
	return n
}

func (idx *Index) ensureRTree() {
	if idx.rtree != nil {
		return
	}
	tree := rtreego.NewTree(2, 4, 16)
	var add func(c *Cell)
	add = func(c *Cell) {
		if c.Children[0] != nil {
			for _, ch := range c.Children {
				add(ch)
			}
			return
		}
		if len(c.Intervals) == 0 {
			return
		}
		tree.Insert(leafSpatial{c})
	}
	add(idx.Root)
	idx.rtree = tree
}

// leafSpatial adapts a populated leaf Cell to rtreego.Spatial, mirroring
// s57.ChartEntry.Bounds (a Point + lengths pair converted via
// rtreego.NewRect).
type leafSpatial struct{ cell *Cell }

func (l leafSpatial) Bounds() rtreego.Rect {
	r := l.cell.Rect
	w, h := r.width(), r.height()
	if w <= 0 {
		w = 1e-9
	}
	if h <= 0 {
		h = 1e-9
	}
	rect, _ := rtreego.NewRect(rtreego.Point{r.MinX, r.MinY}, []float64{w, h})
	return rect
}

// Query returns the deduplicated, sorted set of point-index intervals
// whose cells overlap rect (spec §4.H: "queries accept a rectangle and
// yield a deduplicated iterator of intervals to decode").
func (idx *Index) Query(rect Rect) []Interval {
	idx.ensureRTree()
	w, h := rect.width(), rect.height()
	if w <= 0 {
		w = 1e-9
	}
	if h <= 0 {
		h = 1e-9
	}
	qr, err := rtreego.NewRect(rtreego.Point{rect.MinX, rect.MinY}, []float64{w, h})
	var leaves []rtreego.Spatial
	if err == nil {
		leaves = idx.rtree.SearchIntersect(qr)
	}

	var out []Interval
	for _, sp := range leaves {
		out = append(out, sp.(leafSpatial).cell.Intervals...)
	}
	return mergeIntervals(out)
}

func mergeIntervals(in []Interval) []Interval {
	if len(in) == 0 {
		return nil
	}
	sort.Slice(in, func(i, j int) bool { return in[i].First < in[j].First })
	out := []Interval{in[0]}
	for _, iv := range in[1:] {
		last := &out[len(out)-1]
		if iv.First <= last.Last+1 {
			if iv.Last > last.Last {
				last.Last = iv.Last
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

const sidecarMagic = "LAXI"

// Save serializes the index to w, optionally LZ4-compressing the body
// (spec §6: ".lax" sidecar; §4.H: "appendable to the container").
// compress wires pierrec/lz4 the same way arloliu-mebo's LZ4Compressor
// does, for the auxiliary sidecar body only — never the LAZ point stream
// itself, so compressing it cannot affect codec bit-exactness.
func Save(w stream.Writer, idx *Index, compress bool) error {
	body := encodeIndex(idx)
	flag := byte(0)
	if compress {
		bound := lz4.CompressBlockBound(len(body))
		dst := make([]byte, bound)
		var c lz4.Compressor
		n, err := c.CompressBlock(body, dst)
		if err == nil && n > 0 && n < len(body) {
			flag = 1
			body = dst[:n]
		}
	}
	if err := w.PutBytes([]byte(sidecarMagic)); err != nil {
		return err
	}
	if err := w.PutBytes([]byte{flag}); err != nil {
		return err
	}
	if err := stream.Put32(w, stream.LittleEndian, uint32(len(body))); err != nil {
		return err
	}
	return w.PutBytes(body)
}

// Load parses a sidecar written by Save. When the body was compressed it
// is decompressed into an adaptively grown buffer (matching arloliu-mebo's
// LZ4Compressor retry-on-ErrInvalidSourceShortBuffer strategy), so no
// original size is needed.
func Load(r stream.Reader) (*Index, error) {
	magic, err := r.GetBytes(4)
	if err != nil {
		return nil, err
	}
	if string(magic) != sidecarMagic {
		return nil, laserr.ErrBadMagic
	}
	flagB, err := stream.ByteReader(r)
	if err != nil {
		return nil, err
	}
	n, err := stream.Get32(r, stream.LittleEndian)
	if err != nil {
		return nil, err
	}
	body, err := r.GetBytes(int(n))
	if err != nil {
		return nil, err
	}
	if flagB == 1 {
		body, err = decompressLZ4Adaptive(body)
		if err != nil {
			return nil, fmt.Errorf("%w: lax sidecar lz4 decompress: %v", laserr.ErrCorruptStream, err)
		}
	}
	return decodeIndex(body)
}

func decompressLZ4Adaptive(data []byte) ([]byte, error) {
	bufSize := len(data) * 4
	const maxSize = 128 * 1024 * 1024
	for bufSize <= maxSize {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, buf)
		if err == nil {
			return buf[:n], nil
		}
		bufSize *= 2
	}
	return nil, lz4.ErrInvalidSourceShortBuffer
}

func encodeIndex(idx *Index) []byte {
	var buf []byte
	putF64 := func(v float64) {
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
		buf = append(buf, tmp[:]...)
	}
	putU32 := func(v uint32) {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], v)
		buf = append(buf, tmp[:]...)
	}
	putF64(idx.Root.Rect.MinX)
	putF64(idx.Root.Rect.MinY)
	putF64(idx.Root.Rect.MaxX)
	putF64(idx.Root.Rect.MaxY)
	putU32(uint32(idx.CellCapacity))
	putU32(uint32(idx.MinimumPoints))
	putU32(uint32(idx.MaxIntervals))

	var encodeCell func(c *Cell)
	encodeCell = func(c *Cell) {
		if c.Children[0] != nil {
			buf = append(buf, 1)
			for _, ch := range c.Children {
				encodeCell(ch)
			}
			return
		}
		buf = append(buf, 0)
		putU32(uint32(len(c.Intervals)))
		for _, iv := range c.Intervals {
			putU32(iv.First)
			putU32(iv.Last)
		}
	}
	encodeCell(idx.Root)
	return buf
}

func decodeIndex(buf []byte) (*Index, error) {
	pos := 0
	need := func(n int) error {
		if pos+n > len(buf) {
			return laserr.ErrUnexpectedEOF
		}
		return nil
	}
	getF64 := func() (float64, error) {
		if err := need(8); err != nil {
			return 0, err
		}
		v := math.Float64frombits(binary.LittleEndian.Uint64(buf[pos:]))
		pos += 8
		return v, nil
	}
	getU32 := func() (uint32, error) {
		if err := need(4); err != nil {
			return 0, err
		}
		v := binary.LittleEndian.Uint32(buf[pos:])
		pos += 4
		return v, nil
	}

	minX, err := getF64()
	if err != nil {
		return nil, err
	}
	minY, err := getF64()
	if err != nil {
		return nil, err
	}
	maxX, err := getF64()
	if err != nil {
		return nil, err
	}
	maxY, err := getF64()
	if err != nil {
		return nil, err
	}
	cellCap, err := getU32()
	if err != nil {
		return nil, err
	}
	minPoints, err := getU32()
	if err != nil {
		return nil, err
	}
	maxIntervals, err := getU32()
	if err != nil {
		return nil, err
	}

	idx := &Index{
		CellCapacity:  int(cellCap),
		MinimumPoints: int(minPoints),
		MaxIntervals:  int(maxIntervals),
	}

	var decodeCell func(rect Rect, level int) (*Cell, error)
	decodeCell = func(rect Rect, level int) (*Cell, error) {
		if err := need(1); err != nil {
			return nil, err
		}
		kind := buf[pos]
		pos++
		c := &Cell{Rect: rect, Level: level}
		if kind == 1 {
			midX := (rect.MinX + rect.MaxX) / 2
			midY := (rect.MinY + rect.MaxY) / 2
			quadRects := [4]Rect{
				{rect.MinX, rect.MinY, midX, midY},
				{midX, rect.MinY, rect.MaxX, midY},
				{rect.MinX, midY, midX, rect.MaxY},
				{midX, midY, rect.MaxX, rect.MaxY},
			}
			for i := range c.Children {
				ch, err := decodeCell(quadRects[i], level+1)
				if err != nil {
					return nil, err
				}
				c.Children[i] = ch
			}
			return c, nil
		}
		n, err := getU32()
		if err != nil {
			return nil, err
		}
		if n > 1<<24 {
			return nil, laserr.ErrCorruptStream
		}
		c.Intervals = make([]Interval, n)
		for i := range c.Intervals {
			first, err := getU32()
			if err != nil {
				return nil, err
			}
			last, err := getU32()
			if err != nil {
				return nil, err
			}
			c.Intervals[i] = Interval{First: first, Last: last}
		}
		c.fingerprint = fingerprint(c.Intervals)
		return c, nil
	}

	root, err := decodeCell(Rect{minX, minY, maxX, maxY}, 0)
	if err != nil {
		return nil, err
	}
	idx.Root = root
	return idx, nil
}
