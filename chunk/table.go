// Package chunk implements the LASzip chunking layer of spec §4.E: fixed
// and variable-size independently-decodable chunks, the delta-coded chunk
// table that indexes them, and the state machine a reader drives to move
// between chunks (including seeking to an arbitrary point index).
package chunk

import (
	"github.com/ordishs/lidario/laserr"
	"github.com/ordishs/lidario/rangecoder"
	"github.com/ordishs/lidario/stream"
)

// DefaultChunkSize is the LASzip default fixed chunk size (spec §4.E).
// Nothing in this module applies it implicitly: NewWriter uses the
// chunkSize it is given, and the root Writer defaults to variable chunking.
const DefaultChunkSize = 50000

// Entry is one row of the chunk table: how many points and how many
// compressed bytes that chunk occupies.
type Entry struct {
	Points uint32
	Bytes  uint32
}

// Table is the full chunk index. Variable chunking records per-chunk point
// counts; fixed chunking's points field is constant and could be omitted,
// but spec §4.E describes the table uniformly so both modes share a
// format: (points_this_chunk, bytes_this_chunk) pairs, delta-coded against
// the table's own small integer models when written through the range
// coder (mirroring the item codecs' approach rather than a flat binary
// array, so one code path handles both chunking modes).
type Table struct {
	Fixed   bool // true: every entry.Points equals the writer's chunk size (last may be short)
	Entries []Entry
}

// TotalPoints sums the table's per-chunk point counts.
func (t *Table) TotalPoints() uint64 {
	var n uint64
	for _, e := range t.Entries {
		n += uint64(e.Points)
	}
	return n
}

// ChunkContaining returns the index of the chunk whose point range covers
// point index i, along with the point index the chunk itself starts at.
// Used by Reader.Seek (spec §4.E: "finds the chunk whose prefix sum covers
// i").
func (t *Table) ChunkContaining(i uint64) (chunkIndex int, chunkStart uint64, ok bool) {
	var start uint64
	for idx, e := range t.Entries {
		end := start + uint64(e.Points)
		if i < end {
			return idx, start, true
		}
		start = end
	}
	return 0, 0, false
}

// encodeTable encodes the whole chunk table (entry count, then per-entry
// point and byte counts) using the same length-prefixed
// delta-model encoding the range coder already provides, run over its own
// miniature coded stream (the table is always its own independently
// flushed region, never interleaved with point data, per spec §4.E).
func encodeTable(t *Table) []byte {
	e := rangecoder.NewEncoder()
	pointsModel := rangecoder.NewIntegerModel(32)
	bytesModel := rangecoder.NewIntegerModel(32)
	e.EncodeDirectBits(uint32(len(t.Entries)), 32)
	var lastPoints, lastBytes int32
	for _, entry := range t.Entries {
		pointsModel.Encode(e, int32(entry.Points)-lastPoints)
		bytesModel.Encode(e, int32(entry.Bytes)-lastBytes)
		lastPoints = int32(entry.Points)
		lastBytes = int32(entry.Bytes)
	}
	return e.Finish()
}

// decodeTable is the inverse of encodeTable.
func decodeTable(payload []byte) (*Table, error) {
	d := rangecoder.NewDecoder(payload)
	pointsModel := rangecoder.NewIntegerModel(32)
	bytesModel := rangecoder.NewIntegerModel(32)
	n := d.DecodeDirectBits(32)
	if n > 1<<28 {
		return nil, laserr.ErrCorruptStream
	}
	t := &Table{Entries: make([]Entry, n)}
	var lastPoints, lastBytes int32
	for i := range t.Entries {
		lastPoints += pointsModel.Decode(d)
		lastBytes += bytesModel.Decode(d)
		if lastPoints < 0 || lastBytes < 0 {
			return nil, laserr.ErrCorruptStream
		}
		t.Entries[i] = Entry{Points: uint32(lastPoints), Bytes: uint32(lastBytes)}
	}
	return t, nil
}

// WriteTable writes the chunk table at the stream's current position and
// returns the byte offset it was written at, so the caller can patch the
// header/self-pointer to reference it (spec §4.E: "writes a placeholder
// immediately after the last chunk, and patches the header's reference").
func WriteTable(w stream.Writer, t *Table) (offset int64, err error) {
	offset, err = w.Tell()
	if err != nil {
		return 0, err
	}
	payload := encodeTable(t)
	if err := stream.Put32(w, stream.LittleEndian, uint32(len(payload))); err != nil {
		return 0, err
	}
	if err := w.PutBytes(payload); err != nil {
		return 0, err
	}
	return offset, nil
}

// ReadTable reads a chunk table at the stream's current position.
func ReadTable(r stream.Reader) (*Table, error) {
	n, err := stream.Get32(r, stream.LittleEndian)
	if err != nil {
		return nil, err
	}
	if n > 1<<28 {
		return nil, laserr.ErrCorruptStream
	}
	payload, err := r.GetBytes(int(n))
	if err != nil {
		return nil, err
	}
	return decodeTable(payload)
}

// ReadSelfPointer reads the leading self pointer of a chunked point
// block: the absolute byte offset of the chunk table (spec §4.E).
func ReadSelfPointer(r stream.Reader) (int64, error) {
	v, err := stream.Get64(r, stream.LittleEndian)
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// WriteSelfPointer writes the self pointer at the stream's current
// position (always the start of a chunked point block).
func WriteSelfPointer(w stream.Writer, tableOffset int64) error {
	return stream.Put64(w, stream.LittleEndian, uint64(tableOffset))
}
