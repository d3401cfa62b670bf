package chunk

import (
	"github.com/ordishs/lidario/itemcodec"
	"github.com/ordishs/lidario/laserr"
	"github.com/ordishs/lidario/rangecoder"
	"github.com/ordishs/lidario/stream"
)

// newCodecs builds one codec per configured item, in order (spec §4.C,
// §4.D).
func newCodecs(items []itemcodec.Item) []itemcodec.Codec {
	codecs := make([]itemcodec.Codec, len(items))
	for i, it := range items {
		codecs[i] = itemcodec.New(it)
	}
	return codecs
}

// Writer drives the chunk layer's write side: it feeds points through the
// configured item codecs, closes chunks at the configured boundary (fixed
// point count, or an explicit caller-requested Chunk call), and on Close
// writes the self pointer, the chunk bodies and the chunk table.
//
// Chunk bodies are buffered in memory until Close rather than streamed
// directly to the output, which lets the self pointer be written once,
// up front and correctly, whether or not the underlying stream is
// seekable — see the corresponding DESIGN.md entry.
type Writer struct {
	items     []itemcodec.Item
	codecs    []itemcodec.Codec
	chunkSize uint32 // 0 means variable chunking: caller must call Chunk()

	enc       *rangecoder.Encoder
	curPoints uint32

	chunks []Entry
	bodies [][]byte
}

// NewWriter returns a Writer for the given item list. chunkSize is the
// fixed point count per chunk (DefaultChunkSize is the LASzip default);
// pass 0 to use variable chunking, where the caller calls Chunk()
// explicitly to close each chunk.
func NewWriter(items []itemcodec.Item, chunkSize uint32) *Writer {
	w := &Writer{
		items:     items,
		codecs:    newCodecs(items),
		chunkSize: chunkSize,
		enc:       rangecoder.NewEncoder(),
	}
	return w
}

// WritePoint codes one point's fields through every configured item
// codec, then closes the chunk if fixed chunking's boundary was reached.
func (w *Writer) WritePoint(r *itemcodec.Record) error {
	for _, c := range w.codecs {
		c.Encode(w.enc, r)
	}
	w.curPoints++
	if w.chunkSize > 0 && w.curPoints >= w.chunkSize {
		w.closeChunk()
	}
	return nil
}

// Chunk explicitly closes the current chunk (variable chunking, spec
// §4.E). It is a no-op if no points have been written since the last
// chunk boundary.
func (w *Writer) Chunk() error {
	if w.curPoints == 0 {
		return nil
	}
	w.closeChunk()
	return nil
}

func (w *Writer) closeChunk() {
	body := append([]byte(nil), w.enc.Finish()...)
	w.chunks = append(w.chunks, Entry{Points: w.curPoints, Bytes: uint32(len(body))})
	w.bodies = append(w.bodies, body)

	w.enc.Reset()
	for _, c := range w.codecs {
		c.Reset()
	}
	w.curPoints = 0
}

// Close flushes any open chunk and writes the self pointer, chunk bodies
// and chunk table to out in that order. It returns the number of points
// written.
func (w *Writer) Close(out stream.Writer) (uint64, error) {
	if err := w.Chunk(); err != nil {
		return 0, err
	}

	blockStart, err := out.Tell()
	if err != nil {
		return 0, err
	}

	var bodyBytes int64
	for _, b := range w.bodies {
		bodyBytes += int64(len(b))
	}
	tableOffset := blockStart + 8 + bodyBytes

	if err := WriteSelfPointer(out, tableOffset); err != nil {
		return 0, err
	}
	for _, b := range w.bodies {
		if err := out.PutBytes(b); err != nil {
			return 0, err
		}
	}
	table := &Table{Fixed: w.chunkSize > 0, Entries: w.chunks}
	if _, err := WriteTable(out, table); err != nil {
		return 0, err
	}

	return table.TotalPoints(), nil
}

// Reader drives the chunk layer's read side: it loads the chunk table up
// front, then decodes points chunk by chunk, reinitializing codecs at
// every chunk boundary and supporting direct seeks to an arbitrary point
// index (spec §4.E: "reader state machine").
type Reader struct {
	items  []itemcodec.Item
	codecs []itemcodec.Codec

	in         stream.Reader
	dataStart  int64
	table      *Table
	totalBytes int64 // running byte offset of the chunk currently loaded, within the data region

	curChunk        int
	curPointInChunk uint32
	dec             *rangecoder.Decoder
}

// NewReader opens the chunked point block starting at in's current
// position: reads the self pointer, jumps to the table, loads it, then
// returns the stream positioned to read chunk bodies from dataStart.
func NewReader(in stream.Reader, items []itemcodec.Item) (*Reader, error) {
	dataStart, err := in.Tell()
	if err != nil {
		return nil, err
	}
	dataStart += 8 // the self pointer itself occupies the first 8 bytes

	tableOffset, err := ReadSelfPointer(in)
	if err != nil {
		return nil, err
	}
	if !in.IsSeekable() {
		return nil, laserr.ErrIO
	}
	if err := in.Seek(tableOffset); err != nil {
		return nil, err
	}
	table, err := ReadTable(in)
	if err != nil {
		return nil, err
	}
	if err := in.Seek(dataStart); err != nil {
		return nil, err
	}

	r := &Reader{
		items:     items,
		codecs:    newCodecs(items),
		in:        in,
		dataStart: dataStart,
		table:     table,
	}
	if err := r.loadChunk(0); err != nil {
		return nil, err
	}
	return r, nil
}

// TotalPoints returns the point count recorded in the chunk table.
func (r *Reader) TotalPoints() uint64 { return r.table.TotalPoints() }

func (r *Reader) chunkByteOffset(idx int) int64 {
	off := r.dataStart
	for i := 0; i < idx; i++ {
		off += int64(r.table.Entries[i].Bytes)
	}
	return off
}

func (r *Reader) loadChunk(idx int) error {
	if idx >= len(r.table.Entries) {
		r.dec = nil
		r.curChunk = idx
		r.curPointInChunk = 0
		return nil
	}
	off := r.chunkByteOffset(idx)
	if err := r.in.Seek(off); err != nil {
		return err
	}
	n := int(r.table.Entries[idx].Bytes)
	body, err := r.in.GetBytes(n)
	if err != nil {
		return err
	}
	r.dec = rangecoder.NewDecoder(body)
	for _, c := range r.codecs {
		c.Reset()
	}
	r.curChunk = idx
	r.curPointInChunk = 0
	return nil
}

// ReadPoint decodes the next point in sequence into r, advancing across
// chunk boundaries transparently.
func (r *Reader) ReadPoint(rec *itemcodec.Record) error {
	if r.dec == nil || r.curPointInChunk >= r.table.Entries[r.curChunk].Points {
		if err := r.loadChunk(r.curChunk + 1); err != nil {
			return err
		}
	}
	if r.dec == nil {
		return laserr.ErrUnexpectedEOF
	}
	for _, c := range r.codecs {
		c.Decode(r.dec, rec)
	}
	r.curPointInChunk++
	return nil
}

// Seek moves the reader so the next ReadPoint call returns point index i
// (spec §4.E: "finds the chunk whose prefix sum covers i, jumps to its
// byte offset, initializes models, and decodes forward i - chunk_start
// times").
func (r *Reader) Seek(i uint64) error {
	chunkIdx, chunkStart, ok := r.table.ChunkContaining(i)
	if !ok {
		return laserr.ErrCorruptStream
	}
	if err := r.loadChunk(chunkIdx); err != nil {
		return err
	}
	var discard itemcodec.Record
	for p := chunkStart; p < i; p++ {
		if err := r.ReadPoint(&discard); err != nil {
			return err
		}
	}
	return nil
}
