package lidario

import (
	"github.com/ordishs/lidario/internal/msgsink"
	"github.com/ordishs/lidario/pointio"
)

// WaveformGapPolicy names a mode for wavepacket items whose successive
// byte_offset values are non-monotonic (spec §9 open question). A Reader
// stores the chosen policy in ReaderOptions, but no read path consults it:
// wavepacket fields are decoded as plain values and their offsets are never
// resolved into waveform data, so the policy does not change what ReadPoint
// returns.
type WaveformGapPolicy int

const (
	// WaveformGapStrict names the strict mode (the default value).
	WaveformGapStrict WaveformGapPolicy = iota
	// WaveformGapMapped names the sparse offset-map mode.
	WaveformGapMapped
)

// WriterOptions configures a Writer's behavior beyond the header fields
// the caller sets directly, following the teacher's
// NewLasFile(fileName, fileMode) constructor-with-mode-string pattern,
// generalized to typed functional options.
type WriterOptions struct {
	ChunkSize           uint32
	KeepCOPC            bool
	PreservePrivateVLRs bool
	CompatibilityMode   bool
	BuildSpatialIndex   bool
	SpatialCellCap      int
	Sink                msgsink.Sink
}

func defaultWriterOptions() WriterOptions {
	return WriterOptions{
		ChunkSize: 0, // variable chunking unless WithChunkSize overrides it
		Sink:      msgsink.Default(),
	}
}

// WriterOption mutates a WriterOptions in place.
type WriterOption func(*WriterOptions)

// WithChunkSize fixes every chunk to n points (0 restores variable
// chunking, where the caller must call Writer.Chunk explicitly).
func WithChunkSize(n uint32) WriterOption {
	return func(o *WriterOptions) { o.ChunkSize = n }
}

// WithKeepCOPC preserves any COPC indexing EVLRs already present on the
// header instead of stripping them (spec §9: "the source strips them to
// avoid producing invalid COPC files via a regular writer; keep that
// policy"). Most callers should leave this false.
func WithKeepCOPC(keep bool) WriterOption {
	return func(o *WriterOptions) { o.KeepCOPC = keep }
}

// WithPreservePrivateVLRs carries forward a reused header's LASzip,
// tiling, and lascompatible VLRs verbatim instead of the default
// consume-on-load, suppress-on-save policy (spec §4.G). Most callers
// building a fresh header never have these VLRs set in the first place,
// so this only matters when h was obtained from header.Load and is
// being reused as the basis for a new write.
func WithPreservePrivateVLRs(preserve bool) WriterOption {
	return func(o *WriterOptions) { o.PreservePrivateVLRs = preserve }
}

// WithCompatibilityMode enables the §4.I transform: an extended
// point_data_format (6..10) is down-converted and written into its
// legacy target format, with the restoring fields stashed in named
// extra-bytes and the lascompatible marker VLR set.
func WithCompatibilityMode(enabled bool) WriterOption {
	return func(o *WriterOptions) { o.CompatibilityMode = enabled }
}

// WithSpatialIndex builds a §4.H quadtree spatial index over every point
// written (cellCapacity <= 0 uses lax.DefaultCellCapacity). On v1.4+
// headers Close appends it as a LAStools LAX EVLR; on earlier versions it
// is not written to the file and is only returned by Writer.SpatialIndex.
func WithSpatialIndex(cellCapacity int) WriterOption {
	return func(o *WriterOptions) {
		o.BuildSpatialIndex = true
		o.SpatialCellCap = cellCapacity
	}
}

// WithMessageSink overrides the writer's warning sink (spec §7:
// "pluggable message sink at severity levels").
func WithMessageSink(sink msgsink.Sink) WriterOption {
	return func(o *WriterOptions) { o.Sink = sink }
}

// ReaderOptions configures a Reader's behavior.
type ReaderOptions struct {
	Selective         pointio.Selective
	WaveformGapPolicy WaveformGapPolicy
	Sink              msgsink.Sink
}

func defaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		Selective: pointio.SelectAll(),
		Sink:      msgsink.Default(),
	}
}

// ReaderOption mutates a ReaderOptions in place.
type ReaderOption func(*ReaderOptions)

// WithSelective restricts ReadPoint to the given field groups (spec
// §4.F: "honors selective-field decoding").
func WithSelective(sel pointio.Selective) ReaderOption {
	return func(o *ReaderOptions) { o.Selective = sel }
}

// WithWaveformGapPolicy records p in ReaderOptions.WaveformGapPolicy; see
// WaveformGapPolicy for what it does and does not affect.
func WithWaveformGapPolicy(p WaveformGapPolicy) ReaderOption {
	return func(o *ReaderOptions) { o.WaveformGapPolicy = p }
}

// WithReaderMessageSink overrides the reader's warning sink.
func WithReaderMessageSink(sink msgsink.Sink) ReaderOption {
	return func(o *ReaderOptions) { o.Sink = sink }
}
