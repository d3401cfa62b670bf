package itemcodec

// WavePacket is the 29-byte WAVEPACKET13 item (spec §3).
type WavePacket struct {
	DescriptorIndex uint8
	ByteOffset      uint64
	PacketSize      uint32
	ReturnLocation  float32
	Xt, Yt, Zt      float32
}

// Record is the format-agnostic superset of every field any point_data_format
// (0..10) can carry. A configured Item list (spec §4.D) determines which
// fields of a Record a given file actually populates; unused fields are
// simply left at their zero value. Keeping one concrete struct instead of a
// generic byte buffer is what lets each item codec work with named fields
// instead of manual offset arithmetic, mirroring how the teacher's
// PointRecord0..3 (seen via the viamrobotics/rdk consumer in the pack)
// exposes typed point records rather than raw bytes.
type Record struct {
	X, Y, Z int32

	Intensity uint16

	// Core10 bitfield, formats 0-5: return_number:3, number_of_returns:3,
	// scan_direction:1, edge_of_flight_line:1.
	ReturnNumber    uint8
	NumberOfReturns uint8
	ScanDirection   bool
	EdgeOfFlight    bool

	// Core10 classification_with_flags, formats 0-5.
	Classification uint8

	ScanAngleRank int8
	UserData      uint8
	PointSourceID uint16

	GPSTime float64

	RGB [3]uint16
	NIR uint16

	WavePacket WavePacket

	ExtraBytes []byte

	// Core14-only fields, formats 6-10. ReturnNumber/NumberOfReturns above
	// are reused but widen to 4 bits (0..15) instead of Core10's 3 bits,
	// and Classification above widens to a full 8-bit byte with no
	// embedded flag bits; the flag bits move here.
	ScannerChannel      uint8
	ClassificationFlags uint8
	ScanAngle14         int16
}
