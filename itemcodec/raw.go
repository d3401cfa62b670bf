package itemcodec

import (
	"encoding/binary"
	"math"
)

// EncodeRaw appends r's fields for one configured Item, in uncompressed
// LAS wire layout, to buf (spec §3's byte-for-byte item tables; spec §6:
// "for LAS, packed raw records of point_data_record_length bytes"). This
// is the uncompressed twin of the Codec.Encode path: same field set, no
// prediction or entropy coding.
func EncodeRaw(buf []byte, item Item, r *Record) []byte {
	var tmp [8]byte
	put16 := func(v uint16) {
		binary.LittleEndian.PutUint16(tmp[:2], v)
		buf = append(buf, tmp[:2]...)
	}
	put32 := func(v uint32) {
		binary.LittleEndian.PutUint32(tmp[:4], v)
		buf = append(buf, tmp[:4]...)
	}
	put64 := func(v uint64) {
		binary.LittleEndian.PutUint64(tmp[:8], v)
		buf = append(buf, tmp[:8]...)
	}
	putF32 := func(v float32) { put32(math.Float32bits(v)) }
	putF64 := func(v float64) { put64(math.Float64bits(v)) }

	switch item.Type {
	case TypePoint10:
		put32(uint32(r.X))
		put32(uint32(r.Y))
		put32(uint32(r.Z))
		put16(r.Intensity)
		buf = append(buf, bitField10(r), r.Classification, byte(r.ScanAngleRank), r.UserData)
		put16(r.PointSourceID)
	case TypeGPSTime11:
		putF64(r.GPSTime)
	case TypeRGB12:
		put16(r.RGB[0])
		put16(r.RGB[1])
		put16(r.RGB[2])
	case TypeWavePacket13:
		buf = append(buf, r.WavePacket.DescriptorIndex)
		put64(r.WavePacket.ByteOffset)
		put32(r.WavePacket.PacketSize)
		putF32(r.WavePacket.ReturnLocation)
		putF32(r.WavePacket.Xt)
		putF32(r.WavePacket.Yt)
		putF32(r.WavePacket.Zt)
	case TypeByte, TypeByte14:
		n := int(item.Size)
		eb := r.ExtraBytes
		if len(eb) > n {
			eb = eb[:n]
		}
		buf = append(buf, eb...)
		for i := len(eb); i < n; i++ {
			buf = append(buf, 0)
		}
	case TypePoint14:
		put32(uint32(r.X))
		put32(uint32(r.Y))
		put32(uint32(r.Z))
		put16(r.Intensity)
		buf = append(buf, returnByte14(r), flagsByte14(r), r.Classification, r.UserData)
		var angle [2]byte
		binary.LittleEndian.PutUint16(angle[:], uint16(r.ScanAngle14))
		buf = append(buf, angle[:]...)
		put16(r.PointSourceID)
		putF64(r.GPSTime)
	case TypeRGB14:
		put16(r.RGB[0])
		put16(r.RGB[1])
		put16(r.RGB[2])
	case TypeRGBNIR14:
		put16(r.RGB[0])
		put16(r.RGB[1])
		put16(r.RGB[2])
		put16(r.NIR)
	}
	return buf
}

// DecodeRaw is the inverse of EncodeRaw: it reads one item's fields out
// of buf (which must hold exactly item.Size bytes) into r.
func DecodeRaw(buf []byte, item Item, r *Record) {
	get16 := func(off int) uint16 { return binary.LittleEndian.Uint16(buf[off:]) }
	get32 := func(off int) uint32 { return binary.LittleEndian.Uint32(buf[off:]) }
	get64 := func(off int) uint64 { return binary.LittleEndian.Uint64(buf[off:]) }

	switch item.Type {
	case TypePoint10:
		r.X = int32(get32(0))
		r.Y = int32(get32(4))
		r.Z = int32(get32(8))
		r.Intensity = get16(12)
		setBitField10(r, buf[14])
		r.Classification = buf[15]
		r.ScanAngleRank = int8(buf[16])
		r.UserData = buf[17]
		r.PointSourceID = get16(18)
	case TypeGPSTime11:
		r.GPSTime = math.Float64frombits(get64(0))
	case TypeRGB12:
		r.RGB[0], r.RGB[1], r.RGB[2] = get16(0), get16(2), get16(4)
	case TypeWavePacket13:
		r.WavePacket.DescriptorIndex = buf[0]
		r.WavePacket.ByteOffset = get64(1)
		r.WavePacket.PacketSize = get32(9)
		r.WavePacket.ReturnLocation = math.Float32frombits(get32(13))
		r.WavePacket.Xt = math.Float32frombits(get32(17))
		r.WavePacket.Yt = math.Float32frombits(get32(21))
		r.WavePacket.Zt = math.Float32frombits(get32(25))
	case TypeByte, TypeByte14:
		r.ExtraBytes = append([]byte(nil), buf...)
	case TypePoint14:
		r.X = int32(get32(0))
		r.Y = int32(get32(4))
		r.Z = int32(get32(8))
		r.Intensity = get16(12)
		setReturnByte14(r, buf[14])
		setFlagsByte14(r, buf[15])
		r.Classification = buf[16]
		r.UserData = buf[17]
		r.ScanAngle14 = int16(get16(18))
		r.PointSourceID = get16(20)
		r.GPSTime = math.Float64frombits(get64(22))
	case TypeRGB14:
		r.RGB[0], r.RGB[1], r.RGB[2] = get16(0), get16(2), get16(4)
	case TypeRGBNIR14:
		r.RGB[0], r.RGB[1], r.RGB[2] = get16(0), get16(2), get16(4)
		r.NIR = get16(6)
	}
}
