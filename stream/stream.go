// Package stream presents the narrow, endian-normalized byte I/O interface
// every other layer of this codec is built on: get_byte/get_bytes/get16..64
// and their write twins, plus tell/seek/is_seekable. Backends are a native
// file handle, an in-memory buffer, or any caller-provided io.ReadSeeker /
// io.Writer.
//
// The design follows arloliu/mebo's endian.EndianEngine: wider reads and
// writes are composed from a single Engine rather than duplicated per
// backend, and byte order is a swappable strategy rather than a compile-time
// constant.
package stream

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/ordishs/lidario/laserr"
)

// Engine combines binary.ByteOrder and binary.AppendByteOrder, exactly as
// arloliu/mebo's endian.EndianEngine does, so both binary.LittleEndian and
// binary.BigEndian satisfy it without adaptation.
type Engine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// LittleEndian is the byte order every LAS/LAZ field on disk uses.
var LittleEndian Engine = binary.LittleEndian

// Reader is the read-side byte stream contract. Every wider read is built
// from GetBytes by the default helpers below; backends only need to
// implement GetBytes, Tell, Seek, SeekEnd and IsSeekable.
type Reader interface {
	// GetBytes reads exactly n bytes or returns laserr.ErrUnexpectedEOF.
	GetBytes(n int) ([]byte, error)
	// Tell returns the current read offset.
	Tell() (int64, error)
	// Seek moves the read offset to an absolute position. Returns
	// laserr.ErrIO wrapping the backend's error if the backend is not
	// seekable.
	Seek(offset int64) error
	// SeekEnd moves the read offset to offset bytes before the end of the
	// stream.
	SeekEnd(offset int64) error
	// IsSeekable reports whether Seek/SeekEnd are usable.
	IsSeekable() bool
}

// Writer is the write-side byte stream contract.
type Writer interface {
	PutBytes(b []byte) error
	Tell() (int64, error)
	Seek(offset int64) error
	IsSeekable() bool
}

// ByteReader reads a single byte, composed from GetBytes.
func ByteReader(r Reader) (byte, error) {
	b, err := r.GetBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Get16 reads a little/big-endian uint16 according to e.
func Get16(r Reader, e Engine) (uint16, error) {
	b, err := r.GetBytes(2)
	if err != nil {
		return 0, err
	}
	return e.Uint16(b), nil
}

// Get32 reads a little/big-endian uint32 according to e.
func Get32(r Reader, e Engine) (uint32, error) {
	b, err := r.GetBytes(4)
	if err != nil {
		return 0, err
	}
	return e.Uint32(b), nil
}

// Get64 reads a little/big-endian uint64 according to e.
func Get64(r Reader, e Engine) (uint64, error) {
	b, err := r.GetBytes(8)
	if err != nil {
		return 0, err
	}
	return e.Uint64(b), nil
}

// GetI32 reads a signed little/big-endian int32.
func GetI32(r Reader, e Engine) (int32, error) {
	v, err := Get32(r, e)
	return int32(v), err
}

// GetF64 reads an IEEE-754 double.
func GetF64(r Reader, e Engine) (float64, error) {
	v, err := Get64(r, e)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// GetF32 reads an IEEE-754 single.
func GetF32(r Reader, e Engine) (float32, error) {
	v, err := Get32(r, e)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Put16 appends a uint16 in e's byte order.
func Put16(w Writer, e Engine, v uint16) error {
	return w.PutBytes(e.AppendUint16(nil, v))
}

// Put32 appends a uint32 in e's byte order.
func Put32(w Writer, e Engine, v uint32) error {
	return w.PutBytes(e.AppendUint32(nil, v))
}

// Put64 appends a uint64 in e's byte order.
func Put64(w Writer, e Engine, v uint64) error {
	return w.PutBytes(e.AppendUint64(nil, v))
}

// PutI32 appends a signed int32.
func PutI32(w Writer, e Engine, v int32) error {
	return Put32(w, e, uint32(v))
}

// PutF64 appends an IEEE-754 double.
func PutF64(w Writer, e Engine, v float64) error {
	return Put64(w, e, math.Float64bits(v))
}

// PutF32 appends an IEEE-754 single.
func PutF32(w Writer, e Engine, v float32) error {
	return Put32(w, e, math.Float32bits(v))
}

// wrapEOF normalizes io.EOF / io.ErrUnexpectedEOF into laserr.ErrUnexpectedEOF
// so callers never need to special-case the stdlib sentinels.
func wrapEOF(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return laserr.ErrUnexpectedEOF
	}
	return errors.Join(laserr.ErrIO, err)
}
