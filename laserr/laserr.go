// Package laserr defines the error kinds shared across the LAS/LAZ codec and
// container layers.
//
// Every fatal condition the library reports wraps one of the sentinels below,
// so callers can branch with errors.Is regardless of which layer produced the
// error. Layers add context with fmt.Errorf("...: %w", Err*) rather than
// inventing new error types.
package laserr

import "errors"

var (
	// ErrUnexpectedEOF means the byte stream ended before the current
	// structural read completed.
	ErrUnexpectedEOF = errors.New("las/laz: unexpected end of stream")

	// ErrBadMagic means the file does not begin with the LASF signature.
	ErrBadMagic = errors.New("las/laz: bad file signature")

	// ErrUnsupportedVersion means the LAS/LAZ version or LASzip descriptor
	// version triple exceeds what this implementation supports.
	ErrUnsupportedVersion = errors.New("las/laz: unsupported version")

	// ErrCorruptStream means an arithmetic-decoded value fell outside its
	// item's representable range, or a length field overruns its container.
	ErrCorruptStream = errors.New("las/laz: corrupt stream")

	// ErrInvalidHeader means an internal header consistency check failed.
	ErrInvalidHeader = errors.New("las/laz: invalid header")

	// ErrIntegerOverflow means a coordinate cannot be quantized to int32
	// with the current scale/offset.
	ErrIntegerOverflow = errors.New("las/laz: integer overflow quantizing coordinate")

	// ErrIO wraps an underlying byte-stream failure.
	ErrIO = errors.New("las/laz: io error")

	// ErrClosed means an operation was attempted on a reader/writer that
	// already hit a fatal error or was closed.
	ErrClosed = errors.New("las/laz: reader or writer is closed")
)
