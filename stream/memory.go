package stream

import (
	"github.com/ordishs/lidario/laserr"
)

// MemoryStream is the in-memory-array backend: a growable byte slice used
// both for scratch decode buffers and for writers that accumulate a whole
// file in RAM before a single flush (e.g. building a LAX sidecar).
type MemoryStream struct {
	buf []byte
	pos int
}

var (
	_ Reader = (*MemoryStream)(nil)
	_ Writer = (*MemoryStream)(nil)
)

// NewMemoryStream wraps an existing byte slice for reading.
func NewMemoryStream(b []byte) *MemoryStream {
	return &MemoryStream{buf: b}
}

// NewMemoryWriter returns an empty, growable memory stream for writing.
func NewMemoryWriter() *MemoryStream {
	return &MemoryStream{buf: make([]byte, 0, 4096)}
}

// Bytes returns the accumulated buffer. Only meaningful after writes.
func (s *MemoryStream) Bytes() []byte { return s.buf }

func (s *MemoryStream) GetBytes(n int) ([]byte, error) {
	if s.pos+n > len(s.buf) {
		return nil, laserr.ErrUnexpectedEOF
	}
	b := s.buf[s.pos : s.pos+n]
	s.pos += n
	return b, nil
}

func (s *MemoryStream) PutBytes(b []byte) error {
	if s.pos == len(s.buf) {
		s.buf = append(s.buf, b...)
	} else {
		// Overwriting within an already-written region (e.g. patching a
		// chunk-table self-pointer after a seek).
		end := s.pos + len(b)
		if end > len(s.buf) {
			s.buf = append(s.buf, make([]byte, end-len(s.buf))...)
		}
		copy(s.buf[s.pos:end], b)
	}
	s.pos += len(b)
	return nil
}

func (s *MemoryStream) Tell() (int64, error) { return int64(s.pos), nil }

func (s *MemoryStream) Seek(offset int64) error {
	if offset < 0 || offset > int64(len(s.buf)) {
		return laserr.ErrIO
	}
	s.pos = int(offset)
	return nil
}

func (s *MemoryStream) SeekEnd(offset int64) error {
	return s.Seek(int64(len(s.buf)) - offset)
}

func (s *MemoryStream) IsSeekable() bool { return true }
