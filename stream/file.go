package stream

import (
	"errors"
	"io"
	"os"

	"github.com/ordishs/lidario/laserr"
)

// FileStream is the native-file-handle backend. It satisfies both Reader
// and Writer; callers pick which side to use based on how the file was
// opened.
type FileStream struct {
	f *os.File
}

var (
	_ Reader = (*FileStream)(nil)
	_ Writer = (*FileStream)(nil)
)

// NewFileStream wraps an already-opened *os.File.
func NewFileStream(f *os.File) *FileStream {
	return &FileStream{f: f}
}

func (s *FileStream) GetBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.f, buf); err != nil {
		return nil, wrapEOF(err)
	}
	return buf, nil
}

func (s *FileStream) PutBytes(b []byte) error {
	if _, err := s.f.Write(b); err != nil {
		return errors.Join(laserr.ErrIO, err)
	}
	return nil
}

func (s *FileStream) Tell() (int64, error) {
	off, err := s.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, errors.Join(laserr.ErrIO, err)
	}
	return off, nil
}

func (s *FileStream) Seek(offset int64) error {
	if _, err := s.f.Seek(offset, io.SeekStart); err != nil {
		return errors.Join(laserr.ErrIO, err)
	}
	return nil
}

func (s *FileStream) SeekEnd(offset int64) error {
	if _, err := s.f.Seek(-offset, io.SeekEnd); err != nil {
		return errors.Join(laserr.ErrIO, err)
	}
	return nil
}

func (s *FileStream) IsSeekable() bool { return true }

// Close closes the underlying file.
func (s *FileStream) Close() error { return s.f.Close() }
