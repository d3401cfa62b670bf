package stream

import (
	"errors"
	"io"

	"github.com/ordishs/lidario/laserr"
)

// GenericReader wraps any io.Reader, optionally an io.Seeker, as a Reader.
// Used for stdin piping and caller-supplied streams that aren't *os.File.
type GenericReader struct {
	r   io.Reader
	s   io.Seeker
	pos int64
}

var _ Reader = (*GenericReader)(nil)

// NewGenericReader wraps r. If r also implements io.Seeker, Seek/SeekEnd and
// IsSeekable become available.
func NewGenericReader(r io.Reader) *GenericReader {
	gr := &GenericReader{r: r}
	if s, ok := r.(io.Seeker); ok {
		gr.s = s
	}
	return gr
}

func (g *GenericReader) GetBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(g.r, buf); err != nil {
		return nil, wrapEOF(err)
	}
	g.pos += int64(n)
	return buf, nil
}

func (g *GenericReader) Tell() (int64, error) { return g.pos, nil }

func (g *GenericReader) Seek(offset int64) error {
	if g.s == nil {
		return errors.Join(laserr.ErrIO, errors.New("stream: backend is not seekable"))
	}
	off, err := g.s.Seek(offset, io.SeekStart)
	if err != nil {
		return errors.Join(laserr.ErrIO, err)
	}
	g.pos = off
	return nil
}

func (g *GenericReader) SeekEnd(offset int64) error {
	if g.s == nil {
		return errors.Join(laserr.ErrIO, errors.New("stream: backend is not seekable"))
	}
	off, err := g.s.Seek(-offset, io.SeekEnd)
	if err != nil {
		return errors.Join(laserr.ErrIO, err)
	}
	g.pos = off
	return nil
}

func (g *GenericReader) IsSeekable() bool { return g.s != nil }

// GenericWriter wraps any io.Writer, optionally an io.WriteSeeker.
type GenericWriter struct {
	w   io.Writer
	s   io.Seeker
	pos int64
}

var _ Writer = (*GenericWriter)(nil)

// NewGenericWriter wraps w. If w also implements io.Seeker, Seek becomes
// available (needed to patch the header/chunk-table self-pointer on close).
func NewGenericWriter(w io.Writer) *GenericWriter {
	gw := &GenericWriter{w: w}
	if s, ok := w.(io.Seeker); ok {
		gw.s = s
	}
	return gw
}

func (g *GenericWriter) PutBytes(b []byte) error {
	n, err := g.w.Write(b)
	g.pos += int64(n)
	if err != nil {
		return errors.Join(laserr.ErrIO, err)
	}
	return nil
}

func (g *GenericWriter) Tell() (int64, error) { return g.pos, nil }

func (g *GenericWriter) Seek(offset int64) error {
	if g.s == nil {
		return errors.Join(laserr.ErrIO, errors.New("stream: backend is not seekable"))
	}
	off, err := g.s.Seek(offset, io.SeekStart)
	if err != nil {
		return errors.Join(laserr.ErrIO, err)
	}
	g.pos = off
	return nil
}

func (g *GenericWriter) IsSeekable() bool { return g.s != nil }
