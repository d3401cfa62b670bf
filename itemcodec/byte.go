package itemcodec

import "github.com/ordishs/lidario/rangecoder"

// ByteCodec implements the BYTE[n] item: n arbitrary user extra-bytes per
// point, each byte delta-coded independently against the same byte
// position of the previous point (spec §3's Byte[n] item).
type ByteCodec struct {
	n        int
	haveLast bool
	last     []byte
	delta    []*rangecoder.IntegerModel
}

// NewByteCodec returns a fresh BYTE codec for n extra bytes per point.
func NewByteCodec(n int) *ByteCodec {
	c := &ByteCodec{n: n, last: make([]byte, n), delta: make([]*rangecoder.IntegerModel, n)}
	for i := range c.delta {
		c.delta[i] = rangecoder.NewIntegerModel(9)
	}
	return c
}

// Reset reinitializes model state at a chunk boundary.
func (c *ByteCodec) Reset() {
	c.haveLast = false
	for i := range c.last {
		c.last[i] = 0
	}
	for _, m := range c.delta {
		m.Reset()
	}
}

// Encode codes r.ExtraBytes, which must have length c.n.
func (c *ByteCodec) Encode(e *rangecoder.Encoder, r *Record) {
	eb := r.ExtraBytes
	if !c.haveLast {
		for i := 0; i < c.n; i++ {
			e.EncodeDirectBits(uint32(eb[i]), 8)
		}
		c.haveLast = true
		copy(c.last, eb[:c.n])
		return
	}
	for i := 0; i < c.n; i++ {
		c.delta[i].Encode(e, int32(eb[i])-int32(c.last[i]))
	}
	copy(c.last, eb[:c.n])
}

// Decode decodes the next extra-bytes record into r.ExtraBytes, allocating
// it if necessary.
func (c *ByteCodec) Decode(d *rangecoder.Decoder, r *Record) {
	if len(r.ExtraBytes) < c.n {
		r.ExtraBytes = make([]byte, c.n)
	}
	if !c.haveLast {
		for i := 0; i < c.n; i++ {
			r.ExtraBytes[i] = byte(d.DecodeDirectBits(8))
		}
		c.haveLast = true
		copy(c.last, r.ExtraBytes[:c.n])
		return
	}
	for i := 0; i < c.n; i++ {
		r.ExtraBytes[i] = byte(int32(c.last[i]) + c.delta[i].Decode(d))
	}
	copy(c.last, r.ExtraBytes[:c.n])
}
