package rangecoder

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitModelRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	bits := make([]int, 2000)
	for i := range bits {
		if rng.Float64() < 0.2 {
			bits[i] = 1
		}
	}

	enc := NewEncoder()
	encProb := uint16(modelBitTotal / 2)
	for _, b := range bits {
		enc.EncodeBit(&encProb, b)
	}
	out := enc.Finish()

	dec := NewDecoder(out)
	decProb := uint16(modelBitTotal / 2)
	for i, want := range bits {
		got := dec.DecodeBit(&decProb)
		require.Equal(t, want, got, "bit %d", i)
	}
}

func TestDirectBitsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	vals := make([]uint32, 500)
	for i := range vals {
		vals[i] = uint32(rng.Intn(1 << 16))
	}

	enc := NewEncoder()
	for _, v := range vals {
		enc.EncodeDirectBits(v, 16)
	}
	out := enc.Finish()

	dec := NewDecoder(out)
	for i, want := range vals {
		got := dec.DecodeDirectBits(16)
		assert.Equal(t, want, got, "value %d", i)
	}
}

func TestSymbolModelRoundTrip(t *testing.T) {
	const nsym = 37
	rng := rand.New(rand.NewSource(3))
	syms := make([]int, 3000)
	for i := range syms {
		syms[i] = rng.Intn(nsym)
	}

	enc := NewEncoder()
	em := NewSymbolModel(nsym)
	for _, s := range syms {
		em.Encode(enc, s)
	}
	out := enc.Finish()

	dec := NewDecoder(out)
	dm := NewSymbolModel(nsym)
	for i, want := range syms {
		got := dm.Decode(dec)
		require.Equal(t, want, got, "symbol %d", i)
	}
}
