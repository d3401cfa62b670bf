package rangecoder

// symbolRescaleThreshold is the fixed total-frequency ceiling at which a
// SymbolModel halves its table (periodic rescaling, spec §4.B). Two
// implementations must agree on this constant or their streams diverge.
const symbolRescaleThreshold = 1 << 13

// symbolIncrement is how much a symbol's frequency grows each time it is
// coded.
const symbolIncrement = 32

// SymbolModel is an adaptive small-alphabet (≤4096 symbols) model with
// periodic rescaling, as described in spec §4.B. It is used both directly
// (e.g. context selection symbols) and as the "exponent bucket" half of a
// composite IntegerModel.
type SymbolModel struct {
	freq    []uint32
	cumFreq []uint32 // cumFreq[i] = sum(freq[0:i]); len = n+1
	total   uint32
}

// NewSymbolModel returns a model over n equiprobable symbols.
func NewSymbolModel(n int) *SymbolModel {
	m := &SymbolModel{
		freq:    make([]uint32, n),
		cumFreq: make([]uint32, n+1),
	}
	m.reset()
	return m
}

func (m *SymbolModel) reset() {
	for i := range m.freq {
		m.freq[i] = 1
	}
	m.rebuildCum()
}

func (m *SymbolModel) rebuildCum() {
	var sum uint32
	for i, f := range m.freq {
		m.cumFreq[i] = sum
		sum += f
	}
	m.cumFreq[len(m.freq)] = sum
	m.total = sum
}

// Reset reinitializes the model to uniform frequencies. Called on every
// chunk boundary (spec §4.E: "reset models").
func (m *SymbolModel) Reset() { m.reset() }

func (m *SymbolModel) update(sym int) {
	m.freq[sym] += symbolIncrement
	if m.total+symbolIncrement >= symbolRescaleThreshold {
		var sum uint32
		for i, f := range m.freq {
			f = (f + 1) >> 1
			m.freq[i] = f
			m.cumFreq[i] = sum
			sum += f
		}
		m.cumFreq[len(m.freq)] = sum
		m.total = sum
		return
	}
	for i := sym + 1; i < len(m.cumFreq); i++ {
		m.cumFreq[i] += symbolIncrement
	}
	m.total += symbolIncrement
}

// Encode codes sym and updates the model.
func (m *SymbolModel) Encode(e *Encoder, sym int) {
	e.EncodeSymbol(m.cumFreq[sym], m.freq[sym], m.total)
	m.update(sym)
}

// Decode decodes the next symbol and updates the model.
func (m *SymbolModel) Decode(d *Decoder) int {
	target := d.GetFreq(m.total)
	sym := 0
	// cumFreq is monotonically increasing; small alphabets (≤4096) make a
	// linear scan cheap and branch-predictable. Larger alphabets could use
	// a binary search over cumFreq instead.
	for sym+1 < len(m.cumFreq) && m.cumFreq[sym+1] <= target {
		sym++
	}
	d.DecodeUpdate(m.cumFreq[sym], m.freq[sym], m.total)
	m.update(sym)
	return sym
}
