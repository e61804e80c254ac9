package model

// PricePoint is one level of the discrete price grid.
type PricePoint int

// PriceVector holds the prices chosen by every agent in one period,
// ordered by agent index.
type PriceVector []PricePoint

// PriceState is the Markov state the policies condition on: the last
// KMemory price vectors, oldest first, flattened to NAgent*KMemory entries.
type PriceState []PricePoint

// IntState is the dense integer encoding of a PriceState.
type IntState int

// Clone returns a copy that does not share the backing array.
func (v PriceVector) Clone() PriceVector {
	out := make(PriceVector, len(v))
	copy(out, v)
	return out
}

// Equal reports whether both vectors hold the same prices in the same order.
func (v PriceVector) Equal(o PriceVector) bool {
	if len(v) != len(o) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that does not share the backing array.
func (s PriceState) Clone() PriceState {
	out := make(PriceState, len(s))
	copy(out, s)
	return out
}

// EnumeratePrices lists every legal price level in ascending order.
// The result has params.NPricePoints() entries.
func EnumeratePrices(params MarketParameters) []PricePoint {
	n := params.NPricePoints()
	if n <= 0 {
		return nil
	}
	out := make([]PricePoint, 0, n)
	for p := params.MinPrice; p <= params.MaxPrice; p += params.Step {
		out = append(out, PricePoint(p))
	}
	return out
}
