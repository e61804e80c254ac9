package model

import "math"

// MarketParameters defines the repeated Bertrand market the agents were trained in.
// Fields:
// - NAgent: number of firms (>= 2)
// - MinPrice, MaxPrice, Step: the integer price grid [MinPrice, MaxPrice] in Step increments
// - KMemory: number of past periods in the Markov state (>= 1)
// - DiscountRate: per-period discount factor in (0, 1]
// - ReservationPrice: consumers buy nothing above this price
// - MConsumer: market size (number of consumers)
//
// Loaded once per run and never mutated.
type MarketParameters struct {
	NAgent           int
	MinPrice         int
	MaxPrice         int
	Step             int
	KMemory          int
	DiscountRate     float64
	ReservationPrice float64
	MConsumer        float64
}

// NPricePoints is the number of levels on the price grid, or 0 if the grid is malformed.
func (p MarketParameters) NPricePoints() int {
	if p.Step < 1 || p.MaxPrice < p.MinPrice {
		return 0
	}
	return (p.MaxPrice-p.MinPrice)/p.Step + 1
}

// StateWidth is the number of prices in a PriceState.
func (p MarketParameters) StateWidth() int {
	return p.NAgent * p.KMemory
}

// TotalStates is n_price_points^(n_agent*k_memory), or -1 if it does not fit in an int.
func (p MarketParameters) TotalStates() int {
	n := p.NPricePoints()
	if n <= 0 {
		return 0
	}
	total := 1
	for i := 0; i < p.StateWidth(); i++ {
		if total > math.MaxInt/n {
			return -1
		}
		total *= n
	}
	return total
}

func (p MarketParameters) Validate() error {
	if p.NAgent < 2 {
		return invalidConfig("n_agent", "must be >= 2, got %d", p.NAgent)
	}
	if p.KMemory < 1 {
		return invalidConfig("k_memory", "must be >= 1, got %d", p.KMemory)
	}
	if p.Step < 1 {
		return invalidConfig("step", "must be >= 1, got %d", p.Step)
	}
	if p.MaxPrice < p.MinPrice {
		return invalidConfig("max_price", "must be >= min_price (%d), got %d", p.MinPrice, p.MaxPrice)
	}
	if (p.MaxPrice-p.MinPrice)%p.Step != 0 {
		return invalidConfig("step", "%d does not divide the price range [%d, %d]", p.Step, p.MinPrice, p.MaxPrice)
	}
	if p.DiscountRate <= 0 || p.DiscountRate > 1 {
		return invalidConfig("discount_rate", "must be in (0, 1], got %g", p.DiscountRate)
	}
	if p.ReservationPrice < float64(p.MinPrice) {
		return invalidConfig("reservation_price", "must be >= min_price (%d), got %g", p.MinPrice, p.ReservationPrice)
	}
	if p.MConsumer <= 0 {
		return invalidConfig("m_consumer", "must be > 0, got %g", p.MConsumer)
	}
	if p.TotalStates() < 0 {
		return invalidConfig("", "state space %d^%d overflows int", p.NPricePoints(), p.StateWidth())
	}
	return nil
}
