// Package codec is the only translation boundary between price states and
// the dense int states policies are indexed by.
//
// The encoding is mixed radix with the first price of the state as the most
// significant digit, so int states enumerate price states in lexicographic
// order of their grid indices.
package codec

import (
	"fmt"

	"bertrand-replay/internal/model"
)

// Codec maps PriceState <-> IntState for one market configuration.
// It is immutable and safe to share across goroutines.
type Codec struct {
	params      model.MarketParameters
	prices      []model.PricePoint
	width       int
	totalStates int
}

func New(params model.MarketParameters) (*Codec, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Codec{
		params:      params,
		prices:      model.EnumeratePrices(params),
		width:       params.StateWidth(),
		totalStates: params.TotalStates(),
	}, nil
}

func (c *Codec) Params() model.MarketParameters { return c.params }

// Prices returns the ascending price grid. Callers must not modify it.
func (c *Codec) Prices() []model.PricePoint { return c.prices }

func (c *Codec) NPricePoints() int { return len(c.prices) }

func (c *Codec) NAgent() int { return c.params.NAgent }

// StateWidth is NAgent*KMemory.
func (c *Codec) StateWidth() int { return c.width }

func (c *Codec) TotalStates() int { return c.totalStates }

// MinPrice is the grid floor.
func (c *Codec) MinPrice() model.PricePoint { return c.prices[0] }

// IndexOf returns the grid index of p.
func (c *Codec) IndexOf(p model.PricePoint) (int, error) {
	off := int(p) - c.params.MinPrice
	if off < 0 || int(p) > c.params.MaxPrice || off%c.params.Step != 0 {
		return 0, &model.InvalidStateError{Reason: fmt.Sprintf("price %d is not on the grid [%d, %d] step %d",
			p, c.params.MinPrice, c.params.MaxPrice, c.params.Step)}
	}
	return off / c.params.Step, nil
}

// PriceAt returns the price at grid index i.
func (c *Codec) PriceAt(i int) (model.PricePoint, error) {
	if i < 0 || i >= len(c.prices) {
		return 0, &model.InvalidStateError{Reason: fmt.Sprintf("price index %d outside [0, %d)", i, len(c.prices))}
	}
	return c.prices[i], nil
}

func (c *Codec) Encode(s model.PriceState) (model.IntState, error) {
	if len(s) != c.width {
		return 0, &model.InvalidStateError{Reason: fmt.Sprintf("price state has %d prices, want %d", len(s), c.width)}
	}
	n := len(c.prices)
	idx := 0
	for _, p := range s {
		digit, err := c.IndexOf(p)
		if err != nil {
			return 0, err
		}
		idx = idx*n + digit
	}
	return model.IntState(idx), nil
}

func (c *Codec) Decode(i model.IntState) (model.PriceState, error) {
	if i < 0 || int(i) >= c.totalStates {
		return nil, &model.InvalidStateError{Reason: fmt.Sprintf("int state %d outside [0, %d)", i, c.totalStates)}
	}
	n := len(c.prices)
	out := make(model.PriceState, c.width)
	rest := int(i)
	for pos := c.width - 1; pos >= 0; pos-- {
		out[pos] = c.prices[rest%n]
		rest /= n
	}
	return out, nil
}

// Shift rolls the history window: the oldest NAgent prices drop out and
// the new vector is appended. With KMemory == 1 the state is simply replaced.
func (c *Codec) Shift(s model.PriceState, v model.PriceVector) (model.PriceState, error) {
	if len(s) != c.width {
		return nil, &model.InvalidStateError{Reason: fmt.Sprintf("price state has %d prices, want %d", len(s), c.width)}
	}
	if len(v) != c.params.NAgent {
		return nil, &model.InvalidStateError{Reason: fmt.Sprintf("price vector has %d prices, want %d", len(v), c.params.NAgent)}
	}
	out := make(model.PriceState, 0, c.width)
	out = append(out, s[c.params.NAgent:]...)
	out = append(out, v...)
	return out, nil
}

// Latest returns the most recent period of s.
func (c *Codec) Latest(s model.PriceState) model.PriceVector {
	if len(s) < c.params.NAgent {
		return nil
	}
	out := make(model.PriceVector, c.params.NAgent)
	copy(out, s[len(s)-c.params.NAgent:])
	return out
}

// FromVector builds the state in which every remembered period equals v.
func (c *Codec) FromVector(v model.PriceVector) model.PriceState {
	out := make(model.PriceState, 0, c.width)
	for k := 0; k < c.params.KMemory; k++ {
		out = append(out, v...)
	}
	return out
}
