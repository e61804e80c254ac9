package policy

import (
	"fmt"

	"bertrand-replay/internal/codec"
	"bertrand-replay/internal/model"
)

// Undercut is a myopic best response to last period's rival prices:
// one grid step below the lowest rival price, never above the highest
// price at or below the reservation price, never below the floor.
// Each query decodes the state, so nothing is sized by the state space.
type Undercut struct {
	Agent int

	codec   *codec.Codec
	ceiling int
}

func NewUndercut(c *codec.Codec, agent int) (*Undercut, error) {
	if agent < 0 || agent >= c.NAgent() {
		return nil, fmt.Errorf("undercut agent %d outside [0, %d)", agent, c.NAgent())
	}
	ceiling := c.NPricePoints() - 1
	res := c.Params().ReservationPrice
	for ceiling > 0 && float64(c.Prices()[ceiling]) > res {
		ceiling--
	}
	return &Undercut{Agent: agent, codec: c, ceiling: ceiling}, nil
}

// BestAction returns -1 for states the codec cannot decode.
func (p *Undercut) BestAction(s model.IntState) int {
	st, err := p.codec.Decode(s)
	if err != nil {
		return -1
	}
	lowest := -1
	for j, price := range p.codec.Latest(st) {
		if j == p.Agent {
			continue
		}
		idx, err := p.codec.IndexOf(price)
		if err != nil {
			return -1
		}
		if lowest < 0 || idx < lowest {
			lowest = idx
		}
	}
	return min(max(lowest-1, 0), p.ceiling)
}
