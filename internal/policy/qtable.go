package policy

import "bertrand-replay/internal/model"

// QTable is a trained Q-learning agent reduced to its greedy policy.
// Q[s][a] is the learned value of playing price index a in int state s.
type QTable struct {
	Q [][]float64
}

// BestAction is the argmax over Q[s]; the lowest index wins ties.
func (p *QTable) BestAction(s model.IntState) int {
	if s < 0 || int(s) >= len(p.Q) {
		return -1
	}
	row := p.Q[s]
	if len(row) == 0 {
		return -1
	}
	best := 0
	for a := 1; a < len(row); a++ {
		if row[a] > row[best] {
			best = a
		}
	}
	return best
}

// Greedy precomputes the argmax of every state into a Table.
func (p *QTable) Greedy() *Table {
	actions := make([]int, len(p.Q))
	for s := range p.Q {
		actions[s] = p.BestAction(model.IntState(s))
	}
	return &Table{Actions: actions}
}
