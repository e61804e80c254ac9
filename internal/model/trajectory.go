package model

import "fmt"

// Trajectory is one replayed market: a price vector per period, first row
// being the most recent period of the start state. Treat as immutable once built.
type Trajectory []PriceVector

// NAgent is the width of the rows, or 0 for an empty trajectory.
func (t Trajectory) NAgent() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// Column returns the prices agent played in every period.
func (t Trajectory) Column(agent int) []PricePoint {
	out := make([]PricePoint, 0, len(t))
	for _, row := range t {
		if agent < len(row) {
			out = append(out, row[agent])
		}
	}
	return out
}

// Ints converts to a plain (periods, agents) int matrix for serialization.
func (t Trajectory) Ints() [][]int {
	out := make([][]int, len(t))
	for i, row := range t {
		out[i] = make([]int, len(row))
		for j, p := range row {
			out[i][j] = int(p)
		}
	}
	return out
}

// TrajectoryFromInts is the inverse of Ints. Rows must all have the same width.
func TrajectoryFromInts(rows [][]int) (Trajectory, error) {
	out := make(Trajectory, len(rows))
	for i, r := range rows {
		if i > 0 && len(r) != len(rows[0]) {
			return nil, fmt.Errorf("row %d has %d prices, want %d", i, len(r), len(rows[0]))
		}
		out[i] = make(PriceVector, len(r))
		for j, p := range r {
			out[i][j] = PricePoint(p)
		}
	}
	return out, nil
}

// CheckShape reports an error unless t is periods x agents.
func (t Trajectory) CheckShape(periods, agents int) error {
	if len(t) != periods {
		return fmt.Errorf("trajectory has %d periods, want %d", len(t), periods)
	}
	for i, row := range t {
		if len(row) != agents {
			return fmt.Errorf("period %d has %d prices, want %d", i, len(row), agents)
		}
	}
	return nil
}
