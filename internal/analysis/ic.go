package analysis

import (
	"fmt"

	"bertrand-replay/internal/model"
)

// ICResult is the incentive-compatibility verdict for one market.
type ICResult struct {
	IsIC       bool
	ValueNoDev float64
	ValueDev   float64
}

// Gain is how much the deviating agent gained by deviating (negative when IC).
func (r ICResult) Gain() float64 { return r.ValueDev - r.ValueNoDev }

// DiscountedValue is sum_t discount_rate^t * reward_t of agent over traj,
// with t = 0 for the first row.
func DiscountedValue(traj model.Trajectory, agent int, params model.MarketParameters) float64 {
	total := 0.0
	discount := 1.0
	for _, prices := range traj {
		total += discount * model.PeriodReward(prices, agent, params)
		discount *= params.DiscountRate
	}
	return total
}

// CheckIC compares agent 0's discounted value with and without the deviation.
// The deviation was not profitable, so IC holds, when ValueNoDev >= ValueDev.
// Only the trajectories matter, not how they were produced.
func CheckIC(dev, noDev model.Trajectory, params model.MarketParameters) (ICResult, error) {
	return CheckICForAgent(dev, noDev, 0, params)
}

// CheckICForAgent is CheckIC for an arbitrary deviating agent.
func CheckICForAgent(dev, noDev model.Trajectory, agent int, params model.MarketParameters) (ICResult, error) {
	if len(dev) != len(noDev) {
		return ICResult{}, fmt.Errorf("deviation trajectory has %d periods, no-deviation has %d", len(dev), len(noDev))
	}
	if err := dev.CheckShape(len(dev), dev.NAgent()); err != nil {
		return ICResult{}, fmt.Errorf("deviation trajectory: %w", err)
	}
	if err := noDev.CheckShape(len(noDev), dev.NAgent()); err != nil {
		return ICResult{}, fmt.Errorf("no-deviation trajectory: %w", err)
	}
	if len(dev) > 0 && (agent < 0 || agent >= dev.NAgent()) {
		return ICResult{}, fmt.Errorf("agent %d outside [0, %d)", agent, dev.NAgent())
	}

	vDev := DiscountedValue(dev, agent, params)
	vNoDev := DiscountedValue(noDev, agent, params)
	return ICResult{
		IsIC:       vNoDev >= vDev,
		ValueNoDev: vNoDev,
		ValueDev:   vDev,
	}, nil
}

// CheckICAllMarkets applies CheckIC to every market pair and returns the share
// of markets in which IC holds. dev[i] and noDev[i] must come from the same agents.
func CheckICAllMarkets(dev, noDev []model.Trajectory, params model.MarketParameters) (float64, error) {
	results, err := CheckICMarkets(dev, noDev, params)
	if err != nil {
		return 0, err
	}
	return ShareIC(results), nil
}

// CheckICMarkets is CheckICAllMarkets without the aggregation.
func CheckICMarkets(dev, noDev []model.Trajectory, params model.MarketParameters) ([]ICResult, error) {
	return CheckICMarketsForAgent(dev, noDev, 0, params)
}

// CheckICMarketsForAgent evaluates every market from the point of view of agent.
func CheckICMarketsForAgent(dev, noDev []model.Trajectory, agent int, params model.MarketParameters) ([]ICResult, error) {
	if len(dev) != len(noDev) {
		return nil, fmt.Errorf("%d deviation markets, %d no-deviation markets", len(dev), len(noDev))
	}
	out := make([]ICResult, len(dev))
	for i := range dev {
		r, err := CheckICForAgent(dev[i], noDev[i], agent, params)
		if err != nil {
			return nil, fmt.Errorf("market %d: %w", i, err)
		}
		out[i] = r
	}
	return out, nil
}

// ShareIC is the fraction of results with IsIC set; 0 for no results.
func ShareIC(results []ICResult) float64 {
	if len(results) == 0 {
		return 0
	}
	n := 0
	for _, r := range results {
		if r.IsIC {
			n++
		}
	}
	return float64(n) / float64(len(results))
}
