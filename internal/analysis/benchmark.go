package analysis

import (
	"math"

	"bertrand-replay/internal/model"
)

// Benchmarks are the per-firm discounted values of the two symmetric outcomes
// a learned market is compared against:
//
//	V^C = 1/(1-d) * m * p^M / n   (everyone at the monopoly price)
//	V^D = 1/(1-d) * m * p^NE / n  (everyone at the stage-game Nash price)
//
// p^M is the highest grid price at or below the reservation price and p^NE the
// grid floor. With d == 1 the infinite sums diverge and both values are +Inf.
type Benchmarks struct {
	MonopolyPrice model.PricePoint
	NashPrice     model.PricePoint

	CollusiveValue   float64
	CompetitiveValue float64
}

func ComputeBenchmarks(params model.MarketParameters) Benchmarks {
	prices := model.EnumeratePrices(params)
	b := Benchmarks{}
	if len(prices) == 0 || params.NAgent < 1 {
		return b
	}
	b.NashPrice = prices[0]
	b.MonopolyPrice = prices[0]
	for _, p := range prices {
		if float64(p) <= params.ReservationPrice {
			b.MonopolyPrice = p
		}
	}

	horizon := math.Inf(1)
	if params.DiscountRate < 1 {
		horizon = 1 / (1 - params.DiscountRate)
	}
	perFirm := func(p model.PricePoint) float64 {
		return model.Reward(p, p, params.NAgent, params.ReservationPrice, params.MConsumer)
	}
	b.CollusiveValue = horizon * perFirm(b.MonopolyPrice)
	b.CompetitiveValue = horizon * perFirm(b.NashPrice)
	return b
}

// ProfitGain normalises an average per-period profit to [0, 1] between the
// Nash (0) and monopoly (1) per-period profits. Returns 0 when both coincide.
func (b Benchmarks) ProfitGain(avgProfit float64, params model.MarketParameters) float64 {
	nash := model.Reward(b.NashPrice, b.NashPrice, params.NAgent, params.ReservationPrice, params.MConsumer)
	mono := model.Reward(b.MonopolyPrice, b.MonopolyPrice, params.NAgent, params.ReservationPrice, params.MConsumer)
	if mono == nash {
		return 0
	}
	return (avgProfit - nash) / (mono - nash)
}

// AverageProfit is agent's undiscounted mean per-period reward over traj.
func AverageProfit(traj model.Trajectory, agent int, params model.MarketParameters) float64 {
	if len(traj) == 0 {
		return 0
	}
	sum := 0.0
	for _, row := range traj {
		sum += model.PeriodReward(row, agent, params)
	}
	return sum / float64(len(traj))
}
