package replay

import "bertrand-replay/internal/model"

// LedgerRow is one period of a replayed market with its market outcome.
// This is the primary artifact for "what happened" in a replay.
type LedgerRow struct {
	Market string
	Path   model.Path
	Period int

	Prices model.PriceVector

	WinningPrice model.PricePoint
	NWinners     int

	Rewards []float64

	// DiscountedReward is Rewards[Agent] * discount_rate^Period for the tracked agent.
	DiscountedReward float64
	CumValue         float64
}

// BuildLedger expands a trajectory into per-period rows, tracking the
// discounted value of agent.
func BuildLedger(marketID string, path model.Path, traj model.Trajectory, agent int, params model.MarketParameters) []LedgerRow {
	ledger := make([]LedgerRow, 0, len(traj))
	cum := 0.0
	discount := 1.0
	for t, prices := range traj {
		winner, n := model.WinningPrice(prices)
		rewards := make([]float64, len(prices))
		for i, p := range prices {
			rewards[i] = model.Reward(p, winner, n, params.ReservationPrice, params.MConsumer)
		}
		dr := 0.0
		if agent >= 0 && agent < len(rewards) {
			dr = discount * rewards[agent]
		}
		cum += dr

		ledger = append(ledger, LedgerRow{
			Market:           marketID,
			Path:             path,
			Period:           t,
			Prices:           prices,
			WinningPrice:     winner,
			NWinners:         n,
			Rewards:          rewards,
			DiscountedReward: dr,
			CumValue:         cum,
		})
		discount *= params.DiscountRate
	}
	return ledger
}
