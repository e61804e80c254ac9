package model

// WinningPrice returns the lowest price in the period and how many agents charged it.
// Ties at the minimum are the normal case for collusive markets; nWinners is what
// Reward divides demand by, so both values come out of one pass.
func WinningPrice(prices PriceVector) (winner PricePoint, nWinners int) {
	if len(prices) == 0 {
		return 0, 0
	}
	winner = prices[0]
	nWinners = 1
	for _, p := range prices[1:] {
		switch {
		case p < winner:
			winner = p
			nWinners = 1
		case p == winner:
			nWinners++
		}
	}
	return winner, nWinners
}

// Reward is one firm's profit in a homogeneous-goods Bertrand period with
// zero marginal cost and unit demand:
// - ownPrice above the reservation price sells nothing
// - ownPrice above the winning price loses the market
// - otherwise the mConsumer consumers are split evenly among the nWinners
//   firms at the winning price, each paying ownPrice
func Reward(ownPrice, winningPrice PricePoint, nWinners int, reservationPrice, mConsumer float64) float64 {
	if nWinners < 1 {
		return 0
	}
	if float64(ownPrice) > reservationPrice {
		return 0
	}
	if ownPrice != winningPrice {
		return 0
	}
	return float64(ownPrice) * mConsumer / float64(nWinners)
}

// PeriodReward is Reward for agent in a single period of a market.
func PeriodReward(prices PriceVector, agent int, params MarketParameters) float64 {
	if agent < 0 || agent >= len(prices) {
		return 0
	}
	winner, n := WinningPrice(prices)
	return Reward(prices[agent], winner, n, params.ReservationPrice, params.MConsumer)
}
