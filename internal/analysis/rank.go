package analysis

import "sort"

// RankedMarket pairs a market with its IC verdict.
type RankedMarket struct {
	MarketID string
	ICResult
}

// RankByDeviationGain sorts markets by how much the deviation paid off, most profitable first.
// Ties keep input order.
func RankByDeviationGain(ids []string, results []ICResult) []RankedMarket {
	out := make([]RankedMarket, 0, len(results))
	for i, r := range results {
		id := ""
		if i < len(ids) {
			id = ids[i]
		}
		out = append(out, RankedMarket{MarketID: id, ICResult: r})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Gain() > out[j].Gain()
	})
	return out
}
