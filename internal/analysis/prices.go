package analysis

import (
	"math"
	"sort"

	"bertrand-replay/internal/model"
)

// PriceSummary is a market-level summary of the prices played in a replay,
// pooled over all agents and periods.
type PriceSummary struct {
	MarketID string

	Count int

	MinPrice  float64
	MaxPrice  float64
	MeanPrice float64
	P05Price  float64
	P95Price  float64

	// MeanWinningPrice averages the per-period market price.
	MeanWinningPrice float64
}

func SummarizePrices(marketID string, traj model.Trajectory) PriceSummary {
	s := PriceSummary{MarketID: marketID}
	if len(traj) == 0 {
		return s
	}

	sum := 0.0
	winSum := 0.0
	minv := math.Inf(1)
	maxv := math.Inf(-1)
	vals := make([]float64, 0, len(traj)*traj.NAgent())
	for _, row := range traj {
		w, _ := model.WinningPrice(row)
		winSum += float64(w)
		for _, p := range row {
			v := float64(p)
			vals = append(vals, v)
			sum += v
			if v < minv {
				minv = v
			}
			if v > maxv {
				maxv = v
			}
		}
	}
	if len(vals) == 0 {
		return s
	}
	sort.Float64s(vals)
	s.Count = len(vals)
	s.MinPrice = minv
	s.MaxPrice = maxv
	s.MeanPrice = sum / float64(len(vals))
	s.P05Price = percentileSorted(vals, 0.05)
	s.P95Price = percentileSorted(vals, 0.95)
	s.MeanWinningPrice = winSum / float64(len(traj))
	return s
}

// ShareMeanAbove is the share of markets whose mean price is strictly above threshold.
func ShareMeanAbove(summaries []PriceSummary, threshold float64) float64 {
	if len(summaries) == 0 {
		return 0
	}
	n := 0
	for _, s := range summaries {
		if s.MeanPrice > threshold {
			n++
		}
	}
	return float64(n) / float64(len(summaries))
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
