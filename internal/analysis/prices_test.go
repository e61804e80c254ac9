package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bertrand-replay/internal/model"
)

func TestSummarizePrices(t *testing.T) {
	traj := model.Trajectory{{3, 3}, {2, 3}, {3, 4}}
	s := SummarizePrices("m", traj)
	assert.Equal(t, 6, s.Count)
	assert.Equal(t, 2.0, s.MinPrice)
	assert.Equal(t, 4.0, s.MaxPrice)
	assert.InDelta(t, 18.0/6, s.MeanPrice, 1e-12)
	assert.InDelta(t, 8.0/3, s.MeanWinningPrice, 1e-12)
	assert.Equal(t, PriceSummary{MarketID: "x"}, SummarizePrices("x", nil))
}

func TestShareMeanAbove(t *testing.T) {
	sums := []PriceSummary{{MeanPrice: 1}, {MeanPrice: 3.5}, {MeanPrice: 3}, {MeanPrice: 4}}
	assert.Equal(t, 0.75, ShareMeanAbove(sums, 1))
	assert.Equal(t, 0.5, ShareMeanAbove(sums, 3))
	assert.Equal(t, 0.0, ShareMeanAbove(nil, 3))
}

func TestPercentileSorted(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 1.0, percentileSorted(vals, 0))
	assert.Equal(t, 5.0, percentileSorted(vals, 1))
	assert.Equal(t, 3.0, percentileSorted(vals, 0.5))
	assert.InDelta(t, 1.2, percentileSorted(vals, 0.05), 1e-12)
}

func TestComputeBenchmarks(t *testing.T) {
	params := testParams()
	params.NAgent = 3
	b := ComputeBenchmarks(params)
	assert.Equal(t, model.PricePoint(4), b.MonopolyPrice)
	assert.Equal(t, model.PricePoint(1), b.NashPrice)
	assert.InDelta(t, 1600, b.CollusiveValue, 1e-9)
	assert.InDelta(t, 400, b.CompetitiveValue, 1e-9)

	params.NAgent = 2
	b = ComputeBenchmarks(params)
	assert.InDelta(t, 2400, b.CollusiveValue, 1e-9)
	assert.InDelta(t, 1.0, b.ProfitGain(120, params), 1e-12)
	assert.InDelta(t, 0.0, b.ProfitGain(30, params), 1e-12)
}

func TestAverageProfit(t *testing.T) {
	traj := model.Trajectory{{3, 3}, {2, 3}}
	assert.InDelta(t, (90.0+120.0)/2, AverageProfit(traj, 0, testParams()), 1e-12)
	assert.Equal(t, 0.0, AverageProfit(nil, 0, testParams()))
}

func TestReconverges(t *testing.T) {
	traj := model.Trajectory{{3, 3}, {3, 3}, {2, 3}, {1, 1}, {3, 3}}
	assert.Equal(t, Reconvergence{Reconverged: true, Periods: 2}, Reconverges(traj, 2))
	assert.Equal(t, Reconvergence{Periods: -1}, Reconverges(traj[:4], 2))
	assert.Equal(t, Reconvergence{Periods: -1}, Reconverges(nil, 0))
}
