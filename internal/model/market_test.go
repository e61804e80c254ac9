package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseParams() MarketParameters {
	return MarketParameters{
		NAgent:           2,
		MinPrice:         1,
		MaxPrice:         5,
		Step:             1,
		KMemory:          1,
		DiscountRate:     0.95,
		ReservationPrice: 4,
		MConsumer:        60,
	}
}

func TestMarketParameters_Validate(t *testing.T) {
	require.NoError(t, baseParams().Validate())

	tests := []struct {
		name  string
		mut   func(p *MarketParameters)
		field string
	}{
		{"one agent", func(p *MarketParameters) { p.NAgent = 1 }, "n_agent"},
		{"no memory", func(p *MarketParameters) { p.KMemory = 0 }, "k_memory"},
		{"zero step", func(p *MarketParameters) { p.Step = 0 }, "step"},
		{"inverted grid", func(p *MarketParameters) { p.MaxPrice = 0 }, "max_price"},
		{"step does not divide", func(p *MarketParameters) { p.Step = 3 }, "step"},
		{"zero discount", func(p *MarketParameters) { p.DiscountRate = 0 }, "discount_rate"},
		{"discount above one", func(p *MarketParameters) { p.DiscountRate = 1.01 }, "discount_rate"},
		{"no consumers", func(p *MarketParameters) { p.MConsumer = 0 }, "m_consumer"},
		{"reservation price missing", func(p *MarketParameters) { p.ReservationPrice = 0 }, "reservation_price"},
		{"reservation price below floor", func(p *MarketParameters) { p.ReservationPrice = 0.5 }, "reservation_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			tt.mut(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestMarketParameters_StateSpace(t *testing.T) {
	p := baseParams()
	assert.Equal(t, 5, p.NPricePoints())
	assert.Equal(t, 2, p.StateWidth())
	assert.Equal(t, 25, p.TotalStates())

	p.NAgent = 3
	p.KMemory = 2
	assert.Equal(t, 15625, p.TotalStates())

	p.KMemory = 200
	assert.Equal(t, -1, p.TotalStates())
	assert.Error(t, p.Validate())
}

func TestEnumeratePrices(t *testing.T) {
	assert.Equal(t, []PricePoint{1, 2, 3, 4, 5}, EnumeratePrices(baseParams()))

	p := baseParams()
	p.MinPrice, p.MaxPrice, p.Step = 0, 10, 5
	assert.Equal(t, []PricePoint{0, 5, 10}, EnumeratePrices(p))

	p.Step = 0
	assert.Empty(t, EnumeratePrices(p))
}

func TestDeviationSpec_Validate(t *testing.T) {
	params := baseParams()
	ok := DeviationSpec{TotalPeriods: 6, PeriodsBeforeDeviation: 2}
	require.NoError(t, ok.Validate(params))
	assert.Equal(t, 1, ok.Steps())
	assert.Equal(t, 2, ok.PeriodsAfterDeviation())
	assert.Equal(t, 3, ok.DeviationPeriod())

	tight := DeviationSpec{TotalPeriods: 4, PeriodsBeforeDeviation: 2}
	require.NoError(t, tight.Validate(params))
	assert.Equal(t, 0, tight.PeriodsAfterDeviation())

	bad := []DeviationSpec{
		{TotalPeriods: 3, PeriodsBeforeDeviation: 2},
		{TotalPeriods: 6, PeriodsBeforeDeviation: -1},
		{TotalPeriods: 6, PeriodsBeforeDeviation: 2, DeviatingAgent: 2},
		{TotalPeriods: 6, PeriodsBeforeDeviation: 2, DeviationSteps: -1},
	}
	for _, d := range bad {
		assert.ErrorIs(t, d.Validate(params), ErrConfiguration, "%+v", d)
	}

	zero := DeviationSpec{TotalPeriods: 6, PeriodsBeforeDeviation: 2, DeviationSteps: 0}
	require.NoError(t, zero.Validate(params))
	assert.Equal(t, 1, zero.Steps())

	var cfgErr *ConfigurationError
	neg := DeviationSpec{TotalPeriods: 6, PeriodsBeforeDeviation: 2, DeviationSteps: -1}
	require.ErrorAs(t, neg.Validate(params), &cfgErr)
	assert.Equal(t, "deviation_steps", cfgErr.Field)
	assert.Contains(t, cfgErr.Error(), "must be >= 0 (0 means one step)")
}
