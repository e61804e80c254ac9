package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bertrand-replay/internal/model"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_Inline(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.yaml", `
market:
  n_agent: 2
  min_price: 1
  max_price: 5
  discount_rate: 0.95
  reservation_price: 4
  m_consumer: 60
deviation:
  total_periods: 10
  periods_before_deviation: 2
workers: 3
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Market.Step)
	assert.Equal(t, 1, c.Market.KMemory)
	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, model.DeviationSpec{TotalPeriods: 10, PeriodsBeforeDeviation: 2, DeviationSteps: 1}, c.Deviation.ToDeviationSpec())
	assert.Equal(t, 25, c.Market.ToModelParams().TotalStates())
}

func TestLoad_MarketFileWithOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "markets/base_3_agent.yaml", `
market:
  name: base
  n_agent: 3
  min_price: 1
  max_price: 5
  step: 1
  k_memory: 1
  discount_rate: 0.95
  reservation_price: 4
  m_consumer: 60
`)
	p := writeFile(t, dir, "config.yaml", `
market_file: markets/base_3_agent.yaml
market:
  discount_rate: 0.9
deviation:
  total_periods: 6
  periods_before_deviation: 2
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "base", c.Market.Name)
	assert.Equal(t, 3, c.Market.NAgent)
	assert.Equal(t, 0.9, c.Market.DiscountRate)
	assert.Equal(t, 60.0, c.Market.MConsumer)
}

func TestLoad_InvalidDeviation(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.yaml", `
market: {n_agent: 2, min_price: 1, max_price: 5, discount_rate: 0.95, reservation_price: 4, m_consumer: 60}
deviation: {total_periods: 3, periods_before_deviation: 2}
`)
	_, err := Load(p)
	assert.ErrorIs(t, err, model.ErrConfiguration)

	c, err := LoadUnchecked(p)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Deviation.TotalPeriods)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMergeMarket(t *testing.T) {
	base := MarketConfig{Name: "a", NAgent: 2, MaxPrice: 5, DiscountRate: 0.95}
	out := MergeMarket(base, MarketConfig{NAgent: 3})
	assert.Equal(t, MarketConfig{Name: "a", NAgent: 3, MaxPrice: 5, DiscountRate: 0.95}, out)
}
