package config

import (
	"errors"
	"os"
	"path/filepath"

	"bertrand-replay/internal/model"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load market parameters from a separate YAML (e.g. examples/markets/*.yaml).
	// If both MarketFile and Market are provided, non-zero Market fields override MarketFile.
	MarketFile string          `yaml:"market_file"`
	Market     MarketConfig    `yaml:"market"`
	Deviation  DeviationConfig `yaml:"deviation"`

	// Workers bounds how many markets replay at once (0 = GOMAXPROCS).
	Workers int `yaml:"workers"`
}

type MarketConfig struct {
	Name             string  `yaml:"name"`
	NAgent           int     `yaml:"n_agent"`
	MinPrice         int     `yaml:"min_price"`
	MaxPrice         int     `yaml:"max_price"`
	Step             int     `yaml:"step"`
	KMemory          int     `yaml:"k_memory"`
	DiscountRate     float64 `yaml:"discount_rate"`
	ReservationPrice float64 `yaml:"reservation_price"`
	MConsumer        float64 `yaml:"m_consumer"`
}

type DeviationConfig struct {
	TotalPeriods           int `yaml:"total_periods"`
	PeriodsBeforeDeviation int `yaml:"periods_before_deviation"`
	DeviatingAgent         int `yaml:"deviating_agent"`
	DeviationSteps         int `yaml:"deviation_steps"`
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	// If market_file is set, load it and merge in any explicit overrides from c.Market.
	if c.MarketFile != "" {
		marketPath := c.MarketFile
		if !filepath.IsAbs(marketPath) {
			// Prefer interpreting relative paths as relative to the config file directory,
			// but fall back to the provided path (relative to cwd) if that doesn't exist.
			cand := filepath.Join(filepath.Dir(path), marketPath)
			if _, err := os.Stat(cand); err == nil {
				marketPath = cand
			}
		}
		loaded, err := loadMarketFile(marketPath)
		if err != nil {
			return nil, err
		}
		c.Market = MergeMarket(loaded, c.Market)
	}
	return &c, nil
}

// ApplyDefaults fills fields whose zero value is never meaningful.
func (c *Config) ApplyDefaults() {
	if c.Market.Step == 0 {
		c.Market.Step = 1
	}
	if c.Market.KMemory == 0 {
		c.Market.KMemory = 1
	}
	if c.Deviation.DeviationSteps == 0 {
		c.Deviation.DeviationSteps = 1
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	params := c.Market.ToModelParams()
	if err := params.Validate(); err != nil {
		return err
	}
	return c.Deviation.ToDeviationSpec().Validate(params)
}

func (m MarketConfig) ToModelParams() model.MarketParameters {
	return model.MarketParameters{
		NAgent:           m.NAgent,
		MinPrice:         m.MinPrice,
		MaxPrice:         m.MaxPrice,
		Step:             m.Step,
		KMemory:          m.KMemory,
		DiscountRate:     m.DiscountRate,
		ReservationPrice: m.ReservationPrice,
		MConsumer:        m.MConsumer,
	}
}

func (d DeviationConfig) ToDeviationSpec() model.DeviationSpec {
	return model.DeviationSpec{
		TotalPeriods:           d.TotalPeriods,
		PeriodsBeforeDeviation: d.PeriodsBeforeDeviation,
		DeviatingAgent:         d.DeviatingAgent,
		DeviationSteps:         d.DeviationSteps,
	}
}

type marketFileWrapper struct {
	Market MarketConfig `yaml:"market"`
}

func loadMarketFile(path string) (MarketConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return MarketConfig{}, err
	}
	var w marketFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return MarketConfig{}, err
	}
	return w.Market, nil
}

// MergeMarket overlays non-zero fields from override onto base.
// This is used when loading a market file and then applying overrides from the config or request.
func MergeMarket(base, override MarketConfig) MarketConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.NAgent != 0 {
		out.NAgent = override.NAgent
	}
	// Note: min_price may legitimately be 0, but then it is also 0 in the base file.
	if override.MinPrice != 0 {
		out.MinPrice = override.MinPrice
	}
	if override.MaxPrice != 0 {
		out.MaxPrice = override.MaxPrice
	}
	if override.Step != 0 {
		out.Step = override.Step
	}
	if override.KMemory != 0 {
		out.KMemory = override.KMemory
	}
	if override.DiscountRate != 0 {
		out.DiscountRate = override.DiscountRate
	}
	if override.ReservationPrice != 0 {
		out.ReservationPrice = override.ReservationPrice
	}
	if override.MConsumer != 0 {
		out.MConsumer = override.MConsumer
	}
	return out
}
