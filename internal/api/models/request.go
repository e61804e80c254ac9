package models

import "bertrand-replay/internal/data"

// MarketParams mirrors config.MarketConfig for JSON requests.
type MarketParams struct {
	Name             string  `json:"name,omitempty"`
	NAgent           int     `json:"n_agent"`
	MinPrice         int     `json:"min_price"`
	MaxPrice         int     `json:"max_price"`
	Step             int     `json:"step,omitempty"`
	KMemory          int     `json:"k_memory,omitempty"`
	DiscountRate     float64 `json:"discount_rate"`
	ReservationPrice float64 `json:"reservation_price"`
	MConsumer        float64 `json:"m_consumer"`
}

// DeviationParams mirrors config.DeviationConfig for JSON requests.
type DeviationParams struct {
	TotalPeriods           int `json:"total_periods" binding:"required"`
	PeriodsBeforeDeviation int `json:"periods_before_deviation"`
	DeviatingAgent         int `json:"deviating_agent,omitempty"`
	DeviationSteps         int `json:"deviation_steps,omitempty"`
}

// MarketConfig selects market parameters: a preset from the market directory
// (market_file), inline fields, or both with inline fields taking precedence.
type MarketConfig struct {
	MarketFile string       `json:"market_file,omitempty"`
	Market     MarketParams `json:"market,omitempty"`
}

// SimulateRequest represents the request body for replaying trained markets
type SimulateRequest struct {
	Config    MarketConfig      `json:"config"`
	Deviation DeviationParams   `json:"deviation"`
	Markets   []data.MarketSpec `json:"markets" binding:"required,min=1"`
	Options   SimulateOptions   `json:"options,omitempty"`
}

// SimulateOptions contains optional replay parameters
type SimulateOptions struct {
	IncludeLedger bool   `json:"include_ledger,omitempty"` // default: false
	Persist       bool   `json:"persist,omitempty"`        // store the run when a database is configured
	Label         string `json:"label,omitempty"`
	Workers       int    `json:"workers,omitempty"` // 0 = GOMAXPROCS
}

// ICRequest checks a single pair of hand-built trajectories.
type ICRequest struct {
	Config      MarketConfig `json:"config"`
	Agent       int          `json:"agent,omitempty"`
	Deviation   [][]int      `json:"deviation" binding:"required"`
	NoDeviation [][]int      `json:"no_deviation" binding:"required"`
}

// ICBatchRequest checks many markets at once; arrays are shaped
// (markets, periods, agents).
type ICBatchRequest struct {
	Config      MarketConfig `json:"config"`
	Deviation   [][][]int    `json:"deviation" binding:"required"`
	NoDeviation [][][]int    `json:"no_deviation" binding:"required"`
}

// ListRunsRequest represents query parameters for listing stored runs
type ListRunsRequest struct {
	Limit int `form:"limit,omitempty"` // default: 50
}
