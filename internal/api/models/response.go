package models

import "time"

// SimulateResponse represents the response from a replay
type SimulateResponse struct {
	RunID   string          `json:"run_id,omitempty"`
	Status  string          `json:"status"`
	Summary SimulateSummary `json:"summary"`
	Markets []MarketResult  `json:"markets"`
}

// SimulateSummary contains aggregated replay results
type SimulateSummary struct {
	NMarkets        int           `json:"n_markets"`
	TotalPeriods    int           `json:"total_periods"`
	DeviationPeriod int           `json:"deviation_period"`
	ShareIC         float64       `json:"share_ic"`
	Benchmarks      Benchmarks    `json:"benchmarks"`
	Ranking         []RankedEntry `json:"ranking"`
}

// Benchmarks are the collusive and competitive reference values of the market.
type Benchmarks struct {
	MonopolyPrice    int     `json:"monopoly_price"`
	NashPrice        int     `json:"nash_price"`
	CollusiveValue   float64 `json:"collusive_value"`
	CompetitiveValue float64 `json:"competitive_value"`
}

// RankedEntry is one market ordered by how much the deviator gained.
type RankedEntry struct {
	Rank     int     `json:"rank"`
	MarketID string  `json:"market_id"`
	Gain     float64 `json:"gain"`
	IsIC     bool    `json:"is_ic"`
}

// MarketResult is the dev/no-dev pair of one market.
type MarketResult struct {
	MarketID      string      `json:"market_id"`
	NoDeviation   [][]int     `json:"no_deviation"`
	Deviation     [][]int     `json:"deviation"`
	IC            ICResponse  `json:"ic"`
	AtFloor       bool        `json:"at_floor"`
	Reconverged   bool        `json:"reconverged"`
	ReconvergedIn int         `json:"reconverged_in,omitempty"`
	Ledger        []LedgerRow `json:"ledger,omitempty"`
}

// ICResponse uses the key names downstream notebooks already read.
type ICResponse struct {
	IsIC       bool    `json:"IC"`
	ValueNoDev float64 `json:"V_NO_DEV"`
	ValueDev   float64 `json:"V_DEV"`
}

// ICBatchResponse is the share of IC markets plus the per-market detail.
type ICBatchResponse struct {
	NMarkets int          `json:"n_markets"`
	ShareIC  float64      `json:"share_ic"`
	Results  []ICResponse `json:"results"`
}

// LedgerRow represents one period of a replay ledger
type LedgerRow struct {
	Path             string    `json:"path"`
	Period           int       `json:"period"`
	Prices           []int     `json:"prices"`
	WinningPrice     int       `json:"winning_price"`
	NWinners         int       `json:"n_winners"`
	Rewards          []float64 `json:"rewards"`
	DiscountedReward float64   `json:"discounted_reward"`
	CumValue         float64   `json:"cum_value"`
}

// RunInfo is a stored run listing entry.
type RunInfo struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
	NMarkets  int       `json:"n_markets"`
	ShareIC   float64   `json:"share_ic"`
}

// MarketInfo represents information about a market preset
type MarketInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	File         string `json:"file"`
	NAgent       int    `json:"n_agent"`
	NPricePoints int    `json:"n_price_points"`
	KMemory      int    `json:"k_memory"`
	TotalStates  int    `json:"total_states"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
