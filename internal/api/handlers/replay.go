package handlers

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"bertrand-replay/internal/analysis"
	"bertrand-replay/internal/api/models"
	"bertrand-replay/internal/codec"
	"bertrand-replay/internal/data"
	"bertrand-replay/internal/model"
	"bertrand-replay/internal/replay"
	"bertrand-replay/internal/store"
)

// ReplayHandler handles simulate and IC requests
type ReplayHandler struct {
	cache     *data.ResultCache
	store     *store.DB
	marketDir string
}

// NewReplayHandler creates a new replay handler. cache and db may be nil.
func NewReplayHandler(cache *data.ResultCache, db *store.DB) *ReplayHandler {
	return &ReplayHandler{
		cache:     cache,
		store:     db,
		marketDir: marketDir(),
	}
}

// Simulate handles POST /api/v1/simulate
func (h *ReplayHandler) Simulate(c *gin.Context) {
	var req models.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	cfg, err := buildConfig(h.marketDir, req.Config, &req.Deviation)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", err)
		return
	}
	params := cfg.Market.ToModelParams()
	spec := cfg.Deviation.ToDeviationSpec()

	// Persisted runs get a fresh ID each time, so only plain replays are cached.
	cacheKey := ""
	if !req.Options.Persist {
		if key, err := data.GenerateCacheKey(req); err == nil {
			cacheKey = key
			if cached, ok := h.cache.Get(cacheKey); ok {
				c.Header("X-Cache", "HIT")
				c.JSON(http.StatusOK, cached)
				return
			}
		}
	}

	cdc, err := codec.New(params)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", err)
		return
	}
	markets, err := data.BuildMarkets(req.Markets, cdc)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_MARKET", err)
		return
	}

	engine := replay.New(cdc)
	batch, err := engine.SimulateMarkets(c.Request.Context(), markets, spec, req.Options.Workers)
	if err != nil {
		writeDomainError(c, "SIMULATION_ERROR", err)
		return
	}

	results, err := analysis.CheckICMarketsForAgent(batch.Deviation, batch.NoDeviation, spec.DeviatingAgent, params)
	if err != nil {
		writeDomainError(c, "SIMULATION_ERROR", err)
		return
	}

	resp := buildSimulateResponse(batch, results, params, spec, req.Options.IncludeLedger)

	if req.Options.Persist {
		if h.store == nil {
			writeError(c, http.StatusServiceUnavailable, "STORE_DISABLED", errStoreDisabled)
			return
		}
		run := &store.Run{
			Label:  req.Options.Label,
			Params: params,
			Spec:   spec,
		}
		for i, id := range batch.MarketIDs {
			run.Markets = append(run.Markets, store.MarketRun{
				MarketID:    id,
				NoDeviation: batch.NoDeviation[i],
				Deviation:   batch.Deviation[i],
				IC:          results[i],
			})
		}
		id, err := h.store.SaveRun(c.Request.Context(), run)
		if err != nil {
			writeError(c, http.StatusInternalServerError, "STORE_ERROR", err)
			return
		}
		resp.RunID = id
		log.WithFields(log.Fields{"run_id": id, "markets": len(markets)}).Info("stored run")
	}

	if cacheKey != "" {
		h.cache.Set(cacheKey, resp)
	}
	c.JSON(http.StatusOK, resp)
}

// CheckIC handles POST /api/v1/ic
func (h *ReplayHandler) CheckIC(c *gin.Context) {
	var req models.ICRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	cfg, err := buildConfig(h.marketDir, req.Config, nil)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", err)
		return
	}

	dev, err := model.TrajectoryFromInts(req.Deviation)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_TRAJECTORY", err)
		return
	}
	noDev, err := model.TrajectoryFromInts(req.NoDeviation)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_TRAJECTORY", err)
		return
	}

	r, err := analysis.CheckICForAgent(dev, noDev, req.Agent, cfg.Market.ToModelParams())
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_TRAJECTORY", err)
		return
	}
	c.JSON(http.StatusOK, toICResponse(r))
}

// CheckICBatch handles POST /api/v1/ic/batch
func (h *ReplayHandler) CheckICBatch(c *gin.Context) {
	var req models.ICBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	cfg, err := buildConfig(h.marketDir, req.Config, nil)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", err)
		return
	}

	dev, err := trajectories(req.Deviation)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_TRAJECTORY", err)
		return
	}
	noDev, err := trajectories(req.NoDeviation)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_TRAJECTORY", err)
		return
	}

	results, err := analysis.CheckICMarkets(dev, noDev, cfg.Market.ToModelParams())
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_TRAJECTORY", err)
		return
	}

	resp := models.ICBatchResponse{
		NMarkets: len(results),
		ShareIC:  analysis.ShareIC(results),
		Results:  make([]models.ICResponse, len(results)),
	}
	for i, r := range results {
		resp.Results[i] = toICResponse(r)
	}
	c.JSON(http.StatusOK, resp)
}

// Helper functions

func trajectories(raw [][][]int) ([]model.Trajectory, error) {
	out := make([]model.Trajectory, len(raw))
	for i, rows := range raw {
		t, err := model.TrajectoryFromInts(rows)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func toICResponse(r analysis.ICResult) models.ICResponse {
	return models.ICResponse{
		IsIC:       r.IsIC,
		ValueNoDev: r.ValueNoDev,
		ValueDev:   r.ValueDev,
	}
}

func buildSimulateResponse(batch *replay.Batch, results []analysis.ICResult, params model.MarketParameters, spec model.DeviationSpec, includeLedger bool) models.SimulateResponse {
	resp := models.SimulateResponse{
		Status: "completed",
		Summary: models.SimulateSummary{
			NMarkets:        len(results),
			TotalPeriods:    spec.TotalPeriods,
			DeviationPeriod: spec.DeviationPeriod(),
			ShareIC:         analysis.ShareIC(results),
			Benchmarks:      toBenchmarks(analysis.ComputeBenchmarks(params)),
		},
		Markets: make([]models.MarketResult, len(results)),
	}

	for i, r := range analysis.RankByDeviationGain(batch.MarketIDs, results) {
		resp.Summary.Ranking = append(resp.Summary.Ranking, models.RankedEntry{
			Rank:     i + 1,
			MarketID: r.MarketID,
			Gain:     r.Gain(),
			IsIC:     r.IsIC,
		})
	}

	for i, id := range batch.MarketIDs {
		rec := analysis.Reconverges(batch.Deviation[i], spec.DeviationPeriod())
		m := models.MarketResult{
			MarketID:    id,
			NoDeviation: batch.NoDeviation[i].Ints(),
			Deviation:   batch.Deviation[i].Ints(),
			IC:          toICResponse(results[i]),
			AtFloor:     batch.AtFloor[i],
			Reconverged: rec.Reconverged,
		}
		if rec.Reconverged {
			m.ReconvergedIn = rec.Periods
		}
		if includeLedger {
			m.Ledger = append(
				convertLedger(replay.BuildLedger(id, model.PathNoDeviation, batch.NoDeviation[i], spec.DeviatingAgent, params)),
				convertLedger(replay.BuildLedger(id, model.PathDeviation, batch.Deviation[i], spec.DeviatingAgent, params))...,
			)
		}
		resp.Markets[i] = m
	}
	return resp
}

// toBenchmarks drops values that do not fit in JSON (d == 1 diverges).
func toBenchmarks(b analysis.Benchmarks) models.Benchmarks {
	out := models.Benchmarks{
		MonopolyPrice: int(b.MonopolyPrice),
		NashPrice:     int(b.NashPrice),
	}
	if !math.IsInf(b.CollusiveValue, 0) && !math.IsNaN(b.CollusiveValue) {
		out.CollusiveValue = b.CollusiveValue
	}
	if !math.IsInf(b.CompetitiveValue, 0) && !math.IsNaN(b.CompetitiveValue) {
		out.CompetitiveValue = b.CompetitiveValue
	}
	return out
}

func convertLedger(ledger []replay.LedgerRow) []models.LedgerRow {
	result := make([]models.LedgerRow, len(ledger))
	for i, row := range ledger {
		prices := make([]int, len(row.Prices))
		for j, p := range row.Prices {
			prices[j] = int(p)
		}
		result[i] = models.LedgerRow{
			Path:             string(row.Path),
			Period:           row.Period,
			Prices:           prices,
			WinningPrice:     int(row.WinningPrice),
			NWinners:         row.NWinners,
			Rewards:          row.Rewards,
			DiscountedReward: row.DiscountedReward,
			CumValue:         row.CumValue,
		}
	}
	return result
}
