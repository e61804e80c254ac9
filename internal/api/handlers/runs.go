package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bertrand-replay/internal/api/models"
	"bertrand-replay/internal/store"
)

var errStoreDisabled = errors.New("run storage is not configured (set API_DB)")

// RunsHandler serves stored runs
type RunsHandler struct {
	store *store.DB
}

// NewRunsHandler creates a new runs handler. db may be nil.
func NewRunsHandler(db *store.DB) *RunsHandler {
	return &RunsHandler{store: db}
}

// ListRuns handles GET /api/v1/runs
func (h *RunsHandler) ListRuns(c *gin.Context) {
	if h.store == nil {
		writeError(c, http.StatusServiceUnavailable, "STORE_DISABLED", errStoreDisabled)
		return
	}
	var req models.ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	runs, err := h.store.ListRuns(c.Request.Context(), req.Limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORE_ERROR", err)
		return
	}
	out := make([]models.RunInfo, len(runs))
	for i, r := range runs {
		out[i] = models.RunInfo{
			ID:        r.ID,
			Label:     r.Label,
			CreatedAt: r.CreatedAt,
			NMarkets:  r.NMarkets,
			ShareIC:   r.ShareIC,
		}
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

// GetRun handles GET /api/v1/runs/:id
func (h *RunsHandler) GetRun(c *gin.Context) {
	if h.store == nil {
		writeError(c, http.StatusServiceUnavailable, "STORE_DISABLED", errStoreDisabled)
		return
	}
	run, err := h.store.LoadRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", err)
		return
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORE_ERROR", err)
		return
	}

	resp := models.SimulateResponse{
		RunID:  run.ID,
		Status: "stored",
		Summary: models.SimulateSummary{
			NMarkets:        len(run.Markets),
			TotalPeriods:    run.Spec.TotalPeriods,
			DeviationPeriod: run.Spec.DeviationPeriod(),
			ShareIC:         run.ShareIC(),
		},
		Markets: make([]models.MarketResult, len(run.Markets)),
	}
	for i, m := range run.Markets {
		resp.Markets[i] = models.MarketResult{
			MarketID:    m.MarketID,
			NoDeviation: m.NoDeviation.Ints(),
			Deviation:   m.Deviation.Ints(),
			IC:          toICResponse(m.IC),
		}
	}
	c.JSON(http.StatusOK, resp)
}
