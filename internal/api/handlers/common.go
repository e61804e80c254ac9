package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"bertrand-replay/internal/api/models"
	"bertrand-replay/internal/config"
	"bertrand-replay/internal/model"
)

// maxStates caps the state space of markets submitted over HTTP.
const maxStates = 1 << 20

func writeError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}

// writeDomainError maps replay errors onto status codes. Bad inputs are the
// caller's fault; anything else is ours.
func writeDomainError(c *gin.Context, code string, err error) {
	var actionErr *model.InvalidActionError
	switch {
	case errors.As(err, &actionErr):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_ACTION",
				Message: err.Error(),
				Details: map[string]any{
					"agent":  actionErr.Agent,
					"state":  actionErr.State,
					"action": actionErr.Action,
				},
			},
		})
	case errors.Is(err, model.ErrConfiguration):
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", err)
	case errors.Is(err, model.ErrInvalidState):
		writeError(c, http.StatusBadRequest, "INVALID_STATE", err)
	default:
		writeError(c, http.StatusInternalServerError, code, err)
	}
}

// marketDir is where market presets referenced by market_file live.
func marketDir() string {
	dir := os.Getenv("MARKET_DIR")
	if dir == "" {
		wd, err := os.Getwd()
		if err == nil {
			dir = filepath.Join(wd, "examples", "markets")
		} else {
			dir = "./examples/markets"
		}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return dir
}

// buildConfig turns request market/deviation fields into a validated config.
// A market_file preset is the base and non-zero inline fields override it.
// dev may be nil for endpoints that only need market parameters.
func buildConfig(dir string, req models.MarketConfig, dev *models.DeviationParams) (*config.Config, error) {
	cfg := &config.Config{
		Market: config.MarketConfig{
			Name:             req.Market.Name,
			NAgent:           req.Market.NAgent,
			MinPrice:         req.Market.MinPrice,
			MaxPrice:         req.Market.MaxPrice,
			Step:             req.Market.Step,
			KMemory:          req.Market.KMemory,
			DiscountRate:     req.Market.DiscountRate,
			ReservationPrice: req.Market.ReservationPrice,
			MConsumer:        req.Market.MConsumer,
		},
	}
	if dev != nil {
		cfg.Deviation = config.DeviationConfig{
			TotalPeriods:           dev.TotalPeriods,
			PeriodsBeforeDeviation: dev.PeriodsBeforeDeviation,
			DeviatingAgent:         dev.DeviatingAgent,
			DeviationSteps:         dev.DeviationSteps,
		}
	}

	if req.MarketFile != "" {
		// Presets are looked up by name only, never by path.
		path := filepath.Join(dir, filepath.Base(req.MarketFile)+".yaml")
		loaded, err := config.LoadUnchecked(path)
		if err != nil {
			return nil, &model.ConfigurationError{Field: "market_file", Reason: "unknown market preset " + req.MarketFile}
		}
		cfg.Market = config.MergeMarket(loaded.Market, cfg.Market)
	}

	cfg.ApplyDefaults()
	if dev == nil {
		if err := cfg.Market.ToModelParams().Validate(); err != nil {
			return nil, err
		}
	} else if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if n := cfg.Market.ToModelParams().TotalStates(); n > maxStates {
		return nil, &model.ConfigurationError{
			Field:  "market",
			Reason: fmt.Sprintf("state space has %d states, the API accepts at most %d", n, maxStates),
		}
	}
	return cfg, nil
}
