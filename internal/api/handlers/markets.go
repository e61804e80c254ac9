package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"bertrand-replay/internal/api/models"
	"bertrand-replay/internal/config"
)

// MarketHandler lists market presets usable as market_file
type MarketHandler struct {
	marketDir string
}

// GetMarketDir returns the preset directory path (for debugging)
func (h *MarketHandler) GetMarketDir() string {
	return h.marketDir
}

// NewMarketHandler creates a new market handler
func NewMarketHandler() *MarketHandler {
	dir := marketDir()
	log.WithField("dir", dir).Info("using market preset directory")
	return &MarketHandler{marketDir: dir}
}

// ListMarkets handles GET /api/v1/markets
func (h *MarketHandler) ListMarkets(c *gin.Context) {
	markets := []models.MarketInfo{}

	entries, err := os.ReadDir(h.marketDir)
	if err != nil {
		log.WithError(err).WithField("dir", h.marketDir).Warn("cannot read market preset directory")
		c.JSON(http.StatusOK, gin.H{"markets": markets})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(h.marketDir, entry.Name())
		info, err := loadMarketInfo(path, entry.Name())
		if err != nil {
			log.WithError(err).WithField("file", path).Warn("skipping market preset")
			continue
		}
		markets = append(markets, *info)
	}

	c.JSON(http.StatusOK, gin.H{"markets": markets})
}

func loadMarketInfo(path, filename string) (*models.MarketInfo, error) {
	cfg, err := config.LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	params := cfg.Market.ToModelParams()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	id := strings.TrimSuffix(filename, ".yaml")
	name := cfg.Market.Name
	if name == "" {
		name = id
	}
	return &models.MarketInfo{
		ID:           id,
		Name:         name,
		File:         path,
		NAgent:       params.NAgent,
		NPricePoints: params.NPricePoints(),
		KMemory:      params.KMemory,
		TotalStates:  params.TotalStates(),
	}, nil
}
