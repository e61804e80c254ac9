// Package api wires the HTTP surface of the replay engine.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bertrand-replay/internal/api/handlers"
	"bertrand-replay/internal/api/middleware"
	"bertrand-replay/internal/data"
	"bertrand-replay/internal/store"
)

// NewRouter builds the gin engine. cache and db may be nil.
func NewRouter(cache *data.ResultCache, db *store.DB) *gin.Engine {
	router := gin.New()

	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	replayHandler := handlers.NewReplayHandler(cache, db)
	runsHandler := handlers.NewRunsHandler(db)
	marketHandler := handlers.NewMarketHandler()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": db != nil, "cache": cache != nil})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/simulate", replayHandler.Simulate)
		v1.POST("/ic", replayHandler.CheckIC)
		v1.POST("/ic/batch", replayHandler.CheckICBatch)

		v1.GET("/runs", runsHandler.ListRuns)
		v1.GET("/runs/:id", runsHandler.GetRun)

		v1.GET("/markets", marketHandler.ListMarkets)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})

	return router
}
