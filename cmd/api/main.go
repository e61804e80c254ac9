package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"bertrand-replay/internal/api"
	"bertrand-replay/internal/data"
	"bertrand-replay/internal/store"
)

func main() {
	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
		log.SetFormatter(&log.JSONFormatter{})
	}

	// Optional run storage
	var db *store.DB
	if path := os.Getenv("API_DB"); path != "" {
		var err error
		db, err = store.Open(path)
		if err != nil {
			log.WithError(err).Fatal("open run store")
		}
		defer db.Close()
		log.WithField("db", path).Info("run storage enabled")
	}

	// Caching is opt-in via ENABLE_RESULT_CACHE and stays off in production
	var cache *data.ResultCache
	if os.Getenv("API_ENV") != "production" {
		cache = data.GetCache()
	}
	if cache != nil {
		log.Info("result cache enabled")
	}

	router := api.NewRouter(cache, db)

	addr := fmt.Sprintf(":%s", port)
	log.WithField("addr", addr).Info("starting API server")
	if err := router.Run(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
