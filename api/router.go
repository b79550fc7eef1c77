// Package api wires the HTTP surface: routing, auth, and rate limiting.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/finsight-hq/finsight/acquire"
	"github.com/finsight-hq/finsight/api/handler"
	"github.com/finsight-hq/finsight/api/middleware"
	"github.com/finsight-hq/finsight/cache"
	"github.com/finsight-hq/finsight/config"
	"github.com/finsight-hq/finsight/report"
)

// Version is stamped at build time via -ldflags.
var Version = "0.1.0"

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(engine *acquire.Engine, sp handler.StatsProvider, renderer *report.Renderer, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(sp, startTime, Version))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Single acquisition.
	protected.POST("/acquire", handler.Acquire(engine, renderer, cc))

	// Batch acquisition.
	protected.POST("/batch/acquire", handler.PostBatch(engine, renderer, cfg.Server.WebhookSecret))
	protected.GET("/batch/:id", handler.GetBatch())

	return r
}
