package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/finsight-hq/finsight/models"
)

// StatsProvider reports browser session pool usage. The driver implements
// it; a nil provider means the service runs fetch-only.
type StatsProvider interface {
	Stats() models.SessionStats
}

// Health returns the handler for GET /api/v1/health.
//
// Reports session pool utilisation and degrades status when > 80% of
// sessions are active.
func Health(sp StatsProvider, startTime time.Time, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var stats models.SessionStats
		if sp != nil {
			stats = sp.Stats()
		}

		status := "healthy"
		if stats.MaxSessions > 0 && stats.ActiveSessions > int(float64(stats.MaxSessions)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       status,
			Uptime:       time.Since(startTime).Round(time.Second).String(),
			SessionStats: stats,
			Version:      version,
		})
	}
}
