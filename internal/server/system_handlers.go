package server

import (
	"context"
	"net/http"
	"time"

	"gymdesk/internal/api"
	"gymdesk/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// @Summary      Health check
// @Description  Pings the database and redis. Answers 503 when either is down.
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Failure      503 {object} api.HealthResponse
// @Router       /health [get]
func Health(db *sqlx.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		resp := api.HealthResponse{Status: "ok", Checks: map[string]string{}}
		check := func(name string, err error) {
			if err != nil {
				logger.Warn("health check failed", "dependency", name, "error", err)
				resp.Status = "degraded"
				resp.Checks[name] = "down"
				return
			}
			resp.Checks[name] = "up"
		}

		if db != nil {
			check("database", db.PingContext(ctx))
		}
		if rdb != nil {
			check("redis", rdb.Ping(ctx).Err())
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	}
}

// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
