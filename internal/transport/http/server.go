// Package http serves the operational endpoints: health and metrics.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/vovakirdan/ircserv/internal/metrics"
)

const readHeaderTimeout = 5 * time.Second

// Stats exposes the counters the reactor publishes after every tick.
type Stats interface {
	ClientCount() int
	ChannelCount() int
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status   string `json:"status"`
	Clients  int    `json:"clients"`
	Channels int    `json:"channels"`
}

// NewServer builds the ops HTTP server. Handlers only read stats and the
// registry; they never reach into reactor state.
func NewServer(addr string, stats Stats, reg *prometheus.Registry, logger *zerolog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler(stats))
	router.GET("/metrics", gin.WrapH(metrics.Handler(reg)))

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func healthHandler(stats Stats) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:   "ok",
			Clients:  stats.ClientCount(),
			Channels: stats.ChannelCount(),
		})
	}
}
