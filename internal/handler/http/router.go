package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/freedombydesign/connections-service/internal/config"
	"github.com/freedombydesign/connections-service/internal/handler/http/middleware"
	"github.com/freedombydesign/connections-service/internal/service"
	"github.com/freedombydesign/connections-service/internal/utils/telemetry"
)

// SetupRouter builds the HTTP routing for the service.
func SetupRouter(
	connections *service.ConnectionService,
	cfg *config.Config,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CorsMiddleware(cfg.App.BaseURL))
	if cfg.Telemetry.Metrics.Enabled {
		router.Use(middleware.MetricsMiddleware())
		router.GET("/metrics", gin.WrapF(telemetry.PrometheusHandler()))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/readiness", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	connectionHandler := NewConnectionHandler(connections, cfg, logger)

	api := router.Group("/api/v1")
	{
		conns := api.Group("/connections")
		{
			conns.GET("", connectionHandler.List)
			conns.GET("/:provider", connectionHandler.Initiate)
			conns.GET("/:provider/callback", connectionHandler.Callback)
			conns.DELETE("/:provider/:platform_user_id", connectionHandler.Disconnect)
		}
	}

	return router
}
