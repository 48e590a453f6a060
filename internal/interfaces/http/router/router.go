// Package router wires the HTTP routes and middleware stack.
package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/erp/amazon-connector/internal/infrastructure/logger"
	"github.com/erp/amazon-connector/internal/interfaces/http/handler"
	"github.com/erp/amazon-connector/internal/interfaces/http/middleware"
)

// Config carries the handlers and options the router mounts.
type Config struct {
	Backend *handler.BackendHandler
	Sync    *handler.SyncHandler
	Jobs    *handler.JobHandler
	System  *handler.SystemHandler

	Logger  *zap.Logger
	Tracing bool
}

// New builds the gin engine with the full middleware stack and all routes.
func New(cfg Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(cfg.Logger))
	engine.Use(logger.Recovery(cfg.Logger))
	if cfg.Tracing {
		engine.Use(otelgin.Middleware("amazon-connector"))
	}

	engine.GET("/healthz", cfg.System.Health)
	engine.GET("/readyz", cfg.System.Ready)

	v1 := engine.Group("/api/v1")
	{
		v1.GET("/system/info", cfg.System.Info)
		v1.GET("/marketplaces", cfg.Backend.Marketplaces)
		v1.GET("/sync/operations", cfg.Sync.Operations)

		backends := v1.Group("/backends")
		{
			backends.POST("", cfg.Backend.Create)
			backends.GET("", cfg.Backend.List)
			backends.GET("/:id", cfg.Backend.Get)
			backends.PUT("/:id", cfg.Backend.Update)
			backends.DELETE("/:id", cfg.Backend.Delete)
			backends.POST("/:id/activate", cfg.Backend.Activate)
			backends.POST("/:id/deactivate", cfg.Backend.Deactivate)
			backends.GET("/:id/checkpoints", cfg.Backend.ListCheckpoints)
			backends.POST("/:id/shipping-templates/discover", cfg.Backend.DiscoverShippingTemplates)
			backends.POST("/:id/sync/:operation", cfg.Sync.Trigger)
		}

		v1.POST("/checkpoints/:id/resolve", cfg.Backend.ResolveCheckpoint)

		jobs := v1.Group("/jobs")
		{
			jobs.GET("", cfg.Jobs.List)
			jobs.GET("/:id", cfg.Jobs.Get)
		}
	}

	return engine
}
