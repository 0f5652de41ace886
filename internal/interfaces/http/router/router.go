// Package router wires the gin engine: middleware chain, route groups and
// the HTTP server lifecycle.
package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sentrasec/sentra/internal/config"
	"github.com/sentrasec/sentra/internal/interfaces/http/handlers"
	"github.com/sentrasec/sentra/internal/interfaces/http/middleware"
	"github.com/sentrasec/sentra/pkg/logger"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Health       *handlers.HealthHandler
	Activity     *handlers.ActivityHandler
	Threat       *handlers.ThreatHandler
	Notification *handlers.NotificationHandler
	Prediction   *handlers.PredictionHandler
}

// Router owns the gin engine and the HTTP server lifecycle.
type Router struct {
	engine   *gin.Engine
	config   *config.Config
	logger   logger.Logger
	handlers Handlers
	auth     gin.HandlerFunc
	registry *prometheus.Registry
	server   *http.Server
}

// NewRouter creates the router. The auth middleware guards the public API
// groups; internal routes are expected to be reachable only from the
// service mesh.
func NewRouter(cfg *config.Config, log logger.Logger, h Handlers, auth gin.HandlerFunc, registry *prometheus.Registry) *Router {
	gin.SetMode(gin.ReleaseMode)
	return &Router{
		engine:   gin.New(),
		config:   cfg,
		logger:   log,
		handlers: h,
		auth:     auth,
		registry: registry,
	}
}

// SetupRoutes mounts the middleware chain and every route group.
func (r *Router) SetupRoutes() {
	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.RequestLogger(r.logger))

	r.engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.engine.GET("/health/live", r.handlers.Health.Live)
	r.engine.GET("/health/ready", r.handlers.Health.Ready)

	metricsHandler := promhttp.Handler()
	if r.registry != nil {
		metricsHandler = promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
	}
	r.engine.GET("/metrics", gin.WrapH(metricsHandler))

	if r.config.Monitoring.PprofEnabled {
		pprof.Register(r.engine)
	}

	v1 := r.engine.Group("/api/v1")
	v1.Use(r.auth)
	{
		v1.POST("/activities", r.handlers.Activity.Record)
		v1.GET("/profiles/:profile_id/score-history", middleware.RequireElevated(), r.handlers.Activity.ScoreHistory)

		threats := v1.Group("/threats")
		threats.Use(middleware.RequireElevated())
		{
			threats.GET("", r.handlers.Threat.List)
			threats.POST("/:threat_id/resolve", r.handlers.Threat.Resolve)
		}

		v1.GET("/notifications", r.handlers.Notification.List)
		v1.POST("/notifications/read-all", r.handlers.Notification.MarkAllRead)
		v1.POST("/notifications/:notification_id/read", r.handlers.Notification.MarkRead)
		v1.GET("/profiles/:profile_id/notifications", middleware.RequireElevated(), r.handlers.Notification.List)

		v1.GET("/predictions", r.handlers.Prediction.List)
		v1.GET("/predictions/stats", r.handlers.Prediction.Stats)
		v1.POST("/predictions/:prediction_id/review", middleware.RequireElevated(), r.handlers.Prediction.Review)
	}

	// Server-to-server intake from the model ensemble service.
	internal := r.engine.Group("/internal")
	{
		internal.POST("/ml/predictions", r.handlers.Prediction.Ingest)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})
}

// Start runs the HTTP server until it is shut down.
func (r *Router) Start() error {
	r.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.server = &http.Server{
		Addr:           addr,
		Handler:        r.engine,
		ReadTimeout:    r.config.Server.ReadTimeout,
		WriteTimeout:   r.config.Server.WriteTimeout,
		IdleTimeout:    r.config.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	r.logger.Info(context.Background(), "Starting HTTP server", logger.String("address", addr))
	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (r *Router) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.logger.Info(ctx, "Stopping HTTP server")
	return r.server.Shutdown(ctx)
}

// Engine exposes the gin engine for tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
